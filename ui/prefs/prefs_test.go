package prefs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", prefsFile)
	p := LoadFrom(path)
	assert.Equal(t, "", p.String("lastDevice"))
	assert.Equal(t, 800.0, p.FloatWithFallback("windowWidth", 800))
	assert.True(t, p.Bool("showGuides", true))

	p.SetString("lastDevice", "mobile")
	p.SetFloat("windowWidth", 1280)
	p.SetBool("showGuides", false)
	require.NoError(t, p.Save())

	q := LoadFrom(path)
	assert.Equal(t, "mobile", q.String("lastDevice"))
	assert.Equal(t, 1280.0, q.FloatWithFallback("windowWidth", 800))
	assert.False(t, q.Bool("showGuides", true))
	assert.Equal(t, path, q.Path())
}

func TestCorruptFileFallsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), prefsFile)
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	p := LoadFrom(path)
	assert.Equal(t, "", p.String("lastDirectory"))
	p.SetString("lastDirectory", "/tmp")
	assert.Equal(t, "/tmp", p.String("lastDirectory"))
}
