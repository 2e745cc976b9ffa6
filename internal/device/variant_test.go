package device

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPolicyInvariant(t *testing.T) {
	p := DefaultPolicy()
	for _, v := range p.Variants() {
		t.Run(v.Key.String(), func(t *testing.T) {
			assert.Equal(t, v.OutputWidth*v.Ratio.H, v.OutputHeight*v.Ratio.W)
			assert.InDelta(t, float64(v.OutputWidth)/v.AspectRatio(), float64(v.OutputHeight), 1e-9)
		})
	}
}

func TestDefaultPolicyTable(t *testing.T) {
	p := DefaultPolicy()
	tests := []struct {
		key  Key
		w, h int
	}{
		{Desktop, 1920, 1080},
		{Tablet, 1440, 1080},
		{Mobile, 1080, 1920},
		{Product, 1920, 1920},
	}
	for _, tt := range tests {
		v := p.Variant(tt.key)
		assert.Equal(t, tt.w, v.OutputWidth, tt.key.String())
		assert.Equal(t, tt.h, v.OutputHeight, tt.key.String())
	}
}

func TestUnknownKeyPanics(t *testing.T) {
	assert.Panics(t, func() { DefaultPolicy().Variant(Key(42)) })
}

func TestParseKey(t *testing.T) {
	k, err := ParseKey(" Mobile ")
	require.NoError(t, err)
	assert.Equal(t, Mobile, k)

	_, err = ParseKey("watch")
	assert.ErrorIs(t, err, ErrUnknownKey)
}

func TestKeyText(t *testing.T) {
	var k Key
	require.NoError(t, k.UnmarshalText([]byte("tablet")))
	assert.Equal(t, Tablet, k)

	b, err := Desktop.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "desktop", string(b))

	_, err = Key(9).MarshalText()
	assert.ErrorIs(t, err, ErrUnknownKey)
}

func TestSettingKeyAndFileName(t *testing.T) {
	assert.Equal(t, "homepage_banner_url_desktop", Desktop.SettingKey())
	assert.Equal(t, "homepage_banner_url_mobile", Mobile.SettingKey())
	assert.Empty(t, Product.SettingKey())
	assert.Equal(t, "banner_tablet.jpg", Tablet.FileName("jpg"))
	assert.Equal(t, "product.png", Product.FileName("png"))
}

func TestNewPolicyOverrides(t *testing.T) {
	p, err := NewPolicy([]Override{{Key: Desktop, OutputWidth: 1280}})
	require.NoError(t, err)
	v := p.Variant(Desktop)
	assert.Equal(t, 1280, v.OutputWidth)
	assert.Equal(t, 720, v.OutputHeight)
	assert.Equal(t, 1080, p.Variant(Mobile).OutputWidth)

	_, err = NewPolicy([]Override{{Key: Desktop, OutputWidth: 1000}})
	assert.Error(t, err)

	_, err = NewPolicy([]Override{{Key: Key(7), OutputWidth: 100}})
	assert.ErrorIs(t, err, ErrUnknownKey)
}
