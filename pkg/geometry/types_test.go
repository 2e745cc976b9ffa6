package geometry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/spatial/r2"
)

func TestQuarterTurn(t *testing.T) {
	vx := r2.Vec{X: 1}
	vy := r2.Vec{Y: 1}

	// Clockwise on screen: +X goes to +Y (down), +Y goes to -X.
	assert.Equal(t, vy, QuarterTurn(1).Apply(vx))
	assert.Equal(t, r2.Vec{X: -1}, QuarterTurn(1).Apply(vy))
	assert.Equal(t, r2.Vec{X: -1}, QuarterTurn(2).Apply(vx))
	assert.Equal(t, r2.Vec{Y: -1}, QuarterTurn(3).Apply(vx))
	assert.Equal(t, QuarterTurn(3), QuarterTurn(-1))

	full := Identity()
	for i := 0; i < 4; i++ {
		full = QuarterTurn(1).Compose(full)
	}
	assert.Equal(t, Identity(), full)
}

func TestComposeOrder(t *testing.T) {
	// Scale first, then translate.
	m := Translation(10, 20).Compose(Scale(2, 3))
	assert.Equal(t, r2.Vec{X: 12, Y: 23}, m.Apply(r2.Vec{X: 1, Y: 1}))
}

func TestIntegerTranslation(t *testing.T) {
	dx, dy, ok := Translation(3, -4).IntegerTranslation()
	assert.True(t, ok)
	assert.Equal(t, 3, dx)
	assert.Equal(t, -4, dy)

	_, _, ok = Translation(0.5, 0).IntegerTranslation()
	assert.False(t, ok)

	_, _, ok = QuarterTurn(1).IntegerTranslation()
	assert.False(t, ok)
}

func TestSize(t *testing.T) {
	assert.True(t, NewSize(400, 225).Valid())
	assert.False(t, NewSize(0, 225).Valid())
	assert.Equal(t, r2.Vec{X: 200, Y: 112.5}, NewSize(400, 225).Center())
}
