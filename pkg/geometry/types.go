// Package geometry provides the affine math shared by the render engine and the editor canvas.
package geometry

import (
	"math"

	"golang.org/x/image/math/f64"
	"gonum.org/v1/gonum/spatial/r2"
)

// AffineTransform represents a 2x3 affine transformation matrix.
// [a b tx]
// [c d ty]
type AffineTransform struct {
	A, B, TX float64
	C, D, TY float64
}

// Identity returns the identity transform.
func Identity() AffineTransform {
	return AffineTransform{A: 1, D: 1}
}

// Translation returns a translation transform.
func Translation(tx, ty float64) AffineTransform {
	return AffineTransform{A: 1, D: 1, TX: tx, TY: ty}
}

// TranslationVec returns a translation by v.
func TranslationVec(v r2.Vec) AffineTransform {
	return Translation(v.X, v.Y)
}

// Scale returns a scaling transform.
func Scale(sx, sy float64) AffineTransform {
	return AffineTransform{A: sx, D: sy}
}

// QuarterTurn returns a clockwise rotation (in y-down image space) of
// quarters*90 degrees. The matrix entries are exact, so composing four
// quarter turns yields the identity without floating point drift.
func QuarterTurn(quarters int) AffineTransform {
	switch ((quarters % 4) + 4) % 4 {
	case 1:
		return AffineTransform{A: 0, B: -1, C: 1, D: 0}
	case 2:
		return AffineTransform{A: -1, B: 0, C: 0, D: -1}
	case 3:
		return AffineTransform{A: 0, B: 1, C: -1, D: 0}
	default:
		return Identity()
	}
}

// Apply applies the transform to a point.
func (t AffineTransform) Apply(p r2.Vec) r2.Vec {
	return r2.Vec{
		X: t.A*p.X + t.B*p.Y + t.TX,
		Y: t.C*p.X + t.D*p.Y + t.TY,
	}
}

// Compose returns this transform composed with another (this * other).
// The result applies other first, then t.
func (t AffineTransform) Compose(other AffineTransform) AffineTransform {
	return AffineTransform{
		A:  t.A*other.A + t.B*other.C,
		B:  t.A*other.B + t.B*other.D,
		TX: t.A*other.TX + t.B*other.TY + t.TX,
		C:  t.C*other.A + t.D*other.C,
		D:  t.C*other.B + t.D*other.D,
		TY: t.C*other.TX + t.D*other.TY + t.TY,
	}
}

// IntegerTranslation reports whether t is a pure translation by whole
// pixels, and returns that offset.
func (t AffineTransform) IntegerTranslation() (dx, dy int, ok bool) {
	if t.A != 1 || t.B != 0 || t.C != 0 || t.D != 1 {
		return 0, 0, false
	}
	if t.TX != math.Trunc(t.TX) || t.TY != math.Trunc(t.TY) {
		return 0, 0, false
	}
	return int(t.TX), int(t.TY), true
}

// Aff3 returns the transform in the row-major layout used by x/image/draw.
func (t AffineTransform) Aff3() f64.Aff3 {
	return f64.Aff3{
		t.A, t.B, t.TX,
		t.C, t.D, t.TY,
	}
}

// Size represents a 2D size.
type Size struct {
	Width  float64 `json:"width" toml:"width"`
	Height float64 `json:"height" toml:"height"`
}

// NewSize creates a new Size.
func NewSize(width, height float64) Size {
	return Size{Width: width, Height: height}
}

// Center returns the midpoint of a box of this size anchored at the origin.
func (s Size) Center() r2.Vec {
	return r2.Vec{X: s.Width / 2, Y: s.Height / 2}
}

// Valid reports whether both dimensions are positive and finite.
func (s Size) Valid() bool {
	return s.Width > 0 && s.Height > 0 &&
		!math.IsInf(s.Width, 0) && !math.IsInf(s.Height, 0)
}
