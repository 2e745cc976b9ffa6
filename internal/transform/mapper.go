package transform

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"banner-editor/internal/device"
	"banner-editor/pkg/geometry"
)

// ErrInvalidViewport is returned when a viewport dimension is not a
// positive finite number.
var ErrInvalidViewport = errors.New("invalid viewport size")

// Viewport is the size the editing view currently occupies on screen, in
// the same units as pointer positions.
type Viewport = geometry.Size

// OutputViewport returns a viewport the size of the variant's output, for
// callers without a live display (the mapping is then the identity).
func OutputViewport(v device.Variant) Viewport {
	return geometry.NewSize(float64(v.OutputWidth), float64(v.OutputHeight))
}

// FitViewport returns the largest viewport with the variant's aspect ratio
// that fits inside available.
func FitViewport(available Viewport, v device.Variant) Viewport {
	if !available.Valid() {
		return Viewport{}
	}
	ratio := v.AspectRatio()
	w := available.Width
	h := w / ratio
	if h > available.Height {
		h = available.Height
		w = h * ratio
	}
	return geometry.NewSize(w, h)
}

// Factors returns the per-axis display-to-output scale.
func Factors(vp Viewport, outW, outH int) (sx, sy float64, err error) {
	if !vp.Valid() || math.IsNaN(vp.Width) || math.IsNaN(vp.Height) {
		return 0, 0, fmt.Errorf("%w: %gx%g", ErrInvalidViewport, vp.Width, vp.Height)
	}
	return float64(outW) / vp.Width, float64(outH) / vp.Height, nil
}

// ToOutput converts a display space offset to output space pixels.
func ToOutput(pan r2.Vec, vp Viewport, outW, outH int) (r2.Vec, error) {
	sx, sy, err := Factors(vp, outW, outH)
	if err != nil {
		return r2.Vec{}, err
	}
	return r2.Vec{X: pan.X * sx, Y: pan.Y * sy}, nil
}

// SourceToOutput returns the affine map from source pixel coordinates
// (origin at the source's top-left) to output pixel coordinates for the
// given state. The viewport is read on every call so a resized view is
// picked up by the next render.
func SourceToOutput(s State, srcW, srcH int, v device.Variant, vp Viewport) (geometry.AffineTransform, error) {
	pan, err := ToOutput(s.Pan(), vp, v.OutputWidth, v.OutputHeight)
	if err != nil {
		return geometry.AffineTransform{}, err
	}
	out := geometry.NewSize(float64(v.OutputWidth), float64(v.OutputHeight))
	src := geometry.NewSize(float64(srcW), float64(srcH))
	z := s.Scale()

	origin := geometry.TranslationVec(r2.Add(out.Center(), pan))
	toCenter := geometry.TranslationVec(r2.Scale(-1, src.Center()))

	return origin.
		Compose(geometry.QuarterTurn(s.Rotation().Turns())).
		Compose(geometry.Scale(z, z)).
		Compose(toCenter), nil
}

// Coverage returns the fraction of the output frame covered by the
// transformed source, from 0 (only background visible) to 1.
func Coverage(s State, srcW, srcH int, v device.Variant, vp Viewport) (float64, error) {
	m, err := SourceToOutput(s, srcW, srcH, v, vp)
	if err != nil {
		return 0, err
	}
	frame := geometry.Rect(float64(v.OutputWidth), float64(v.OutputHeight))
	covered := geometry.IntersectPolygons(geometry.Quad(m, float64(srcW), float64(srcH)), frame)
	c := geometry.Area(covered) / geometry.Area(frame)
	return math.Min(c, 1), nil
}
