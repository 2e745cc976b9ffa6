package image

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/sirupsen/logrus"
	"golang.org/x/image/draw"

	"banner-editor/internal/device"
	"banner-editor/internal/transform"
	"banner-editor/pkg/geometry"
)

// ErrSourceNotReady is returned when rendering without a decoded source.
var ErrSourceNotReady = errors.New("image source not ready")

// DefaultBackground is the neutral fill behind the source image.
var DefaultBackground = color.RGBA{R: 0xf3, G: 0xf4, B: 0xf6, A: 0xff}

// Surface is the output bitmap for one device target, always sized to the
// variant's output resolution regardless of the editing view size.
type Surface struct {
	img      *image.RGBA
	device   device.Key
	rendered bool
}

// NewSurface allocates a blank surface for v.
func NewSurface(v device.Variant) *Surface {
	return &Surface{
		img:    image.NewRGBA(image.Rect(0, 0, v.OutputWidth, v.OutputHeight)),
		device: v.Key,
	}
}

// Image returns the underlying bitmap.
func (s *Surface) Image() *image.RGBA {
	if s == nil {
		return nil
	}
	return s.img
}

// Device returns the device target the surface was sized for.
func (s *Surface) Device() device.Key {
	return s.device
}

// Rendered reports whether a render pass has completed on the surface.
func (s *Surface) Rendered() bool {
	return s != nil && s.rendered
}

// Bounds returns the surface bounds.
func (s *Surface) Bounds() image.Rectangle {
	if s == nil || s.img == nil {
		return image.Rectangle{}
	}
	return s.img.Bounds()
}

func (s *Surface) fits(v device.Variant) bool {
	return s != nil && s.img != nil && s.device == v.Key &&
		s.img.Rect.Dx() == v.OutputWidth && s.img.Rect.Dy() == v.OutputHeight
}

// Renderer composites a source into a surface under a transform state.
type Renderer struct {
	Background   color.Color
	Interpolator draw.Interpolator
}

// NewRenderer returns a renderer with the given background and resampler.
// Nil arguments select DefaultBackground and bilinear sampling.
func NewRenderer(bg color.Color, interp draw.Interpolator) *Renderer {
	if bg == nil {
		bg = DefaultBackground
	}
	if interp == nil {
		interp = draw.BiLinear
	}
	return &Renderer{Background: bg, Interpolator: interp}
}

// Render draws src into surf for variant v. The pan in st is converted from
// display to output space using vp on every call. surf is reused when it
// already matches v, otherwise a new surface is returned. On error surf is
// left untouched.
func (r *Renderer) Render(surf *Surface, src *Source, st transform.State, v device.Variant, vp transform.Viewport) (*Surface, error) {
	if !src.Ready() {
		return nil, ErrSourceNotReady
	}

	img := src.Image()
	sb := img.Bounds()
	m, err := transform.SourceToOutput(st, sb.Dx(), sb.Dy(), v, vp)
	if err != nil {
		return nil, fmt.Errorf("failed to map transform: %w", err)
	}
	// Source pixels are addressed from their own bounds origin.
	s2d := m.Compose(geometry.Translation(float64(-sb.Min.X), float64(-sb.Min.Y)))

	if !surf.fits(v) {
		surf = NewSurface(v)
	}
	dst := surf.img

	draw.Draw(dst, dst.Bounds(), image.NewUniform(r.background()), image.Point{}, draw.Src)

	if dx, dy, ok := s2d.IntegerTranslation(); ok {
		// Whole-pixel placement needs no resampling.
		draw.Draw(dst, sb.Add(image.Pt(dx, dy)), img, sb.Min, draw.Over)
	} else {
		r.interpolator().Transform(dst, s2d.Aff3(), img, sb, draw.Over, nil)
	}
	surf.rendered = true

	logrus.WithFields(logrus.Fields{
		"device": v.Key.String(),
		"state":  st.String(),
	}).Debug("Rendered surface")
	return surf, nil
}

func (r *Renderer) background() color.Color {
	if r.Background == nil {
		return DefaultBackground
	}
	return r.Background
}

func (r *Renderer) interpolator() draw.Interpolator {
	if r.Interpolator == nil {
		return draw.BiLinear
	}
	return r.Interpolator
}

// ParseInterpolator maps a config name to a resampler.
func ParseInterpolator(name string) (draw.Interpolator, error) {
	switch strings.ToLower(name) {
	case "", "bilinear":
		return draw.BiLinear, nil
	case "nearest":
		return draw.NearestNeighbor, nil
	case "approx-bilinear":
		return draw.ApproxBiLinear, nil
	case "catmull-rom":
		return draw.CatmullRom, nil
	default:
		return nil, fmt.Errorf("unknown interpolator %q", name)
	}
}

// ParseColor parses a #rrggbb or #rgb hex color.
func ParseColor(s string) (color.RGBA, error) {
	c := color.RGBA{A: 0xff}
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	var err error
	switch len(hex) {
	case 6:
		_, err = fmt.Sscanf(hex, "%02x%02x%02x", &c.R, &c.G, &c.B)
	case 3:
		_, err = fmt.Sscanf(hex, "%1x%1x%1x", &c.R, &c.G, &c.B)
		c.R *= 17
		c.G *= 17
		c.B *= 17
	default:
		err = fmt.Errorf("unexpected length %d", len(hex))
	}
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid color %q: %v", s, err)
	}
	return c, nil
}

// Thumbnail returns a downscaled copy of the surface that fits in maxW x maxH.
func Thumbnail(s *Surface, maxW, maxH int) image.Image {
	if !s.Rendered() {
		return nil
	}
	return imaging.Fit(s.img, maxW, maxH, imaging.Lanczos)
}
