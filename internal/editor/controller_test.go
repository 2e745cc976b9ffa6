package editor

import (
	"bytes"
	goimage "image"
	"image/color"
	_ "image/jpeg"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"

	"banner-editor/internal/device"
	"banner-editor/internal/image"
	"banner-editor/internal/transform"
	"banner-editor/pkg/geometry"
)

func TestControllerDrag(t *testing.T) {
	s := newTestSession(t)
	c := NewController(s)

	assert.ErrorIs(t, c.PointerDown(r2.Vec{X: 1, Y: 1}), ErrNoSource)
	assert.Equal(t, Idle, c.Mode())

	require.NoError(t, s.Load(solidSource(t, 40, 20, color.RGBA{R: 255, A: 255})))

	// Moves while idle do nothing.
	require.NoError(t, c.PointerMove(r2.Vec{X: 50, Y: 50}))
	assert.Equal(t, r2.Vec{}, s.State().Pan())

	require.NoError(t, c.PointerDown(r2.Vec{X: 100, Y: 100}))
	assert.Equal(t, Dragging, c.Mode())
	require.NoError(t, c.PointerMove(r2.Vec{X: 130, Y: 90}))
	assert.Equal(t, r2.Vec{X: 30, Y: -10}, s.State().Pan())
	require.NoError(t, c.PointerMove(r2.Vec{X: 140, Y: 95}))
	assert.Equal(t, r2.Vec{X: 40, Y: -5}, s.State().Pan())

	c.PointerUp()
	assert.Equal(t, Idle, c.Mode())
	require.NoError(t, c.PointerMove(r2.Vec{X: 500, Y: 500}))
	assert.Equal(t, r2.Vec{X: 40, Y: -5}, s.State().Pan())

	// A second drag continues from the current pan.
	require.NoError(t, c.PointerDown(r2.Vec{X: 10, Y: 10}))
	require.NoError(t, c.PointerMove(r2.Vec{X: 20, Y: 20}))
	assert.Equal(t, r2.Vec{X: 50, Y: 5}, s.State().Pan())

	c.PointerLeave()
	assert.Equal(t, Idle, c.Mode())
	assert.Equal(t, "idle", c.Mode().String())
}

func TestControllerSetDeviceEndsDrag(t *testing.T) {
	s := newTestSession(t)
	c := NewController(s)
	require.NoError(t, s.Load(solidSource(t, 40, 20, color.RGBA{R: 255, A: 255})))

	require.NoError(t, c.PointerDown(r2.Vec{X: 5, Y: 5}))
	require.NoError(t, c.PointerMove(r2.Vec{X: 25, Y: 5}))
	require.NoError(t, c.SetDevice(device.Product))
	assert.Equal(t, Idle, c.Mode())
	assert.True(t, s.State().IsIdentity())
	assert.Equal(t, goimage.Rect(0, 0, 100, 100), s.Surface().Bounds())
}

func TestControllerRotateCycle(t *testing.T) {
	s := newTestSession(t)
	c := NewController(s)
	require.NoError(t, s.Load(solidSource(t, 40, 20, color.RGBA{R: 255, A: 255})))
	before := append([]byte(nil), s.Surface().Image().Pix...)

	for i := 0; i < 4; i++ {
		require.NoError(t, c.Rotate90())
	}
	assert.True(t, s.State().IsIdentity())
	assert.Equal(t, before, s.Surface().Image().Pix)
}

func TestControllerResize(t *testing.T) {
	s := newTestSession(t)
	c := NewController(s)
	assert.ErrorIs(t, c.Resize(geometry.NewSize(-1, 10)), transform.ErrInvalidViewport)
	require.NoError(t, c.Resize(geometry.NewSize(800, 450)))
	assert.Equal(t, geometry.NewSize(800, 450), s.Viewport())
}

// quadrantSource is red on the left half, blue on the right half, with
// green added to the top half.
func quadrantSource(t *testing.T, w, h int) *image.Source {
	t.Helper()
	img := goimage.NewRGBA(goimage.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.RGBA{A: 255}
			if x < w/2 {
				c.R = 255
			} else {
				c.B = 255
			}
			if y < h/2 {
				c.G = 255
			}
			img.SetRGBA(x, y, c)
		}
	}
	src, err := image.NewSource(img, "quadrants")
	require.NoError(t, err)
	return src
}

func assertNear(t *testing.T, want, got color.RGBA) {
	t.Helper()
	const tol = 2
	diff := func(a, b uint8) int {
		if a > b {
			return int(a - b)
		}
		return int(b - a)
	}
	assert.True(t,
		diff(want.R, got.R) <= tol && diff(want.G, got.G) <= tol &&
			diff(want.B, got.B) <= tol && diff(want.A, got.A) <= tol,
		"want %v, got %v", want, got)
}

func TestMobileBannerScenario(t *testing.T) {
	if testing.Short() {
		t.Skip("renders a full resolution mobile banner")
	}
	s := NewSession(device.DefaultPolicy(), image.NewRenderer(nil, nil), image.NewExporter(image.FormatJPEG, 95))
	c := NewController(s)

	require.NoError(t, s.Load(quadrantSource(t, 4000, 3000)))
	require.NoError(t, c.SetDevice(device.Mobile))
	require.NoError(t, c.Resize(geometry.NewSize(400, 711.11)))
	require.NoError(t, c.SetZoom(150))
	require.NoError(t, c.Rotate90())
	require.NoError(t, c.PointerDown(r2.Vec{X: 200, Y: 300}))
	require.NoError(t, c.PointerMove(r2.Vec{X: 250, Y: 270}))
	c.PointerUp()

	st := s.State()
	assert.Equal(t, 150.0, st.Zoom())
	assert.Equal(t, r2.Vec{X: 50, Y: -30}, st.Pan())

	// The pan maps to about (135, -81) output pixels, so the source center
	// lands near (675, 879). A quarter turn sends source +x to output +y.
	img := s.Surface().Image()
	require.Equal(t, goimage.Rect(0, 0, 1080, 1920), img.Bounds())
	assertNear(t, color.RGBA{R: 255, A: 255}, img.RGBAAt(655, 859))
	assertNear(t, color.RGBA{R: 255, G: 255, A: 255}, img.RGBAAt(695, 859))
	assertNear(t, color.RGBA{G: 255, B: 255, A: 255}, img.RGBAAt(695, 899))
	assertNear(t, color.RGBA{B: 255, A: 255}, img.RGBAAt(655, 899))

	asset, err := s.Export()
	require.NoError(t, err)
	assert.Equal(t, "banner_mobile.jpg", asset.FileName())
	assert.Equal(t, "image/jpeg", asset.ContentType())

	cfg, format, err := goimage.DecodeConfig(bytes.NewReader(asset.Data))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 1080, cfg.Width)
	assert.Equal(t, 1920, cfg.Height)
}
