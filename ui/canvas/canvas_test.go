package canvas

import (
	goimage "image"
	"image/color"
	"testing"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"banner-editor/internal/device"
	"banner-editor/internal/editor"
	"banner-editor/internal/image"
)

func TestFitView(t *testing.T) {
	policy := device.DefaultPolicy()

	pos, size := fitView(fyne.NewSize(800, 600), policy.Variant(device.Desktop))
	assert.Equal(t, fyne.NewSize(800, 450), size)
	assert.Equal(t, fyne.NewPos(0, 75), pos)

	pos, size = fitView(fyne.NewSize(800, 600), policy.Variant(device.Mobile))
	assert.InDelta(t, 337.5, size.Width, 0.01)
	assert.Equal(t, float32(600), size.Height)
	assert.InDelta(t, 231.25, pos.X, 0.01)

	_, size = fitView(fyne.NewSize(0, 0), policy.Variant(device.Product))
	assert.Equal(t, fyne.Size{}, size)
}

func TestThirds(t *testing.T) {
	a, b := thirds(300)
	assert.Equal(t, float32(100), a)
	assert.Equal(t, float32(200), b)
}

func newTestCanvas(t *testing.T) (*CropCanvas, *editor.Session) {
	t.Helper()
	test.NewApp()
	policy, err := device.NewPolicy([]device.Override{{Key: device.Desktop, OutputWidth: 32}})
	require.NoError(t, err)
	session := editor.NewSession(policy, nil, image.NewExporter(image.FormatPNG, 0))
	return NewCropCanvas(editor.NewController(session)), session
}

func loadSolid(t *testing.T, s *editor.Session) {
	t.Helper()
	img := goimage.NewRGBA(goimage.Rect(0, 0, 64, 36))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+3] = 0xff, 0xff
	}
	src, err := image.NewSource(img, "red")
	require.NoError(t, err)
	require.NoError(t, s.Load(src))
}

func TestCropCanvasShowsCopyOfSurface(t *testing.T) {
	cc, session := newTestCanvas(t)
	loadSolid(t, session)

	shown := cc.image.Image
	require.NotNil(t, shown)
	assert.NotSame(t, session.Surface().Image(), shown)
	assert.Equal(t, session.Surface().Bounds(), shown.Bounds())

	r, g, b, a := shown.At(10, 10).RGBA()
	assert.Equal(t, []uint32{0xffff, 0, 0, 0xffff}, []uint32{r, g, b, a})

	require.NoError(t, session.SetZoom(25))
	assert.NotSame(t, shown, cc.image.Image)
	// The earlier copy is untouched by the new render.
	r, g, b, a = shown.At(0, 0).RGBA()
	assert.Equal(t, []uint32{0xffff, 0, 0, 0xffff}, []uint32{r, g, b, a})
	assert.Equal(t, color.NRGBAModel.Convert(image.DefaultBackground), cc.image.Image.At(0, 0))
}

func TestCropCanvasDispatchesInput(t *testing.T) {
	cc, session := newTestCanvas(t)
	loadSolid(t, session)

	var queued []func()
	cc.SetDispatcher(func(fn func()) { queued = append(queued, fn) })
	var zoomed []float64
	cc.OnZoomChange(func(p float64) { zoomed = append(zoomed, p) })

	cc.MouseDown(&desktop.MouseEvent{Button: desktop.MouseButtonPrimary})
	cc.Dragged(&fyne.DragEvent{PointEvent: fyne.PointEvent{Position: fyne.NewPos(5, 3)}})
	cc.DragEnd()
	cc.Scrolled(&fyne.ScrollEvent{Scrolled: fyne.Delta{DY: 1}})

	require.Len(t, queued, 4)
	assert.Equal(t, 100.0, session.State().Zoom(), "nothing runs until dispatched")

	for _, fn := range queued {
		fn()
	}
	assert.Equal(t, 5.0, session.State().Pan().X)
	assert.Equal(t, 3.0, session.State().Pan().Y)
	assert.Equal(t, editor.Idle, cc.controller.Mode())
	assert.Equal(t, []float64{110}, zoomed)
}

func TestCropCanvasScrollWithoutSource(t *testing.T) {
	cc, session := newTestCanvas(t)
	called := false
	cc.OnZoomChange(func(float64) { called = true })

	cc.Scrolled(&fyne.ScrollEvent{Scrolled: fyne.Delta{DY: -1}})
	assert.False(t, called)
	assert.Equal(t, 100.0, session.State().Zoom())
}
