// Package canvas provides the interactive crop view: the rendered surface
// letterboxed to the device aspect ratio, with drag to pan and wheel zoom.
package canvas

import (
	"image/color"

	"fyne.io/fyne/v2"
	fynecanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"
	"github.com/disintegration/imaging"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/spatial/r2"

	"banner-editor/internal/device"
	"banner-editor/internal/editor"
	"banner-editor/internal/transform"
)

// zoomStep is the zoom change per wheel notch, in percent.
const zoomStep = 10

var (
	frameColor   = color.NRGBA{R: 0x9c, G: 0xa3, B: 0xaf, A: 0xff}
	outsideColor = color.NRGBA{R: 0x1f, G: 0x29, B: 0x37, A: 0xff}
)

// CropCanvas shows the session's surface and forwards pointer input to the
// controller. The surface is stretched into a view that keeps the active
// variant's aspect ratio.
type CropCanvas struct {
	widget.BaseWidget

	controller *editor.Controller

	image   *fynecanvas.Image
	frame   *fynecanvas.Rectangle
	outside *fynecanvas.Rectangle
	guides  *Guides

	// Top-left of the view inside the widget, in widget coordinates.
	viewPos fyne.Position

	onZoomChange func(percent float64)

	// dispatch runs controller calls. It defaults to calling inline.
	dispatch func(func())
}

// NewCropCanvas creates a crop view driven by c.
func NewCropCanvas(c *editor.Controller) *CropCanvas {
	cc := &CropCanvas{controller: c, dispatch: func(fn func()) { fn() }}

	cc.image = fynecanvas.NewImageFromImage(nil)
	cc.image.FillMode = fynecanvas.ImageFillStretch
	cc.image.ScaleMode = fynecanvas.ImageScaleSmooth

	cc.outside = fynecanvas.NewRectangle(outsideColor)
	cc.frame = fynecanvas.NewRectangle(color.Transparent)
	cc.frame.StrokeColor = frameColor
	cc.frame.StrokeWidth = 2
	cc.guides = NewGuides()

	// The surface is redrawn in place by the next render, so the painter
	// gets its own copy.
	c.Session().OnRender(func(snap *editor.Snapshot) {
		cc.image.Image = imaging.Clone(snap.Surface.Image())
		cc.image.Refresh()
	})
	c.Session().On(editor.EventDeviceChanged, func(interface{}) {
		cc.Refresh()
	})
	c.Session().On(editor.EventClosed, func(interface{}) {
		cc.image.Image = nil
		cc.image.Refresh()
	})

	cc.ExtendBaseWidget(cc)
	return cc
}

// OnZoomChange sets a callback for wheel zoom.
func (cc *CropCanvas) OnZoomChange(callback func(percent float64)) {
	cc.onZoomChange = callback
}

// SetGuidesVisible toggles the rule-of-thirds guides.
func (cc *CropCanvas) SetGuidesVisible(visible bool) {
	cc.guides.SetVisible(visible)
}

// SetDispatcher routes every controller call through dispatch, which must
// run the calls one at a time.
func (cc *CropCanvas) SetDispatcher(dispatch func(func())) {
	cc.dispatch = dispatch
}

// toView converts a widget position to view coordinates.
func (cc *CropCanvas) toView(p fyne.Position) r2.Vec {
	return r2.Vec{X: float64(p.X - cc.viewPos.X), Y: float64(p.Y - cc.viewPos.Y)}
}

// MouseDown starts a drag.
func (cc *CropCanvas) MouseDown(ev *desktop.MouseEvent) {
	if ev.Button != desktop.MouseButtonPrimary {
		return
	}
	p := cc.toView(ev.Position)
	cc.dispatch(func() {
		if err := cc.controller.PointerDown(p); err != nil {
			logrus.WithError(err).Debug("Ignoring pointer down")
		}
	})
}

// MouseUp ends a drag.
func (cc *CropCanvas) MouseUp(*desktop.MouseEvent) {
	cc.dispatch(cc.controller.PointerUp)
}

// MouseIn implements desktop.Hoverable.
func (cc *CropCanvas) MouseIn(*desktop.MouseEvent) {}

// MouseMoved pans while a drag is active.
func (cc *CropCanvas) MouseMoved(ev *desktop.MouseEvent) {
	cc.move(ev.Position)
}

// MouseOut ends a drag when the pointer leaves the view.
func (cc *CropCanvas) MouseOut() {
	cc.dispatch(cc.controller.PointerLeave)
}

// Dragged pans while the primary button is held.
func (cc *CropCanvas) Dragged(ev *fyne.DragEvent) {
	cc.move(ev.Position)
}

// DragEnd implements fyne.Draggable.
func (cc *CropCanvas) DragEnd() {
	cc.dispatch(cc.controller.PointerUp)
}

func (cc *CropCanvas) move(pos fyne.Position) {
	p := cc.toView(pos)
	cc.dispatch(func() {
		if err := cc.controller.PointerMove(p); err != nil {
			logrus.WithError(err).Warn("Pan failed")
		}
	})
}

// Scrolled zooms with the mouse wheel.
func (cc *CropCanvas) Scrolled(ev *fyne.ScrollEvent) {
	var step float64
	switch {
	case ev.Scrolled.DY > 0:
		step = zoomStep
	case ev.Scrolled.DY < 0:
		step = -zoomStep
	default:
		return
	}
	cc.dispatch(func() {
		zoom := cc.controller.Session().State().Zoom() + step
		if err := cc.controller.SetZoom(zoom); err != nil {
			logrus.WithError(err).Debug("Ignoring wheel zoom")
			return
		}
		if cc.onZoomChange != nil {
			cc.onZoomChange(cc.controller.Session().State().Zoom())
		}
	})
}

// CreateRenderer implements fyne.Widget.
func (cc *CropCanvas) CreateRenderer() fyne.WidgetRenderer {
	return &cropCanvasRenderer{canvas: cc}
}

// fitView returns the letterboxed view rectangle for variant v inside a
// widget of the given size.
func fitView(size fyne.Size, v device.Variant) (fyne.Position, fyne.Size) {
	vp := transform.FitViewport(transform.Viewport{Width: float64(size.Width), Height: float64(size.Height)}, v)
	if !vp.Valid() {
		return fyne.Position{}, fyne.Size{}
	}
	view := fyne.NewSize(float32(vp.Width), float32(vp.Height))
	pos := fyne.NewPos((size.Width-view.Width)/2, (size.Height-view.Height)/2)
	return pos, view
}

type cropCanvasRenderer struct {
	canvas *CropCanvas
}

func (r *cropCanvasRenderer) Layout(size fyne.Size) {
	cc := r.canvas
	cc.outside.Resize(size)

	pos, view := fitView(size, cc.controller.Session().Variant())
	cc.viewPos = pos
	for _, o := range []fyne.CanvasObject{cc.image, cc.frame, cc.guides} {
		o.Move(pos)
		o.Resize(view)
	}

	if view.Width <= 0 || view.Height <= 0 {
		return
	}
	vp := transform.Viewport{Width: float64(view.Width), Height: float64(view.Height)}
	if vp == cc.controller.Session().Viewport() {
		return
	}
	cc.dispatch(func() {
		if err := cc.controller.Resize(vp); err != nil {
			logrus.WithError(err).Warn("Failed to apply view size")
		}
	})
}

func (r *cropCanvasRenderer) MinSize() fyne.Size {
	return fyne.NewSize(320, 240)
}

func (r *cropCanvasRenderer) Refresh() {
	r.Layout(r.canvas.Size())
	r.canvas.image.Refresh()
	r.canvas.frame.Refresh()
	r.canvas.guides.Refresh()
}

func (r *cropCanvasRenderer) Objects() []fyne.CanvasObject {
	cc := r.canvas
	return []fyne.CanvasObject{cc.outside, cc.image, cc.guides, cc.frame}
}

func (r *cropCanvasRenderer) Destroy() {}
