package canvas

import (
	"image/color"

	"fyne.io/fyne/v2"
	fynecanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"
)

var guideColor = color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0x80}

// Guides draws rule-of-thirds lines over the crop view.
type Guides struct {
	widget.BaseWidget
	lines   [4]*fynecanvas.Line
	visible bool
}

// NewGuides creates hidden guides.
func NewGuides() *Guides {
	g := &Guides{}
	for i := range g.lines {
		g.lines[i] = fynecanvas.NewLine(guideColor)
		g.lines[i].StrokeWidth = 1
	}
	g.ExtendBaseWidget(g)
	g.Hide()
	return g
}

// SetVisible shows or hides the guides.
func (g *Guides) SetVisible(visible bool) {
	g.visible = visible
	if visible {
		g.Show()
	} else {
		g.Hide()
	}
}

// thirds returns the two interior third positions along length.
func thirds(length float32) (float32, float32) {
	return length / 3, 2 * length / 3
}

// CreateRenderer implements fyne.Widget.
func (g *Guides) CreateRenderer() fyne.WidgetRenderer {
	objs := make([]fyne.CanvasObject, len(g.lines))
	for i, l := range g.lines {
		objs[i] = l
	}
	return &guidesRenderer{guides: g, objects: objs}
}

type guidesRenderer struct {
	guides  *Guides
	objects []fyne.CanvasObject
}

func (r *guidesRenderer) Layout(size fyne.Size) {
	x1, x2 := thirds(size.Width)
	y1, y2 := thirds(size.Height)
	l := r.guides.lines
	l[0].Position1, l[0].Position2 = fyne.NewPos(x1, 0), fyne.NewPos(x1, size.Height)
	l[1].Position1, l[1].Position2 = fyne.NewPos(x2, 0), fyne.NewPos(x2, size.Height)
	l[2].Position1, l[2].Position2 = fyne.NewPos(0, y1), fyne.NewPos(size.Width, y1)
	l[3].Position1, l[3].Position2 = fyne.NewPos(0, y2), fyne.NewPos(size.Width, y2)
}

func (r *guidesRenderer) MinSize() fyne.Size { return fyne.NewSize(0, 0) }

func (r *guidesRenderer) Refresh() {
	r.Layout(r.guides.Size())
	for _, o := range r.objects {
		o.Refresh()
	}
}

func (r *guidesRenderer) Objects() []fyne.CanvasObject { return r.objects }

func (r *guidesRenderer) Destroy() {}
