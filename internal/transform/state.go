// Package transform holds the user-controlled pan/zoom/rotation of an image
// inside the crop frame, and the mapping between display and output space.
package transform

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Zoom limits in percent.
const (
	MinZoom     = 10.0
	MaxZoom     = 300.0
	DefaultZoom = 100.0
)

// Quarter is a rotation restricted to right angles, in degrees.
type Quarter int

const (
	Rotate0   Quarter = 0
	Rotate90  Quarter = 90
	Rotate180 Quarter = 180
	Rotate270 Quarter = 270
)

// Turns returns the number of clockwise quarter turns.
func (q Quarter) Turns() int {
	return int(q) / 90
}

func (q Quarter) String() string {
	return fmt.Sprintf("%d°", int(q))
}

// State is the pan/zoom/rotation of the source image. Pan is in display
// space pixels, i.e. the units of the pointer events that produced it.
type State struct {
	zoom     float64
	rotation Quarter
	pan      r2.Vec
}

// NewState returns a state at zoom 100%, no rotation, no pan.
func NewState() State {
	return State{zoom: DefaultZoom}
}

// Reset returns the state to its defaults.
func (s *State) Reset() {
	*s = NewState()
}

// Zoom returns the zoom in percent.
func (s State) Zoom() float64 {
	if s.zoom == 0 {
		return DefaultZoom
	}
	return s.zoom
}

// Scale returns the zoom as a multiplier.
func (s State) Scale() float64 {
	return s.Zoom() / 100
}

// Rotation returns the rotation.
func (s State) Rotation() Quarter {
	return s.rotation
}

// Pan returns the accumulated pan in display pixels.
func (s State) Pan() r2.Vec {
	return s.pan
}

// SetZoom sets the zoom in percent, saturating at MinZoom and MaxZoom.
func (s *State) SetZoom(percent float64) {
	switch {
	case math.IsNaN(percent):
		percent = DefaultZoom
	case percent < MinZoom:
		percent = MinZoom
	case percent > MaxZoom:
		percent = MaxZoom
	}
	s.zoom = percent
}

// Rotate90 rotates a further quarter turn clockwise.
func (s *State) Rotate90() {
	s.rotation = (s.rotation + Rotate90) % 360
}

// PanBy moves the image by (dx, dy) display pixels. The image may be moved
// entirely out of the frame.
func (s *State) PanBy(dx, dy float64) {
	s.pan = r2.Add(s.pan, r2.Vec{X: dx, Y: dy})
}

// SetPan replaces the pan offset.
func (s *State) SetPan(p r2.Vec) {
	s.pan = p
}

// IsIdentity reports whether the state is at its defaults.
func (s State) IsIdentity() bool {
	return s.Zoom() == DefaultZoom && s.rotation == Rotate0 && s.pan == (r2.Vec{})
}

func (s State) String() string {
	return fmt.Sprintf("zoom=%.0f%% rotation=%s pan=(%.1f,%.1f)", s.Zoom(), s.rotation, s.pan.X, s.pan.Y)
}
