package editor

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r2"

	"banner-editor/internal/device"
	"banner-editor/internal/transform"
)

// Mode is the pointer interaction mode.
type Mode int

const (
	Idle Mode = iota
	Dragging
)

func (m Mode) String() string {
	if m == Dragging {
		return "dragging"
	}
	return "idle"
}

// Controller turns pointer and control input into session mutations.
// Pointer positions are in display pixels of the editing view.
type Controller struct {
	session *Session
	mode    Mode
	anchor  r2.Vec
}

// NewController creates a controller driving s.
func NewController(s *Session) *Controller {
	return &Controller{session: s}
}

// Session returns the session the controller drives.
func (c *Controller) Session() *Session {
	return c.session
}

// Mode returns the current interaction mode.
func (c *Controller) Mode() Mode {
	return c.mode
}

// PointerDown starts a drag at p.
func (c *Controller) PointerDown(p r2.Vec) error {
	if c.session.Source() == nil {
		return ErrNoSource
	}
	c.anchor = r2.Sub(p, c.session.State().Pan())
	c.mode = Dragging
	return nil
}

// PointerMove pans the image so it follows the pointer. Moves while idle
// are ignored.
func (c *Controller) PointerMove(p r2.Vec) error {
	if c.mode != Dragging {
		return nil
	}
	return c.session.SetPan(r2.Sub(p, c.anchor))
}

// PointerUp ends a drag.
func (c *Controller) PointerUp() {
	c.mode = Idle
}

// PointerLeave ends a drag when the pointer exits the view.
func (c *Controller) PointerLeave() {
	c.mode = Idle
}

// SetZoom sets the zoom percentage.
func (c *Controller) SetZoom(percent float64) error {
	return c.session.SetZoom(percent)
}

// Rotate90 rotates a quarter turn clockwise.
func (c *Controller) Rotate90() error {
	return c.session.Rotate90()
}

// Resize records a new display size for the editing view.
func (c *Controller) Resize(vp transform.Viewport) error {
	if err := c.session.SetViewport(vp); err != nil {
		return fmt.Errorf("failed to resize view: %w", err)
	}
	return nil
}

// SetDevice ends any drag and switches the session to k.
func (c *Controller) SetDevice(k device.Key) error {
	c.mode = Idle
	return c.session.SetDevice(k)
}
