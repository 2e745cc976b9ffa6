// Package editor ties an image source, per-device transform state and the
// render engine into an interactive editing session.
package editor

import (
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/spatial/r2"

	"banner-editor/internal/device"
	"banner-editor/internal/image"
	"banner-editor/internal/transform"
)

// ErrNoSource is returned when an operation needs a loaded image.
var ErrNoSource = errors.New("no source image loaded")

// Snapshot describes the result of one render pass.
type Snapshot struct {
	Device  device.Key
	State   transform.State
	Surface *image.Surface

	// Coverage is the fraction of the frame showing the source rather
	// than background.
	Coverage float64
}

// Session holds the editing state for one source image. Only the active
// device's transform is kept; switching devices starts from the defaults.
type Session struct {
	mu sync.Mutex

	policy   device.Policy
	renderer *image.Renderer
	exporter image.Exporter

	source   *image.Source
	active   device.Key
	state    transform.State
	viewport transform.Viewport
	surface  *image.Surface

	lmu       sync.RWMutex
	listeners map[EventType][]EventListener
}

// NewSession creates an empty session editing the desktop variant.
func NewSession(policy device.Policy, renderer *image.Renderer, exporter image.Exporter) *Session {
	if renderer == nil {
		renderer = image.NewRenderer(nil, nil)
	}
	return &Session{
		policy:    policy,
		renderer:  renderer,
		exporter:  exporter,
		active:    device.Desktop,
		state:     transform.NewState(),
		listeners: make(map[EventType][]EventListener),
	}
}

// Load replaces the source image, resets the transform and renders.
func (s *Session) Load(src *image.Source) error {
	if !src.Ready() {
		return image.ErrSourceNotReady
	}
	s.mu.Lock()
	s.source = src
	s.state.Reset()
	s.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"source": src.Name,
		"width":  src.Width(),
		"height": src.Height(),
	}).Info("Loaded source image")
	s.Emit(EventSourceLoaded, src)
	return s.Render()
}

// Source returns the loaded image, or nil.
func (s *Session) Source() *image.Source {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.source
}

// Device returns the active device key.
func (s *Session) Device() device.Key {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Variant returns the active device variant.
func (s *Session) Variant() device.Variant {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.policy.Variant(s.active)
}

// Policy returns the device policy the session was created with.
func (s *Session) Policy() device.Policy {
	return s.policy
}

// State returns a copy of the active transform state.
func (s *Session) State() transform.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Viewport returns the current display size. Before the view has reported
// a size, this is the active variant's output size.
func (s *Session) Viewport() transform.Viewport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewportLocked()
}

func (s *Session) viewportLocked() transform.Viewport {
	if s.viewport.Valid() {
		return s.viewport
	}
	return transform.OutputViewport(s.policy.Variant(s.active))
}

// Surface returns the most recently rendered surface, or nil.
func (s *Session) Surface() *image.Surface {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.surface
}

// SetDevice switches the active device. The transform is reset and, when a
// source is loaded, the new variant is rendered.
func (s *Session) SetDevice(k device.Key) error {
	if !k.Valid() {
		return fmt.Errorf("%w: %d", device.ErrUnknownKey, int(k))
	}
	s.mu.Lock()
	changed := s.active != k
	s.active = k
	s.state.Reset()
	if changed {
		s.surface = nil
	}
	hasSource := s.source != nil
	s.mu.Unlock()

	if changed {
		logrus.WithField("device", k.String()).Info("Switched device")
		s.Emit(EventDeviceChanged, k)
	}
	if !hasSource {
		return nil
	}
	return s.Render()
}

// SetViewport records the size the editing view occupies on screen. The
// stored pan is left as is; the next render maps it with the new size.
func (s *Session) SetViewport(vp transform.Viewport) error {
	if !vp.Valid() {
		return fmt.Errorf("%w: %gx%g", transform.ErrInvalidViewport, vp.Width, vp.Height)
	}
	s.mu.Lock()
	s.viewport = vp
	hasSource := s.source != nil
	s.mu.Unlock()
	if !hasSource {
		return nil
	}
	return s.Render()
}

// SetZoom sets the zoom percentage and renders.
func (s *Session) SetZoom(percent float64) error {
	return s.mutate(func(st *transform.State) { st.SetZoom(percent) })
}

// Rotate90 adds a quarter turn and renders.
func (s *Session) Rotate90() error {
	return s.mutate(func(st *transform.State) { st.Rotate90() })
}

// SetPan replaces the pan offset (display pixels) and renders.
func (s *Session) SetPan(p r2.Vec) error {
	return s.mutate(func(st *transform.State) { st.SetPan(p) })
}

// Reset returns the active transform to its defaults and renders.
func (s *Session) Reset() error {
	return s.mutate(func(st *transform.State) { st.Reset() })
}

func (s *Session) mutate(fn func(*transform.State)) error {
	s.mu.Lock()
	if s.source == nil {
		s.mu.Unlock()
		return ErrNoSource
	}
	fn(&s.state)
	s.mu.Unlock()
	return s.Render()
}

// Render runs one render pass for the active device and notifies
// EventRendered listeners.
func (s *Session) Render() error {
	s.mu.Lock()
	if s.source == nil {
		s.mu.Unlock()
		return ErrNoSource
	}
	v := s.policy.Variant(s.active)
	vp := s.viewportLocked()
	surf, err := s.renderer.Render(s.surface, s.source, s.state, v, vp)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.surface = surf
	coverage, err := transform.Coverage(s.state, s.source.Width(), s.source.Height(), v, vp)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	snap := &Snapshot{Device: s.active, State: s.state, Surface: surf, Coverage: coverage}
	s.mu.Unlock()

	s.Emit(EventRendered, snap)
	return nil
}

// Export encodes the current surface for the active device.
func (s *Session) Export() (*image.CroppedAsset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.source == nil {
		return nil, ErrNoSource
	}
	return s.exporter.Export(s.surface)
}

// Close discards the source, transform and surface.
func (s *Session) Close() {
	s.mu.Lock()
	s.source = nil
	s.surface = nil
	s.state.Reset()
	s.mu.Unlock()

	logrus.Debug("Closed editing session")
	s.Emit(EventClosed, nil)
}
