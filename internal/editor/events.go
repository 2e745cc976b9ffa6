package editor

// EventType identifies editing session events.
type EventType int

const (
	EventSourceLoaded EventType = iota
	EventDeviceChanged
	EventRendered
	EventClosed
)

func (e EventType) String() string {
	switch e {
	case EventSourceLoaded:
		return "source-loaded"
	case EventDeviceChanged:
		return "device-changed"
	case EventRendered:
		return "rendered"
	case EventClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// EventListener is called when an event occurs.
type EventListener func(data interface{})

// On registers an event listener for the specified event type.
func (s *Session) On(event EventType, listener EventListener) {
	s.lmu.Lock()
	defer s.lmu.Unlock()
	s.listeners[event] = append(s.listeners[event], listener)
}

// OnRender registers fn to receive the surface after every render pass.
func (s *Session) OnRender(fn func(*Snapshot)) {
	s.On(EventRendered, func(data interface{}) {
		if snap, ok := data.(*Snapshot); ok {
			fn(snap)
		}
	})
}

// Emit triggers all listeners for the specified event type.
func (s *Session) Emit(event EventType, data interface{}) {
	s.lmu.RLock()
	listeners := s.listeners[event]
	s.lmu.RUnlock()

	for _, listener := range listeners {
		listener(data)
	}
}
