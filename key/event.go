package key

import "fmt"

// State holds the keyswitch state bits of an event.
type State uint8

const (
	IsPressed  State = 1 << 0
	WasPressed State = 1 << 1
	// Injected marks events that did not come from the physical matrix.
	Injected State = 1 << 4
)

// ToggledOn reports a press edge.
func (s State) ToggledOn() bool { return s&IsPressed != 0 && s&WasPressed == 0 }

// ToggledOff reports a release edge.
func (s State) ToggledOff() bool { return s&IsPressed == 0 && s&WasPressed != 0 }

// IsToggle reports whether s is a press or release edge.
func (s State) IsToggle() bool { return s.ToggledOn() || s.ToggledOff() }

// IsInjected reports whether the Injected bit is set.
func (s State) IsInjected() bool { return s&Injected != 0 }

func (s State) String() string {
	var edge string
	switch {
	case s.ToggledOn():
		edge = "press"
	case s.ToggledOff():
		edge = "release"
	case s&IsPressed != 0:
		edge = "held"
	default:
		edge = "idle"
	}
	if s.IsInjected() {
		return edge + "+injected"
	}
	return edge
}

// Event is one pass of a key through the pipeline.
type Event struct {
	Addr  Addr
	Key   Key
	State State
}

// Press is a physical press at a with the key still to be looked up.
func Press(a Addr) Event {
	return Event{Addr: a, Key: Undefined, State: IsPressed}
}

// Release is a physical release at a.
func Release(a Addr) Event {
	return Event{Addr: a, Key: Undefined, State: WasPressed}
}

// SyntheticEvent builds an injected event for k that is not bound to any address.
func SyntheticEvent(k Key, pressed bool) Event {
	s := WasPressed | Injected
	if pressed {
		s = IsPressed | Injected
	}
	return Event{Addr: AddrNone, Key: k, State: s}
}

func (e Event) String() string {
	return fmt.Sprintf("%s %s %s", e.State, e.Addr, e.Key)
}
