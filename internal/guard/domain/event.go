package domain

// EventType names the browser events the engine reacts to.
type EventType string

const (
	EventClick      EventType = "click"
	EventMouseDown  EventType = "mousedown"
	EventTouchStart EventType = "touchstart"
	EventKeyDown    EventType = "keydown"
	EventSubmit     EventType = "submit"
)

// InteractionEvents are the input types that count as user interaction.
var InteractionEvents = []EventType{EventClick, EventMouseDown, EventTouchStart, EventKeyDown, EventSubmit}

// IsInteraction reports whether t is one of InteractionEvents.
func (t EventType) IsInteraction() bool {
	for _, it := range InteractionEvents {
		if t == it {
			return true
		}
	}
	return false
}

// InputEvent is a capture-phase input event as seen by the engine.
// Trusted mirrors the browser's isTrusted flag: true only for events the
// user agent generated from real device input.
type InputEvent struct {
	Type    EventType
	Trusted bool
	Target  *Element

	defaultPrevented   bool
	propagationStopped bool
}

// PreventDefault cancels the event's default action.
func (e *InputEvent) PreventDefault() { e.defaultPrevented = true }

// StopPropagation stops the event from reaching further listeners.
func (e *InputEvent) StopPropagation() { e.propagationStopped = true }

// DefaultPrevented reports whether PreventDefault was called.
func (e *InputEvent) DefaultPrevented() bool { return e.defaultPrevented }

// PropagationStopped reports whether StopPropagation was called.
func (e *InputEvent) PropagationStopped() bool { return e.propagationStopped }
