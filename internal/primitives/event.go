// Event provides the immutable event primitive for chart transitions.
//
// Events are value types. Data carries the event payload (for example the
// snap target of a SNAP event) and must not be mutated after construction.
//
// Example:
//
//	event := NewEvent("SNAP", SnapData{Y: 120, Velocity: 2})
package primitives

import "strings"

// Internal event type prefixes produced by the runtime, never by callers.
const (
	DoneInvokePrefix  = "done.invoke."
	ErrorInvokePrefix = "error.invoke."
	DoneStatePrefix   = "done.state."
)

type Event struct {
	Type string `json:"type" yaml:"type"`
	Data any    `json:"data,omitempty" yaml:"data,omitempty"`
}

// NewEvent creates and returns a new immutable Event.
func NewEvent(eventType string, data any) Event {
	return Event{
		Type: eventType,
		Data: data,
	}
}

// IsInternal reports whether the event was raised by the runtime itself
// (effect completion, effect failure, final-state resolution).
func (e Event) IsInternal() bool {
	return strings.HasPrefix(e.Type, DoneInvokePrefix) ||
		strings.HasPrefix(e.Type, ErrorInvokePrefix) ||
		strings.HasPrefix(e.Type, DoneStatePrefix)
}
