package sheetx

import (
	"github.com/comalice/sheetx/internal/primitives"
)

// Event is a chart event. Data carries the SNAP payload; other events carry none.
type Event = primitives.Event

// Event types accepted by the overlay controller.
const (
	EventOpen   = "OPEN"
	EventClose  = "CLOSE"
	EventDrag   = "DRAG"
	EventResize = "RESIZE"
	EventSnap   = "SNAP"
)

// Snap sources. Any other string supplied by the caller is kept verbatim.
const (
	SnapSourceDragging = "dragging"
	SnapSourceCustom   = "custom"
)

// SnapPayload is the data carried by a SNAP event.
type SnapPayload struct {
	Y        float64 `json:"y" yaml:"y"`
	Velocity float64 `json:"velocity" yaml:"velocity"`
	Source   string  `json:"source,omitempty" yaml:"source,omitempty"`
}

func OpenEvent() Event   { return primitives.NewEvent(EventOpen, nil) }
func CloseEvent() Event  { return primitives.NewEvent(EventClose, nil) }
func DragEvent() Event   { return primitives.NewEvent(EventDrag, nil) }
func ResizeEvent() Event { return primitives.NewEvent(EventResize, nil) }

// SnapEvent builds a SNAP event. An empty source defaults to SnapSourceCustom.
func SnapEvent(p SnapPayload) Event {
	if p.Source == "" {
		p.Source = SnapSourceCustom
	}
	return primitives.NewEvent(EventSnap, p)
}

// snapPayload extracts the SNAP payload from evt. Payloads decoded from
// scenario files or JSON arrive as maps.
func snapPayload(evt Event) (SnapPayload, bool) {
	switch d := evt.Data.(type) {
	case SnapPayload:
		return d, true
	case *SnapPayload:
		if d == nil {
			return SnapPayload{}, false
		}
		return *d, true
	case map[string]any:
		var p SnapPayload
		p.Y = toFloat(d["y"])
		p.Velocity = toFloat(d["velocity"])
		p.Source, _ = d["source"].(string)
		return p, true
	default:
		return SnapPayload{}, false
	}
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	default:
		return 0
	}
}
