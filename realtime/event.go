package realtime

import (
	"sort"

	"github.com/comalice/sheetx"
)

// EventWithMeta adds sequencing metadata for deterministic ordering
type EventWithMeta struct {
	Event       sheetx.Event
	SequenceNum uint64
	Priority    int
}

// sortEvents orders events deterministically
func sortEvents(events []EventWithMeta) {
	// Stable sort preserves insertion order for equal priorities
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].Priority != events[j].Priority {
			return events[i].Priority > events[j].Priority
		}
		return events[i].SequenceNum < events[j].SequenceNum
	})
}

// coalesce drops a DRAG event that directly follows another DRAG. RESIZE is
// never merged: each one restarts resizing and fires onResizeCancel.
// It returns the kept events and the number dropped.
func coalesce(events []EventWithMeta) ([]EventWithMeta, int) {
	if len(events) < 2 {
		return events, 0
	}
	kept := events[:1]
	for _, e := range events[1:] {
		prev := kept[len(kept)-1].Event.Type
		if e.Event.Type == prev && coalescable(prev) {
			continue
		}
		kept = append(kept, e)
	}
	return kept, len(events) - len(kept)
}

func coalescable(eventType string) bool {
	return eventType == sheetx.EventDrag
}
