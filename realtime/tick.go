package realtime

import (
	"context"
	"fmt"
)

// Tick processes one batch: collect, sort, coalesce, then dispatch each
// event in order. It returns the number of events dispatched.
func (rt *Runtime) Tick(ctx context.Context) int {
	// Phase 1: Collect events atomically
	events := rt.collectEvents()

	// Phase 2: Sort for deterministic order
	sortEvents(events)

	// Phase 3: Collapse gesture bursts
	events, dropped := coalesce(events)

	// Phase 4: Dispatch through the controller
	rt.processEvents(ctx, events)

	rt.batchMu.Lock()
	rt.tickNum++
	rt.coalesced += uint64(dropped)
	rt.batchMu.Unlock()
	return len(events)
}

// collectEvents atomically retrieves and clears the event batch
func (rt *Runtime) collectEvents() []EventWithMeta {
	rt.batchMu.Lock()
	defer rt.batchMu.Unlock()

	events := rt.eventBatch
	rt.eventBatch = make([]EventWithMeta, 0, cap(rt.eventBatch))

	return events
}

func (rt *Runtime) processEvents(ctx context.Context, events []EventWithMeta) {
	for _, meta := range events {
		if err := rt.target.Dispatch(ctx, meta.Event); err != nil {
			rt.report(fmt.Errorf("tick %d: dispatch %s (seq %d): %w", rt.GetTickNumber(), meta.Event.Type, meta.SequenceNum, err))
		}
	}
}
