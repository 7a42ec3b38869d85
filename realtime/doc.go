// Package realtime provides a frame-batched dispatcher for sheetx controllers.
//
// Gesture input arrives far faster than a sheet can react to it. The
// realtime Runtime collects events between frames and hands them to the
// controller once per tick:
//   - Events are batched and dispatched at fixed tick boundaries
//   - Deterministic ordering via priority, then sequence number
//   - Adjacent duplicate DRAG events in one batch are coalesced
//   - Each event is dispatched synchronously, so a tick ends only after the
//     controller has processed its whole batch
//
// # Example Usage
//
//	c, _ := sheetx.New(host)
//	c.Start(ctx)
//	rt := realtime.NewRuntime(c, realtime.Config{
//		TickRate: 16667 * time.Microsecond, // 60 FPS
//	})
//	rt.Start(ctx)
//	rt.SendEvent(sheetx.DragEvent())
//
// # Event Ordering Guarantees
//
// Events are ordered deterministically using:
//  1. Priority (higher priority processed first)
//  2. Sequence number (FIFO for same priority)
//  3. Stable sorting (preserves relative order)
//
// Coalescing runs after sorting, so a CLOSE sent with a higher priority
// than a burst of DRAG events is dispatched first and the burst collapses
// to one DRAG.
//
// Tick may be called directly instead of Start to step frames by hand,
// which is how replays and tests drive the runtime.
package realtime
