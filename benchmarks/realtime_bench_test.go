package benchmarks

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/comalice/sheetx"
	"github.com/comalice/sheetx/realtime"
)

// Realtime runtime benchmarks
//
// These measure tick processing when a drag burst lands inside one frame:
// coalescing keeps the dispatched count at one DRAG per frame.

func BenchmarkTickCoalescedBurst(b *testing.B) {
	for _, burst := range []int{1, 10, 100} {
		b.Run(fmt.Sprintf("burst=%d", burst), func(b *testing.B) {
			c := OpenController(b)
			rt := realtime.NewRuntime(c, realtime.Config{MaxEventsPerTick: burst + 1, Logger: quiet})
			ctx := context.Background()
			b.ResetTimer()
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				for j := 0; j < burst; j++ {
					if err := rt.SendEvent(sheetx.DragEvent()); err != nil {
						b.Fatal(err)
					}
				}
				rt.Tick(ctx)
			}
			b.ReportMetric(float64(rt.Coalesced())/float64(b.N), "coalesced/tick")
		})
	}
}

// BenchmarkRealtimeLatency measures SendEvent to observed state change
// through a running tick loop.
func BenchmarkRealtimeLatency(b *testing.B) {
	c := OpenController(b)
	rt := realtime.NewRuntime(c, realtime.Config{TickRate: time.Millisecond, Logger: quiet})
	ctx := context.Background()
	if err := rt.Start(ctx); err != nil {
		b.Fatal(err)
	}
	defer rt.Stop()

	var total time.Duration
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		start := time.Now()
		if err := rt.SendEvent(sheetx.DragEvent()); err != nil {
			b.Fatal(err)
		}
		if err := c.AwaitState(ctx, "dragging"); err != nil {
			b.Fatal(err)
		}
		total += time.Since(start)
		if err := rt.SendEvent(sheetx.SnapEvent(sheetx.SnapPayload{Y: 1})); err != nil {
			b.Fatal(err)
		}
		if err := c.AwaitState(ctx, "open"); err != nil {
			b.Fatal(err)
		}
	}
	b.ReportMetric(float64(total.Microseconds())/float64(b.N), "µs/dispatch")
}
