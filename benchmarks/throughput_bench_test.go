// Package benchmarks provides performance benchmarks for event throughput.
package benchmarks

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/comalice/sheetx"
)

// BenchmarkDragRelease measures full drag, snap and settle cycles.
func BenchmarkDragRelease(b *testing.B) {
	c := OpenController(b)
	ctx := context.Background()
	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if err := DragRelease(ctx, c, float64(i%400)); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkDispatchIgnored measures the synchronous round trip of an event
// the current phase ignores.
func BenchmarkDispatchIgnored(b *testing.B) {
	c := StartController(b)
	ctx := context.Background()
	e := sheetx.DragEvent()
	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if err := c.Dispatch(ctx, e); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkSendThroughput(b *testing.B) {
	c := StartController(b, sheetx.WithQueueSize(10000))
	e := sheetx.DragEvent()
	numWorkers := 8
	eventsPerWorker := b.N / numWorkers
	if eventsPerWorker == 0 {
		eventsPerWorker = 1
	}
	var wg sync.WaitGroup
	var successfulSends, failedSends int64
	b.ResetTimer()
	b.ReportAllocs()
	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < eventsPerWorker; i++ {
				if err := c.Send(e); err != nil {
					if errors.Is(err, sheetx.ErrQueueFull) {
						atomic.AddInt64(&failedSends, 1)
						return // Stop this worker on backpressure
					}
					b.Error(err)
					return
				}
				atomic.AddInt64(&successfulSends, 1)
			}
		}()
	}
	wg.Wait()
	if failed := atomic.LoadInt64(&failedSends); failed > 0 {
		b.Logf("Hit backpressure: %d successful, %d failed", atomic.LoadInt64(&successfulSends), failed)
	}
	b.ReportMetric(float64(atomic.LoadInt64(&successfulSends))/b.Elapsed().Seconds(), "events/sec")
}
