package extensibility

import (
	"sync"
	"time"

	"github.com/comalice/sheetx/internal/primitives"
)

// ChannelEventSource is an EventSource implementation backed by a Go channel.
// Provides a simple way to feed external events into the Machine via Send().
type ChannelEventSource struct {
	ch chan primitives.Event
}

// Events returns the receive-only channel for events.
func (s *ChannelEventSource) Events() <-chan primitives.Event {
	return s.ch
}

// NewChannelEventSource creates a new ChannelEventSource with the given channel.
// The channel should be buffered if backpressure handling is needed.
func NewChannelEventSource(ch chan primitives.Event) *ChannelEventSource {
	return &ChannelEventSource{ch: ch}
}

// TimerEventSource emits generated events on a fixed interval, e.g. a stream
// of DRAG positions. The n-th event (from 0) is next(n). With a positive
// count the source closes its channel after count events.
type TimerEventSource struct {
	ch       chan primitives.Event
	next     func(n int) primitives.Event
	count    int
	ticker   *time.Ticker
	stop     chan struct{}
	stopOnce sync.Once
}

// NewTimerEventSource creates a TimerEventSource that emits an event every d.
func NewTimerEventSource(d time.Duration, count int, next func(n int) primitives.Event) *TimerEventSource {
	t := &TimerEventSource{
		ch:     make(chan primitives.Event, 10),
		next:   next,
		count:  count,
		ticker: time.NewTicker(d),
		stop:   make(chan struct{}),
	}
	go t.run()
	return t
}

func (t *TimerEventSource) run() {
	defer close(t.ch)
	defer t.ticker.Stop()
	for n := 0; t.count <= 0 || n < t.count; {
		select {
		case <-t.ticker.C:
			select {
			case t.ch <- t.next(n):
				n++
			default:
				// drop if full
			}
		case <-t.stop:
			return
		}
	}
}

// Events returns the event channel.
func (t *TimerEventSource) Events() <-chan primitives.Event {
	return t.ch
}

// Stop stops the ticker and closes the channel. Safe to call more than once.
func (t *TimerEventSource) Stop() {
	t.stopOnce.Do(func() { close(t.stop) })
}
