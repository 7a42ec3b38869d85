package realtime

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/comalice/sheetx"
)

// ErrQueueFull is returned when a tick's batch is at capacity.
var ErrQueueFull = errors.New("event queue full")

// Target receives batched events. *sheetx.Controller implements it.
type Target interface {
	Dispatch(ctx context.Context, evt sheetx.Event) error
}

// Runtime dispatches events to a Target at fixed tick boundaries.
type Runtime struct {
	target Target
	logger *log.Logger

	tickRate time.Duration
	ticker   *time.Ticker
	tickNum  uint64

	// Event batching
	eventBatch  []EventWithMeta
	batchMu     sync.Mutex
	sequenceNum uint64
	coalesced   uint64

	// Control. runMu guards tickCancel and ticker; a runtime starts at
	// most once.
	runMu      sync.Mutex
	tickCancel context.CancelFunc
	stopped    chan struct{}
}

// Config configures the real-time runtime
type Config struct {
	TickRate         time.Duration // Fixed tick rate (e.g., 16.67ms for 60 FPS)
	MaxEventsPerTick int           // Event queue capacity (default: 1000)
	Logger           *log.Logger   // Dispatch errors; default log.Default()
}

// NewRuntime creates a tick-based dispatcher in front of target.
func NewRuntime(target Target, cfg Config) *Runtime {
	if cfg.MaxEventsPerTick == 0 {
		cfg.MaxEventsPerTick = 1000
	}
	if cfg.TickRate == 0 {
		cfg.TickRate = 16667 * time.Microsecond // Default 60 FPS
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}

	return &Runtime{
		target:     target,
		logger:     cfg.Logger,
		tickRate:   cfg.TickRate,
		eventBatch: make([]EventWithMeta, 0, cfg.MaxEventsPerTick),
		stopped:    make(chan struct{}),
	}
}

// Start begins ticking. The target must already be started.
func (rt *Runtime) Start(ctx context.Context) error {
	rt.runMu.Lock()
	defer rt.runMu.Unlock()
	if rt.tickCancel != nil {
		return nil
	}
	tickCtx, cancel := context.WithCancel(ctx)
	rt.tickCancel = cancel
	rt.ticker = time.NewTicker(rt.tickRate)
	go rt.tickLoop(tickCtx, rt.ticker)
	return nil
}

// Stop halts the tick loop. Events still queued are discarded. Stop before
// Start is a no-op.
func (rt *Runtime) Stop() error {
	rt.runMu.Lock()
	cancel, ticker := rt.tickCancel, rt.ticker
	rt.runMu.Unlock()
	if cancel == nil {
		return nil
	}
	cancel()
	ticker.Stop()
	<-rt.stopped
	return nil
}

func (rt *Runtime) tickLoop(ctx context.Context, ticker *time.Ticker) {
	defer close(rt.stopped)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			func() {
				defer func() {
					if r := recover(); r != nil {
						rt.logger.Printf("realtime: tick panicked: %v", r)
					}
				}()
				rt.Tick(ctx)
			}()
		}
	}
}

// SendEvent queues an event for the next tick (thread-safe)
func (rt *Runtime) SendEvent(event sheetx.Event) error {
	return rt.SendEventWithPriority(event, 0)
}

// SendEventWithPriority queues an event that is dispatched before lower
// priority events of the same tick.
func (rt *Runtime) SendEventWithPriority(event sheetx.Event, priority int) error {
	rt.batchMu.Lock()
	defer rt.batchMu.Unlock()

	if len(rt.eventBatch) >= cap(rt.eventBatch) {
		return ErrQueueFull
	}

	rt.eventBatch = append(rt.eventBatch, EventWithMeta{
		Event:       event,
		SequenceNum: rt.sequenceNum,
		Priority:    priority,
	})
	rt.sequenceNum++

	return nil
}

// GetTickNumber returns the current tick count
func (rt *Runtime) GetTickNumber() uint64 {
	rt.batchMu.Lock()
	defer rt.batchMu.Unlock()
	return rt.tickNum
}

// Coalesced returns how many duplicate gesture events were dropped so far.
func (rt *Runtime) Coalesced() uint64 {
	rt.batchMu.Lock()
	defer rt.batchMu.Unlock()
	return rt.coalesced
}

func (rt *Runtime) report(err error) {
	rt.logger.Printf("realtime: %v", err)
}
