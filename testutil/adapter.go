package testutil

import (
	"context"
	"fmt"
	"time"

	"github.com/comalice/sheetx"
	"github.com/comalice/sheetx/realtime"
)

// RuntimeAdapter provides a common interface for the event-driven controller
// and the tick-based dispatcher, so one test suite runs on both.
type RuntimeAdapter interface {
	Start(ctx context.Context) error
	Stop() error
	SendEvent(event sheetx.Event) error
	Matches(path string) bool
	State() string
	WaitForStability(timeout time.Duration) error
}

// EventDrivenAdapter sends events straight to the controller.
type EventDrivenAdapter struct {
	c *sheetx.Controller
}

func NewEventDrivenAdapter(c *sheetx.Controller) *EventDrivenAdapter {
	return &EventDrivenAdapter{c: c}
}

func (a *EventDrivenAdapter) Start(ctx context.Context) error {
	return a.c.Start(ctx)
}

func (a *EventDrivenAdapter) Stop() error {
	return a.c.Stop()
}

// SendEvent dispatches synchronously, so the event is processed on return.
func (a *EventDrivenAdapter) SendEvent(event sheetx.Event) error {
	return a.c.Dispatch(context.Background(), event)
}

func (a *EventDrivenAdapter) Matches(path string) bool {
	return a.c.Matches(path)
}

func (a *EventDrivenAdapter) State() string {
	return a.c.State()
}

func (a *EventDrivenAdapter) WaitForStability(time.Duration) error {
	return nil
}

// TickBasedAdapter queues events on a realtime runtime in front of the controller.
type TickBasedAdapter struct {
	c  *sheetx.Controller
	rt *realtime.Runtime
}

func NewTickBasedAdapter(c *sheetx.Controller, tickRate time.Duration) *TickBasedAdapter {
	return &TickBasedAdapter{
		c:  c,
		rt: realtime.NewRuntime(c, realtime.Config{TickRate: tickRate}),
	}
}

func (a *TickBasedAdapter) Start(ctx context.Context) error {
	if err := a.c.Start(ctx); err != nil {
		return err
	}
	return a.rt.Start(ctx)
}

func (a *TickBasedAdapter) Stop() error {
	a.rt.Stop()
	return a.c.Stop()
}

func (a *TickBasedAdapter) SendEvent(event sheetx.Event) error {
	return a.rt.SendEvent(event)
}

func (a *TickBasedAdapter) Matches(path string) bool {
	return a.c.Matches(path)
}

func (a *TickBasedAdapter) State() string {
	return a.c.State()
}

// WaitForStability waits for two full ticks, so every event queued before
// the call has been dispatched.
func (a *TickBasedAdapter) WaitForStability(timeout time.Duration) error {
	target := a.rt.GetTickNumber() + 2
	deadline := time.Now().Add(timeout)
	for a.rt.GetTickNumber() < target {
		if time.Now().After(deadline) {
			return fmt.Errorf("no tick within %v", timeout)
		}
		time.Sleep(time.Millisecond)
	}
	return nil
}
