// Package testutil provides a recording sheetx.Host and runtime adapters so
// the same scenarios run against the event-driven controller and the
// frame-batched realtime dispatcher.
package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/comalice/sheetx"
)

// Call is one recorded effect or hook invocation.
type Call struct {
	Name      string
	Hook      bool
	Input     sheetx.EffectInput // effects only
	Context   sheetx.Context     // hooks only
	Event     sheetx.Event       // hooks only
	Cancelled bool               // effect ctx was cancelled before it returned

	seq uint64
}

type gate struct {
	release chan error
	open    chan struct{}
}

// Host records every effect and hook call. Effects succeed immediately
// unless gated or set to fail.
type Host struct {
	mu       sync.Mutex
	calls    []Call
	gates    map[string]*gate
	failures map[string]error
	changed  chan struct{}
	nextSeq  uint64
}

var _ sheetx.Host = (*Host)(nil)

func NewHost() *Host {
	return &Host{
		gates:    make(map[string]*gate),
		failures: make(map[string]error),
		changed:  make(chan struct{}),
	}
}

// Gate makes later invocations of each effect block until Release or
// until the invoking state is exited.
func (h *Host) Gate(effects ...string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, e := range effects {
		if _, ok := h.gates[e]; !ok {
			h.gates[e] = &gate{release: make(chan error, 16), open: make(chan struct{})}
		}
	}
}

// Release completes one gated invocation of effect with err. A release
// sent before the effect starts is kept for it.
func (h *Host) Release(effect string, err error) {
	h.mu.Lock()
	gate, ok := h.gates[effect]
	h.mu.Unlock()
	if !ok {
		panic(fmt.Sprintf("testutil: effect %s is not gated", effect))
	}
	gate.release <- err
}

// Ungate lets pending and later invocations of each effect succeed.
func (h *Host) Ungate(effects ...string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, e := range effects {
		if g, ok := h.gates[e]; ok {
			close(g.open)
			delete(h.gates, e)
		}
	}
}

// Fail makes every later invocation of effect return err.
func (h *Host) Fail(effect string, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.failures[effect] = err
}

// Calls returns the names of all recorded calls in order.
func (h *Host) Calls() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	names := make([]string, len(h.calls))
	for i, c := range h.calls {
		names[i] = c.Name
	}
	return names
}

// Records returns a copy of all recorded calls.
func (h *Host) Records() []Call {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Call(nil), h.calls...)
}

// Count returns how many times name was called.
func (h *Host) Count(name string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.countLocked(name)
}

func (h *Host) countLocked(name string) int {
	n := 0
	for _, c := range h.calls {
		if c.Name == name {
			n++
		}
	}
	return n
}

// Cancelled reports whether any invocation of effect saw its ctx cancelled.
func (h *Host) Cancelled(effect string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, c := range h.calls {
		if c.Name == effect && c.Cancelled {
			return true
		}
	}
	return false
}

// AwaitCancelled blocks until an invocation of effect has seen its ctx cancelled.
func (h *Host) AwaitCancelled(ctx context.Context, effect string) error {
	for {
		h.mu.Lock()
		changed := h.changed
		h.mu.Unlock()
		if h.Cancelled(effect) {
			return nil
		}
		select {
		case <-changed:
		case <-ctx.Done():
			return fmt.Errorf("awaiting cancellation of %s: %w", effect, ctx.Err())
		}
	}
}

// Reset forgets recorded calls. Gates and failures stay.
func (h *Host) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls = nil
}

// AwaitCall blocks until name has been called at least once.
func (h *Host) AwaitCall(ctx context.Context, name string) error {
	return h.AwaitCalls(ctx, name, 1)
}

// AwaitCalls blocks until name has been called n times.
func (h *Host) AwaitCalls(ctx context.Context, name string, n int) error {
	for {
		h.mu.Lock()
		count, changed := h.countLocked(name), h.changed
		h.mu.Unlock()
		if count >= n {
			return nil
		}
		select {
		case <-changed:
		case <-ctx.Done():
			return fmt.Errorf("awaiting %d call(s) of %s, saw %d: %w", n, name, count, ctx.Err())
		}
	}
}

func (h *Host) record(c Call) uint64 {
	h.mu.Lock()
	h.nextSeq++
	c.seq = h.nextSeq
	h.calls = append(h.calls, c)
	changed := h.changed
	h.changed = make(chan struct{})
	h.mu.Unlock()
	close(changed)
	return c.seq
}

// markCancelled flags the call recorded as seq, unless Reset dropped it.
func (h *Host) markCancelled(seq uint64) {
	h.mu.Lock()
	for i := range h.calls {
		if h.calls[i].seq == seq {
			h.calls[i].Cancelled = true
		}
	}
	changed := h.changed
	h.changed = make(chan struct{})
	h.mu.Unlock()
	close(changed)
}

func (h *Host) run(ctx context.Context, name string, in sheetx.EffectInput) error {
	seq := h.record(Call{Name: name, Input: in})
	h.mu.Lock()
	g, fail := h.gates[name], h.failures[name]
	h.mu.Unlock()
	if g == nil {
		return fail
	}
	select {
	case err := <-g.release:
		return err
	case <-g.open:
		return fail
	case <-ctx.Done():
		h.markCancelled(seq)
		return ctx.Err()
	}
}

func (h *Host) hook(name string, c sheetx.Context, evt sheetx.Event) {
	h.record(Call{Name: name, Hook: true, Context: c, Event: evt})
}

func (h *Host) OnOpenStart(ctx context.Context, in sheetx.EffectInput) error {
	return h.run(ctx, sheetx.EffectOnOpenStart, in)
}

func (h *Host) OnOpenEnd(ctx context.Context, in sheetx.EffectInput) error {
	return h.run(ctx, sheetx.EffectOnOpenEnd, in)
}

func (h *Host) OnCloseStart(ctx context.Context, in sheetx.EffectInput) error {
	return h.run(ctx, sheetx.EffectOnCloseStart, in)
}

func (h *Host) OnCloseEnd(ctx context.Context, in sheetx.EffectInput) error {
	return h.run(ctx, sheetx.EffectOnCloseEnd, in)
}

func (h *Host) OnSnapStart(ctx context.Context, in sheetx.EffectInput) error {
	return h.run(ctx, sheetx.EffectOnSnapStart, in)
}

func (h *Host) OnSnapEnd(ctx context.Context, in sheetx.EffectInput) error {
	return h.run(ctx, sheetx.EffectOnSnapEnd, in)
}

func (h *Host) OnResizeStart(ctx context.Context, in sheetx.EffectInput) error {
	return h.run(ctx, sheetx.EffectOnResizeStart, in)
}

func (h *Host) OnResizeEnd(ctx context.Context, in sheetx.EffectInput) error {
	return h.run(ctx, sheetx.EffectOnResizeEnd, in)
}

func (h *Host) RenderVisuallyHidden(ctx context.Context, in sheetx.EffectInput) error {
	return h.run(ctx, sheetx.EffectRenderVisuallyHidden, in)
}

func (h *Host) Activate(ctx context.Context, in sheetx.EffectInput) error {
	return h.run(ctx, sheetx.EffectActivate, in)
}

func (h *Host) Deactivate(ctx context.Context, in sheetx.EffectInput) error {
	return h.run(ctx, sheetx.EffectDeactivate, in)
}

func (h *Host) OpenSmoothly(ctx context.Context, in sheetx.EffectInput) error {
	return h.run(ctx, sheetx.EffectOpenSmoothly, in)
}

func (h *Host) OpenImmediately(ctx context.Context, in sheetx.EffectInput) error {
	return h.run(ctx, sheetx.EffectOpenImmediately, in)
}

func (h *Host) SnapSmoothly(ctx context.Context, in sheetx.EffectInput) error {
	return h.run(ctx, sheetx.EffectSnapSmoothly, in)
}

func (h *Host) ResizeSmoothly(ctx context.Context, in sheetx.EffectInput) error {
	return h.run(ctx, sheetx.EffectResizeSmoothly, in)
}

func (h *Host) CloseSmoothly(ctx context.Context, in sheetx.EffectInput) error {
	return h.run(ctx, sheetx.EffectCloseSmoothly, in)
}

func (h *Host) OnOpenCancel(c sheetx.Context, evt sheetx.Event) {
	h.hook(sheetx.HookOnOpenCancel, c, evt)
}

func (h *Host) OnSnapCancel(c sheetx.Context, evt sheetx.Event) {
	h.hook(sheetx.HookOnSnapCancel, c, evt)
}

func (h *Host) OnResizeCancel(c sheetx.Context, evt sheetx.Event) {
	h.hook(sheetx.HookOnResizeCancel, c, evt)
}

func (h *Host) OnCloseCancel(c sheetx.Context, evt sheetx.Event) {
	h.hook(sheetx.HookOnCloseCancel, c, evt)
}
