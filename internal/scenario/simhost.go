package scenario

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/comalice/sheetx"
)

// ErrSimulated is returned by effects listed in a script's fail set.
var ErrSimulated = errors.New("simulated effect failure")

// Entry kinds.
const (
	KindSend   = "send"
	KindEffect = "effect"
	KindCancel = "cancel"
	KindHook   = "hook"
	KindState  = "state"
	KindError  = "error"
	KindExpect = "expect"
)

// Entry is one line of a scenario trace.
type Entry struct {
	At     time.Duration
	Kind   string
	Name   string
	Detail string
}

func (e Entry) String() string {
	line := fmt.Sprintf("%7.1fms  %-6s %s", float64(e.At.Microseconds())/1000, e.Kind, e.Name)
	if e.Detail != "" {
		line += "  " + e.Detail
	}
	return line
}

type recorder struct {
	mu      sync.Mutex
	start   time.Time
	entries []Entry
}

func newRecorder() *recorder {
	return &recorder{start: time.Now()}
}

func (r *recorder) add(kind, name, detail string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, Entry{At: time.Since(r.start), Kind: kind, Name: name, Detail: detail})
}

func (r *recorder) snapshot() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Entry(nil), r.entries...)
}

// SimHost is a Host whose effects each take Delay, honouring cancellation,
// and record themselves into the trace.
type SimHost struct {
	Delay time.Duration
	Fail  map[string]bool

	rec *recorder
}

var _ sheetx.Host = (*SimHost)(nil)

func (h *SimHost) run(ctx context.Context, name string, in sheetx.EffectInput) error {
	h.rec.add(KindEffect, name, fmt.Sprintf("gen=%d y=%g", in.Generation, in.Y))
	if h.Delay > 0 {
		timer := time.NewTimer(h.Delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			h.rec.add(KindCancel, name, "")
			return ctx.Err()
		}
	}
	if h.Fail[name] {
		return fmt.Errorf("%s: %w", name, ErrSimulated)
	}
	return nil
}

func (h *SimHost) hook(name string, c sheetx.Context, evt sheetx.Event) {
	h.rec.add(KindHook, name, fmt.Sprintf("on %s, snapSource=%q", evt.Type, c.SnapSource))
}

func (h *SimHost) OnOpenStart(ctx context.Context, in sheetx.EffectInput) error {
	return h.run(ctx, sheetx.EffectOnOpenStart, in)
}

func (h *SimHost) OnOpenEnd(ctx context.Context, in sheetx.EffectInput) error {
	return h.run(ctx, sheetx.EffectOnOpenEnd, in)
}

func (h *SimHost) OnCloseStart(ctx context.Context, in sheetx.EffectInput) error {
	return h.run(ctx, sheetx.EffectOnCloseStart, in)
}

func (h *SimHost) OnCloseEnd(ctx context.Context, in sheetx.EffectInput) error {
	return h.run(ctx, sheetx.EffectOnCloseEnd, in)
}

func (h *SimHost) OnSnapStart(ctx context.Context, in sheetx.EffectInput) error {
	return h.run(ctx, sheetx.EffectOnSnapStart, in)
}

func (h *SimHost) OnSnapEnd(ctx context.Context, in sheetx.EffectInput) error {
	return h.run(ctx, sheetx.EffectOnSnapEnd, in)
}

func (h *SimHost) OnResizeStart(ctx context.Context, in sheetx.EffectInput) error {
	return h.run(ctx, sheetx.EffectOnResizeStart, in)
}

func (h *SimHost) OnResizeEnd(ctx context.Context, in sheetx.EffectInput) error {
	return h.run(ctx, sheetx.EffectOnResizeEnd, in)
}

func (h *SimHost) RenderVisuallyHidden(ctx context.Context, in sheetx.EffectInput) error {
	return h.run(ctx, sheetx.EffectRenderVisuallyHidden, in)
}

func (h *SimHost) Activate(ctx context.Context, in sheetx.EffectInput) error {
	return h.run(ctx, sheetx.EffectActivate, in)
}

func (h *SimHost) Deactivate(ctx context.Context, in sheetx.EffectInput) error {
	return h.run(ctx, sheetx.EffectDeactivate, in)
}

func (h *SimHost) OpenSmoothly(ctx context.Context, in sheetx.EffectInput) error {
	return h.run(ctx, sheetx.EffectOpenSmoothly, in)
}

func (h *SimHost) OpenImmediately(ctx context.Context, in sheetx.EffectInput) error {
	return h.run(ctx, sheetx.EffectOpenImmediately, in)
}

func (h *SimHost) SnapSmoothly(ctx context.Context, in sheetx.EffectInput) error {
	return h.run(ctx, sheetx.EffectSnapSmoothly, in)
}

func (h *SimHost) ResizeSmoothly(ctx context.Context, in sheetx.EffectInput) error {
	return h.run(ctx, sheetx.EffectResizeSmoothly, in)
}

func (h *SimHost) CloseSmoothly(ctx context.Context, in sheetx.EffectInput) error {
	return h.run(ctx, sheetx.EffectCloseSmoothly, in)
}

func (h *SimHost) OnOpenCancel(c sheetx.Context, evt sheetx.Event) {
	h.hook(sheetx.HookOnOpenCancel, c, evt)
}

func (h *SimHost) OnSnapCancel(c sheetx.Context, evt sheetx.Event) {
	h.hook(sheetx.HookOnSnapCancel, c, evt)
}

func (h *SimHost) OnResizeCancel(c sheetx.Context, evt sheetx.Event) {
	h.hook(sheetx.HookOnResizeCancel, c, evt)
}

func (h *SimHost) OnCloseCancel(c sheetx.Context, evt sheetx.Event) {
	h.hook(sheetx.HookOnCloseCancel, c, evt)
}

func failSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[strings.TrimSpace(n)] = true
	}
	return set
}
