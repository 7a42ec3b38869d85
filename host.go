package sheetx

import (
	"context"
	"log"
)

// EffectInput is passed to every host effect.
type EffectInput struct {
	Context      Context
	Y            float64
	Velocity     float64
	SnapSource   string
	State        string // leaf that invoked the effect
	Generation   uint64
	InvocationID string
}

// Host performs the side effects the controller orchestrates.
//
// Effects run on their own goroutine. ctx is cancelled when the invoking
// state is exited; the controller then ignores the result. A non-nil error
// sends the controller to the failing phase's safe state.
//
// Cancellation hooks run synchronously on the controller goroutine after the
// interrupted branch is exited and before the next branch starts. They must
// not block.
type Host interface {
	OnOpenStart(ctx context.Context, in EffectInput) error
	OnOpenEnd(ctx context.Context, in EffectInput) error
	OnCloseStart(ctx context.Context, in EffectInput) error
	OnCloseEnd(ctx context.Context, in EffectInput) error
	OnSnapStart(ctx context.Context, in EffectInput) error
	OnSnapEnd(ctx context.Context, in EffectInput) error
	OnResizeStart(ctx context.Context, in EffectInput) error
	OnResizeEnd(ctx context.Context, in EffectInput) error
	RenderVisuallyHidden(ctx context.Context, in EffectInput) error
	Activate(ctx context.Context, in EffectInput) error
	Deactivate(ctx context.Context, in EffectInput) error
	OpenSmoothly(ctx context.Context, in EffectInput) error
	OpenImmediately(ctx context.Context, in EffectInput) error
	SnapSmoothly(ctx context.Context, in EffectInput) error
	ResizeSmoothly(ctx context.Context, in EffectInput) error
	CloseSmoothly(ctx context.Context, in EffectInput) error

	OnOpenCancel(c Context, evt Event)
	OnSnapCancel(c Context, evt Event)
	OnResizeCancel(c Context, evt Event)
	OnCloseCancel(c Context, evt Event)
}

// NopHost completes every effect immediately and logs cancellation hooks.
// Embed it to override a subset of Host. A nil Logger uses log.Default.
type NopHost struct {
	Logger *log.Logger
}

var _ Host = NopHost{}

func (NopHost) OnOpenStart(context.Context, EffectInput) error          { return nil }
func (NopHost) OnOpenEnd(context.Context, EffectInput) error            { return nil }
func (NopHost) OnCloseStart(context.Context, EffectInput) error         { return nil }
func (NopHost) OnCloseEnd(context.Context, EffectInput) error           { return nil }
func (NopHost) OnSnapStart(context.Context, EffectInput) error          { return nil }
func (NopHost) OnSnapEnd(context.Context, EffectInput) error            { return nil }
func (NopHost) OnResizeStart(context.Context, EffectInput) error        { return nil }
func (NopHost) OnResizeEnd(context.Context, EffectInput) error          { return nil }
func (NopHost) RenderVisuallyHidden(context.Context, EffectInput) error { return nil }
func (NopHost) Activate(context.Context, EffectInput) error             { return nil }
func (NopHost) Deactivate(context.Context, EffectInput) error           { return nil }
func (NopHost) OpenSmoothly(context.Context, EffectInput) error         { return nil }
func (NopHost) OpenImmediately(context.Context, EffectInput) error      { return nil }
func (NopHost) SnapSmoothly(context.Context, EffectInput) error         { return nil }
func (NopHost) ResizeSmoothly(context.Context, EffectInput) error       { return nil }
func (NopHost) CloseSmoothly(context.Context, EffectInput) error        { return nil }

func (h NopHost) OnOpenCancel(c Context, evt Event)   { h.logHook(HookOnOpenCancel, c, evt) }
func (h NopHost) OnSnapCancel(c Context, evt Event)   { h.logHook(HookOnSnapCancel, c, evt) }
func (h NopHost) OnResizeCancel(c Context, evt Event) { h.logHook(HookOnResizeCancel, c, evt) }
func (h NopHost) OnCloseCancel(c Context, evt Event)  { h.logHook(HookOnCloseCancel, c, evt) }

func (h NopHost) logHook(name string, c Context, evt Event) {
	logger := h.Logger
	if logger == nil {
		logger = log.Default()
	}
	logger.Printf("%s: context=%+v event=%s", name, c, evt.Type)
}
