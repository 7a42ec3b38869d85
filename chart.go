package sheetx

import (
	"github.com/comalice/sheetx/internal/primitives"
)

// ChartID identifies the overlay chart in snapshots and registries.
const ChartID = "overlay"

// Effect names invoked by work states.
const (
	EffectOnOpenStart          = "onOpenStart"
	EffectOnOpenEnd            = "onOpenEnd"
	EffectOnCloseStart         = "onCloseStart"
	EffectOnCloseEnd           = "onCloseEnd"
	EffectOnSnapStart          = "onSnapStart"
	EffectOnSnapEnd            = "onSnapEnd"
	EffectOnResizeStart        = "onResizeStart"
	EffectOnResizeEnd          = "onResizeEnd"
	EffectRenderVisuallyHidden = "renderVisuallyHidden"
	EffectActivate             = "activate"
	EffectDeactivate           = "deactivate"
	EffectOpenSmoothly         = "openSmoothly"
	EffectOpenImmediately      = "openImmediately"
	EffectSnapSmoothly         = "snapSmoothly"
	EffectResizeSmoothly       = "resizeSmoothly"
	EffectCloseSmoothly        = "closeSmoothly"
)

// Cancellation hooks and the snap assignment, run as transition or entry actions.
const (
	HookOnOpenCancel   = "onOpenCancel"
	HookOnSnapCancel   = "onSnapCancel"
	HookOnResizeCancel = "onResizeCancel"
	HookOnCloseCancel  = "onCloseCancel"

	actionAssignSnap = "assignSnap"
)

const (
	guardInitiallyOpen   = "initiallyOpen"
	guardInitiallyClosed = "initiallyClosed"
	guardHasSnapPayload  = "hasSnapPayload"
)

func cancelWith(hook string) primitives.TransitionConfig {
	return primitives.TransitionConfig{Actions: []primitives.ActionRef{hook}}
}

// withSnap guards a SNAP transition so that a SNAP without a payload is
// ignored instead of snapping to stale coordinates.
func withSnap(t primitives.TransitionConfig) primitives.TransitionConfig {
	t.Guard = guardHasSnapPayload
	return t
}

// Chart returns the overlay lifecycle chart. Every call builds a fresh copy.
func Chart() primitives.MachineConfig {
	mb := primitives.NewMachineBuilder(ChartID, "closed")
	snap := withSnap(primitives.TransitionConfig{})

	mb.Atomic("closed").
		Transition(EventOpen, "opening").
		Forbid(EventClose)

	// A failed opening step is undone like a CLOSE: activate is always
	// paired with deactivate.
	opening := mb.Compound("opening").WithInitial("start").
		OnDone("open").
		OnError("closing", HookOnOpenCancel).
		Transition(EventClose, "closing", cancelWith(HookOnOpenCancel))
	opening.Atomic("start").Invoke(EffectOnOpenStart, "opening.transition")
	opening.Choice("transition").
		Always("opening.immediately", guardInitiallyOpen).
		Always("opening.smoothly", guardInitiallyClosed)

	immediately := opening.Compound("immediately").WithInitial("open")
	immediately.Atomic("open").Invoke(EffectOpenImmediately, "opening.immediately.activating")
	immediately.Atomic("activating").Invoke(EffectActivate, "opening.end").
		Transition(EventDrag, "dragging", cancelWith(HookOnOpenCancel)).
		Transition(EventResize, "resizing", cancelWith(HookOnOpenCancel))

	smoothly := opening.Compound("smoothly").WithInitial("visuallyHidden")
	smoothly.Atomic("visuallyHidden").Invoke(EffectRenderVisuallyHidden, "opening.smoothly.activating")
	smoothly.Atomic("activating").Invoke(EffectActivate, "opening.smoothly.open")
	smoothly.Atomic("open").Invoke(EffectOpenSmoothly, "opening.end").
		Transition(EventDrag, "dragging", cancelWith(HookOnOpenCancel)).
		Transition(EventResize, "resizing", cancelWith(HookOnOpenCancel))

	// Past this point opening is committed: no cancel hook.
	opening.Atomic("end").Invoke(EffectOnOpenEnd, "opening.done").
		Transition(EventClose, "closing").
		Transition(EventDrag, "dragging").
		Transition(EventResize, "resizing")
	opening.Final("done")

	mb.Atomic("open").
		Transition(EventDrag, "dragging").
		Transition(EventSnap, "snapping", snap).
		Transition(EventResize, "resizing")

	mb.Atomic("dragging").
		Transition(EventSnap, "snapping", snap)

	snapping := mb.Compound("snapping").WithInitial("start").
		OnDone("open").
		OnError("open").
		Transition(EventSnap, "snapping", withSnap(cancelWith(HookOnSnapCancel))).
		Transition(EventResize, "resizing", cancelWith(HookOnSnapCancel)).
		Transition(EventDrag, "dragging", cancelWith(HookOnSnapCancel)).
		Transition(EventClose, "closing", cancelWith(HookOnSnapCancel))
	snapping.Atomic("start").
		Entry(actionAssignSnap).
		Invoke(EffectOnSnapStart, "snapping.snappingSmoothly")
	snapping.Atomic("snappingSmoothly").Invoke(EffectSnapSmoothly, "snapping.end")
	snapping.Atomic("end").Invoke(EffectOnSnapEnd, "snapping.done").
		Transition(EventResize, "resizing").
		Transition(EventSnap, "snapping", snap).
		Transition(EventClose, "closing").
		Transition(EventDrag, "dragging")
	snapping.Final("done")

	resizing := mb.Compound("resizing").WithInitial("start").
		OnDone("open").
		OnError("open").
		Transition(EventResize, "resizing", cancelWith(HookOnResizeCancel)).
		Transition(EventSnap, "snapping", withSnap(cancelWith(HookOnResizeCancel))).
		Transition(EventDrag, "dragging", cancelWith(HookOnResizeCancel)).
		Transition(EventClose, "closing", cancelWith(HookOnResizeCancel))
	resizing.Atomic("start").Invoke(EffectOnResizeStart, "resizing.resizingSmoothly")
	resizing.Atomic("resizingSmoothly").Invoke(EffectResizeSmoothly, "resizing.end")
	// RESIZE is not overridden here: a restart from end still cancels.
	resizing.Atomic("end").Invoke(EffectOnResizeEnd, "resizing.done").
		Transition(EventSnap, "snapping", snap).
		Transition(EventClose, "closing").
		Transition(EventDrag, "dragging")
	resizing.Final("done")

	closing := mb.Compound("closing").WithInitial("start").
		OnDone("closed").
		OnError("closed").
		Forbid(EventClose).
		Transition(EventOpen, "opening", cancelWith(HookOnCloseCancel))
	closing.Atomic("start").Invoke(EffectOnCloseStart, "closing.deactivating").
		OnError("closing.deactivating").
		Transition(EventOpen, "open", cancelWith(HookOnCloseCancel))
	closing.Atomic("deactivating").Invoke(EffectDeactivate, "closing.closingSmoothly")
	closing.Atomic("closingSmoothly").Invoke(EffectCloseSmoothly, "closing.end")
	closing.Atomic("end").Invoke(EffectOnCloseEnd, "closing.done")
	closing.Final("done")

	mb.On(EventClose, "closing")

	return mb.MustBuild()
}
