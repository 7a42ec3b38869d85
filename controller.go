// Package sheetx coordinates the lifecycle of a draggable bottom sheet.
//
// A Controller runs the overlay chart: programmatic OPEN and CLOSE events and
// live DRAG, RESIZE and SNAP gestures move it through the closed, opening,
// open, dragging, snapping, resizing and closing phases. Work states invoke
// Host effects one at a time; an interrupting event cancels the running
// effect and calls the phase's cancellation hook before the next phase starts.
//
// Example:
//
//	c, _ := sheetx.New(host, sheetx.WithInitialState(sheetx.InitialClosed))
//	c.Start(ctx)
//	defer c.Stop()
//	c.Open(ctx)
//	c.AwaitState(ctx, "open")
package sheetx

import (
	"context"
	"fmt"
	"log"

	"github.com/comalice/sheetx/internal/core"
	"github.com/comalice/sheetx/internal/extensibility"
	"github.com/comalice/sheetx/internal/primitives"
	"github.com/comalice/sheetx/internal/production"
)

// Controller is the overlay lifecycle controller. All methods are safe for
// concurrent use.
type Controller struct {
	machine *core.Machine
	chart   primitives.MachineConfig
	initial InitialState
	viz     *production.DefaultVisualizer
}

// New builds a controller driving host. A nil host behaves as NopHost.
// The controller does not process events until Start.
func New(host Host, opts ...Option) (*Controller, error) {
	s := settings{initial: InitialClosed, logger: log.Default()}
	for _, opt := range opts {
		opt(&s)
	}
	if !s.initial.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidInitialState, s.initial)
	}
	if host == nil {
		host = NopHost{Logger: s.logger}
	}

	var effects core.EffectRunner = hostEffects(host)
	if s.logEffects {
		effects = extensibility.NewLoggingEffectRunner(effects, s.logger)
	}
	if s.tracing {
		effects = extensibility.NewTracingEffectRunner(effects, s.tracer)
	}
	var actions core.ActionRunner = hostActions(host)
	if s.logActions {
		actions = extensibility.NewLoggingActionRunner(actions, s.logger)
	}

	viz := &production.DefaultVisualizer{}
	mopts := []core.Option{
		core.WithEffectRunner(effects),
		core.WithActionRunner(actions),
		core.WithGuardEvaluator(overlayGuards()),
		core.WithVisualizer(viz),
		core.WithLogger(s.logger),
		core.WithErrorHandler(s.onError),
		core.WithQueueSize(s.queueSize),
		core.WithMachineID(s.id),
	}
	if s.persister != nil {
		mopts = append(mopts, core.WithPersister(s.persister))
	}
	if s.publisher != nil {
		mopts = append(mopts, core.WithPublisher(s.publisher))
	}
	if s.registry != nil {
		mopts = append(mopts, core.WithRegistry(s.registry))
	}
	if s.source != nil {
		mopts = append(mopts, core.WithEventSource(s.source))
	}

	chart := Chart()
	m := core.NewMachine(chart, mopts...)
	m.Ctx().Set(keyInitialState, string(s.initial))
	return &Controller{machine: m, chart: chart, initial: s.initial, viz: viz}, nil
}

// Start enters closed (or the restored phase) and starts processing events.
// Effects run under ctx.
func (c *Controller) Start(ctx context.Context) error {
	return c.machine.Start(ctx)
}

// Stop cancels any running effect and waits for pending snapshots to flush.
func (c *Controller) Stop() error {
	return c.machine.Stop()
}

func (c *Controller) ID() string {
	return c.machine.ID()
}

// Open, Close, Drag, Resize and Snap dispatch an event and return once it
// has been processed. Effects started by the event are still running.

func (c *Controller) Open(ctx context.Context) error {
	return c.machine.Dispatch(ctx, OpenEvent())
}

func (c *Controller) Close(ctx context.Context) error {
	return c.machine.Dispatch(ctx, CloseEvent())
}

func (c *Controller) Drag(ctx context.Context) error {
	return c.machine.Dispatch(ctx, DragEvent())
}

func (c *Controller) Resize(ctx context.Context) error {
	return c.machine.Dispatch(ctx, ResizeEvent())
}

func (c *Controller) Snap(ctx context.Context, p SnapPayload) error {
	return c.machine.Dispatch(ctx, SnapEvent(p))
}

// Dispatch processes evt synchronously.
func (c *Controller) Dispatch(ctx context.Context, evt Event) error {
	return c.machine.Dispatch(ctx, evt)
}

// Send queues evt without waiting. It returns ErrQueueFull under backpressure.
func (c *Controller) Send(evt Event) error {
	return c.machine.Send(evt)
}

// State returns the active leaf path, such as "opening.smoothly.open".
func (c *Controller) State() string {
	return c.machine.Current()
}

// Phase returns the typed view of the active leaf. Before Start it reports closed.
func (c *Controller) Phase() Phase {
	p, err := ParsePhase(c.machine.Current())
	if err != nil {
		return Phase{Top: PhaseClosed}
	}
	return p
}

func (c *Controller) Context() Context {
	return readContext(c.machine.Ctx())
}

// Matches reports whether the active leaf is path or lies under it.
func (c *Controller) Matches(path string) bool {
	return c.machine.Matches(path)
}

// AwaitState blocks until the active leaf matches path.
func (c *Controller) AwaitState(ctx context.Context, path string) error {
	return c.machine.AwaitState(ctx, path)
}

// Err returns the error that failed the controller, or nil.
func (c *Controller) Err() error {
	return c.machine.Err()
}

func (c *Controller) Snapshot() Snapshot {
	return c.machine.Snapshot()
}

// Restore loads s before Start. A phase that was in flight when s was taken
// resumes at the phase it would have committed to: opening, snapping and
// resizing resume open, closing resumes closed.
func (c *Controller) Restore(s Snapshot) error {
	phase, err := ParsePhase(s.Current)
	if err != nil {
		return fmt.Errorf("restore: %w", err)
	}
	if !phase.Resting() {
		s.Current = c.chart.States[phase.Top.String()].OnDone
	}

	initial := c.initial
	if raw, ok := s.ContextData[keyInitialState]; ok {
		str, _ := raw.(string)
		if initial, err = ParseInitialState(str); err != nil {
			return fmt.Errorf("restore: %w", err)
		}
	}
	data := make(map[string]any, len(s.ContextData)+1)
	for k, v := range s.ContextData {
		data[k] = v
	}
	data[keyInitialState] = string(initial)
	s.ContextData = data

	if err := c.machine.Restore(s); err != nil {
		return err
	}
	c.initial = initial
	return nil
}

// DOT renders the chart as Graphviz source with the active phase highlighted.
func (c *Controller) DOT() string {
	return c.machine.Visualize()
}

// JSON renders the chart definition.
func (c *Controller) JSON() ([]byte, error) {
	return c.viz.ExportJSON(c.chart)
}

func hostEffects(h Host) *extensibility.EffectRegistry {
	wrap := func(fn func(context.Context, EffectInput) error) extensibility.EffectFunc {
		return func(ctx context.Context, inv core.Invocation) error {
			return fn(ctx, effectInput(inv))
		}
	}
	return extensibility.NewEffectRegistry(map[string]extensibility.EffectFunc{
		EffectOnOpenStart:          wrap(h.OnOpenStart),
		EffectOnOpenEnd:            wrap(h.OnOpenEnd),
		EffectOnCloseStart:         wrap(h.OnCloseStart),
		EffectOnCloseEnd:           wrap(h.OnCloseEnd),
		EffectOnSnapStart:          wrap(h.OnSnapStart),
		EffectOnSnapEnd:            wrap(h.OnSnapEnd),
		EffectOnResizeStart:        wrap(h.OnResizeStart),
		EffectOnResizeEnd:          wrap(h.OnResizeEnd),
		EffectRenderVisuallyHidden: wrap(h.RenderVisuallyHidden),
		EffectActivate:             wrap(h.Activate),
		EffectDeactivate:           wrap(h.Deactivate),
		EffectOpenSmoothly:         wrap(h.OpenSmoothly),
		EffectOpenImmediately:      wrap(h.OpenImmediately),
		EffectSnapSmoothly:         wrap(h.SnapSmoothly),
		EffectResizeSmoothly:       wrap(h.ResizeSmoothly),
		EffectCloseSmoothly:        wrap(h.CloseSmoothly),
	})
}

func effectInput(inv core.Invocation) EffectInput {
	c := contextFromMap(inv.Context)
	return EffectInput{
		Context:      c,
		Y:            c.Y,
		Velocity:     c.Velocity,
		SnapSource:   c.SnapSource,
		State:        inv.State,
		Generation:   inv.Generation,
		InvocationID: inv.ID,
	}
}

func hostActions(h Host) *extensibility.DefaultActionRunner {
	hook := func(fn func(Context, Event)) extensibility.ActionFunc {
		return func(kv *primitives.Context, evt primitives.Event) {
			fn(readContext(kv), evt)
		}
	}
	return extensibility.NewActionRunner(map[string]extensibility.ActionFunc{
		HookOnOpenCancel:   hook(h.OnOpenCancel),
		HookOnSnapCancel:   hook(h.OnSnapCancel),
		HookOnResizeCancel: hook(h.OnResizeCancel),
		HookOnCloseCancel:  hook(h.OnCloseCancel),
		actionAssignSnap:   assignSnap,
	})
}

func overlayGuards() *extensibility.DefaultGuardEvaluator {
	initially := func(want InitialState) extensibility.GuardFunc {
		return func(kv *primitives.Context, _ primitives.Event) bool {
			return InitialState(kv.GetString(keyInitialState)) == want
		}
	}
	return extensibility.NewGuardEvaluator(map[string]extensibility.GuardFunc{
		guardInitiallyOpen:   initially(InitialOpen),
		guardInitiallyClosed: initially(InitialClosed),
		guardHasSnapPayload: func(_ *primitives.Context, evt primitives.Event) bool {
			_, ok := snapPayload(evt)
			return ok
		},
	})
}
