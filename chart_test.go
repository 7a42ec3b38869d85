package sheetx

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/comalice/sheetx/internal/core"
	"github.com/comalice/sheetx/internal/primitives"
)

func compiledChart(t *testing.T) *core.Chart {
	t.Helper()
	chart, err := core.Compile(Chart())
	if err != nil {
		t.Fatalf("overlay chart invalid: %v", err)
	}
	return chart
}

func TestChart_LeavesMatchPhases(t *testing.T) {
	leaves := compiledChart(t).Leaves()
	var phases []string
	for _, p := range phaseLeaves {
		phases = append(phases, p.String())
	}
	sort.Strings(leaves)
	sort.Strings(phases)
	if strings.Join(leaves, ",") != strings.Join(phases, ",") {
		t.Errorf("chart leaves %v\nphase leaves %v", leaves, phases)
	}
}

// overlayGuard evaluates the overlay guards against a fresh context.
func overlayGuard(initial InitialState) core.GuardFunc {
	guards := overlayGuards()
	kv := primitives.NewContext()
	kv.Set(keyInitialState, string(initial))
	return func(ref primitives.GuardRef, evt primitives.Event) bool { return guards.Eval(kv, ref, evt) }
}

func tableEvent(eventType string) primitives.Event {
	if eventType == EventSnap {
		return SnapEvent(SnapPayload{})
	}
	return primitives.NewEvent(eventType, nil)
}

func actionNames(refs []primitives.ActionRef) string {
	names := make([]string, len(refs))
	for i, r := range refs {
		names[i] = fmt.Sprint(r)
	}
	return strings.Join(names, ",")
}

func TestChart_TransitionTable(t *testing.T) {
	chart := compiledChart(t)
	tests := []struct {
		leaf    string
		event   string
		want    string // resulting leaf, "" when ignored
		actions string
	}{
		{"closed", EventOpen, "opening.start", ""},
		{"closed", EventClose, "", ""},
		{"closed", EventDrag, "", ""},
		{"opening.start", EventClose, "closing.start", HookOnOpenCancel},
		{"opening.start", EventDrag, "", ""},
		{"opening.smoothly.visuallyHidden", EventClose, "closing.start", HookOnOpenCancel},
		{"opening.smoothly.visuallyHidden", EventResize, "", ""},
		{"opening.immediately.open", EventDrag, "", ""},
		{"opening.immediately.activating", EventDrag, "dragging", HookOnOpenCancel},
		{"opening.immediately.activating", EventResize, "resizing.start", HookOnOpenCancel},
		{"opening.smoothly.open", EventDrag, "dragging", HookOnOpenCancel},
		{"opening.smoothly.open", EventResize, "resizing.start", HookOnOpenCancel},
		{"opening.end", EventClose, "closing.start", ""},
		{"opening.end", EventDrag, "dragging", ""},
		{"opening.end", EventResize, "resizing.start", ""},
		{"opening.end", EventOpen, "", ""},
		{"open", EventDrag, "dragging", ""},
		{"open", EventSnap, "snapping.start", ""},
		{"open", EventResize, "resizing.start", ""},
		{"open", EventClose, "closing.start", ""},
		{"open", EventOpen, "", ""},
		{"dragging", EventSnap, "snapping.start", ""},
		{"dragging", EventClose, "closing.start", ""},
		{"dragging", EventDrag, "", ""},
		{"dragging", EventResize, "", ""},
		{"snapping.start", EventSnap, "snapping.start", HookOnSnapCancel},
		{"snapping.snappingSmoothly", EventResize, "resizing.start", HookOnSnapCancel},
		{"snapping.snappingSmoothly", EventDrag, "dragging", HookOnSnapCancel},
		{"snapping.snappingSmoothly", EventClose, "closing.start", HookOnSnapCancel},
		{"snapping.end", EventDrag, "dragging", ""},
		{"snapping.end", EventSnap, "snapping.start", ""},
		{"snapping.end", EventResize, "resizing.start", ""},
		{"snapping.end", EventClose, "closing.start", ""},
		{"resizing.start", EventResize, "resizing.start", HookOnResizeCancel},
		{"resizing.resizingSmoothly", EventSnap, "snapping.start", HookOnResizeCancel},
		{"resizing.resizingSmoothly", EventClose, "closing.start", HookOnResizeCancel},
		{"resizing.end", EventResize, "resizing.start", HookOnResizeCancel},
		{"resizing.end", EventDrag, "dragging", ""},
		{"resizing.end", EventClose, "closing.start", ""},
		{"closing.start", EventOpen, "open", HookOnCloseCancel},
		{"closing.start", EventClose, "", ""},
		{"closing.deactivating", EventOpen, "opening.start", HookOnCloseCancel},
		{"closing.closingSmoothly", EventOpen, "opening.start", HookOnCloseCancel},
		{"closing.closingSmoothly", EventClose, "", ""},
		{"closing.end", EventOpen, "opening.start", HookOnCloseCancel},
		{"closing.end", EventDrag, "", ""},
	}
	guard := overlayGuard(InitialClosed)
	for _, tt := range tests {
		step, ok := chart.Plan(tt.leaf, tableEvent(tt.event), guard)
		if tt.want == "" {
			if ok {
				t.Errorf("%s on %s: want ignored, got %s", tt.event, tt.leaf, step.Leaf)
			}
			continue
		}
		if !ok {
			t.Errorf("%s on %s: ignored, want %s", tt.event, tt.leaf, tt.want)
			continue
		}
		if step.Leaf != tt.want {
			t.Errorf("%s on %s: leaf = %s, want %s", tt.event, tt.leaf, step.Leaf, tt.want)
		}
		if got := actionNames(step.Actions); got != tt.actions {
			t.Errorf("%s on %s: actions = %q, want %q", tt.event, tt.leaf, got, tt.actions)
		}
	}
}

func TestChart_SnapRestartReentersPhase(t *testing.T) {
	step, ok := compiledChart(t).Plan("snapping.snappingSmoothly", SnapEvent(SnapPayload{Y: 3}), overlayGuard(InitialClosed))
	if !ok {
		t.Fatal("SNAP ignored during snapping")
	}
	if got := strings.Join(step.Exits, ","); got != "snapping.snappingSmoothly,snapping" {
		t.Errorf("exits = %s", got)
	}
	if got := strings.Join(step.Entries, ","); got != "snapping,snapping.start" {
		t.Errorf("entries = %s", got)
	}
	if step.Invoke != EffectOnSnapStart {
		t.Errorf("invoke = %q", step.Invoke)
	}
}

func TestChart_SnapWithoutPayloadIgnored(t *testing.T) {
	chart := compiledChart(t)
	guard := overlayGuard(InitialClosed)
	events := []primitives.Event{
		primitives.NewEvent(EventSnap, nil),
		primitives.NewEvent(EventSnap, "120"),
		primitives.NewEvent(EventSnap, (*SnapPayload)(nil)),
	}
	leaves := []string{"open", "dragging", "snapping.start", "snapping.snappingSmoothly", "snapping.end", "resizing.resizingSmoothly", "resizing.end"}
	for _, leaf := range leaves {
		for _, evt := range events {
			if step, ok := chart.Plan(leaf, evt, guard); ok {
				t.Errorf("SNAP %#v on %s: want ignored, got %s", evt.Data, leaf, step.Leaf)
			}
		}
		if _, ok := chart.Plan(leaf, SnapEvent(SnapPayload{Y: 1}), guard); !ok {
			t.Errorf("SNAP with payload ignored on %s", leaf)
		}
	}
}

func TestChart_ErrorTargets(t *testing.T) {
	chart := compiledChart(t)
	tests := []struct {
		leaf    string
		want    string
		actions string
	}{
		{"opening.start", "closing.start", HookOnOpenCancel},
		{"opening.smoothly.activating", "closing.start", HookOnOpenCancel},
		{"opening.immediately.activating", "closing.start", HookOnOpenCancel},
		{"opening.end", "closing.start", HookOnOpenCancel},
		{"snapping.snappingSmoothly", "open", ""},
		{"resizing.start", "open", ""},
		{"closing.start", "closing.deactivating", ""},
		{"closing.deactivating", "closed", ""},
		{"closing.closingSmoothly", "closed", ""},
	}
	for _, tt := range tests {
		step, err := chart.PlanError(tt.leaf)
		if err != nil {
			t.Errorf("PlanError(%s): %v", tt.leaf, err)
			continue
		}
		if step.Leaf != tt.want {
			t.Errorf("PlanError(%s) = %s, want %s", tt.leaf, step.Leaf, tt.want)
		}
		if got := actionNames(step.Actions); got != tt.actions {
			t.Errorf("PlanError(%s) actions = %q, want %q", tt.leaf, got, tt.actions)
		}
	}
}

func TestChart_OpeningChoice(t *testing.T) {
	chart := compiledChart(t)
	guards := overlayGuards()
	tests := []struct {
		initial InitialState
		want    string
		errIs   error
	}{
		{InitialClosed, "opening.smoothly.visuallyHidden", nil},
		{InitialOpen, "opening.immediately.open", nil},
		{"HALF", "", core.ErrGuardExhausted},
	}
	for _, tt := range tests {
		kv := primitives.NewContext()
		kv.Set(keyInitialState, string(tt.initial))
		eval := func(ref primitives.GuardRef, evt primitives.Event) bool { return guards.Eval(kv, ref, evt) }

		step, ok, err := chart.Microstep("opening.transition", primitives.NewEvent("done.invoke.opening.start", nil), eval)
		if tt.errIs != nil {
			if !errors.Is(err, tt.errIs) {
				t.Errorf("%s: err = %v, want %v", tt.initial, err, tt.errIs)
			}
			continue
		}
		if err != nil || !ok || step.Leaf != tt.want {
			t.Errorf("%s: step = %+v ok=%v err=%v, want %s", tt.initial, step, ok, err, tt.want)
		}
	}
}

func TestController_GuardExhaustionFails(t *testing.T) {
	var (
		mu   sync.Mutex
		errs []error
	)
	c, err := New(nil,
		WithLogger(log.New(io.Discard, "", 0)),
		WithErrorHandler(func(err error) {
			mu.Lock()
			errs = append(errs, err)
			mu.Unlock()
		}))
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := c.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer c.Stop()

	// Only reachable by corrupting the context after construction.
	c.machine.Ctx().Set(keyInitialState, "HALF")
	if err := c.Open(ctx); err != nil {
		t.Fatal(err)
	}
	if err := c.AwaitState(ctx, "open"); !errors.Is(err, ErrMachineFailed) {
		t.Fatalf("AwaitState = %v, want ErrMachineFailed", err)
	}
	if !errors.Is(c.Err(), ErrGuardExhausted) {
		t.Errorf("Err = %v, want ErrGuardExhausted", c.Err())
	}
	if err := c.Close(ctx); !errors.Is(err, ErrMachineFailed) {
		t.Errorf("Close after failure = %v, want ErrMachineFailed", err)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(errs) == 0 || !errors.Is(errs[len(errs)-1], ErrGuardExhausted) {
		t.Errorf("error handler got %v", errs)
	}
}

func TestNopHost_LogsHooks(t *testing.T) {
	var buf strings.Builder
	h := NopHost{Logger: log.New(&buf, "", 0)}
	h.OnSnapCancel(Context{InitialState: InitialOpen, Y: 4}, CloseEvent())
	if !strings.Contains(buf.String(), "onSnapCancel") || !strings.Contains(buf.String(), "CLOSE") {
		t.Errorf("log = %q", buf.String())
	}
	if err := h.CloseSmoothly(context.Background(), EffectInput{}); err != nil {
		t.Errorf("NopHost effect = %v", err)
	}
}
