package extensibility

import (
	"bytes"
	"log"
	"strings"
	"testing"

	"github.com/comalice/sheetx/internal/primitives"
)

func TestDefaultActionRunner_Run_Func(t *testing.T) {
	ctx := primitives.NewContext()
	event := primitives.NewEvent("test", nil)
	called := false
	action := func(c *primitives.Context, e primitives.Event) {
		called = true
	}
	r := &DefaultActionRunner{}
	err := r.Run(ctx, action, event)
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if !called {
		t.Error("action func not called")
	}
}

func TestDefaultActionRunner_Run_String(t *testing.T) {
	r := &DefaultActionRunner{}
	err := r.Run(primitives.NewContext(), "unknown", primitives.NewEvent("test", nil))
	if err == nil {
		t.Fatal("expected error for unregistered action")
	}
	expected := `action ID 'unknown' not registered`
	if err.Error() != expected {
		t.Errorf("wrong error: %v", err)
	}
}

func TestDefaultActionRunner_Run_Registered(t *testing.T) {
	r := NewActionRunner(map[string]ActionFunc{
		"assignSnap": func(c *primitives.Context, e primitives.Event) {
			c.Set("snapSource", e.Data)
		},
	})
	r.Register("clear", func(c *primitives.Context, _ primitives.Event) {
		c.Delete("snapSource")
	})

	ctx := primitives.NewContext()
	if err := r.Run(ctx, "assignSnap", primitives.NewEvent("SNAP", "dragged")); err != nil {
		t.Fatal(err)
	}
	if got := ctx.GetString("snapSource"); got != "dragged" {
		t.Errorf("snapSource = %q", got)
	}
	if err := r.Run(ctx, "clear", primitives.NewEvent("x", nil)); err != nil {
		t.Fatal(err)
	}
	if _, ok := ctx.Get("snapSource"); ok {
		t.Error("clear did not run")
	}
}

func TestDefaultActionRunner_Run_Nil(t *testing.T) {
	r := &DefaultActionRunner{}
	err := r.Run(primitives.NewContext(), nil, primitives.NewEvent("test", nil))
	if err != nil {
		t.Errorf("unexpected error for nil: %v", err)
	}
}

func TestDefaultActionRunner_Run_UnknownType(t *testing.T) {
	r := &DefaultActionRunner{}
	err := r.Run(primitives.NewContext(), 42, primitives.NewEvent("test", nil))
	if err == nil || !strings.Contains(err.Error(), "unknown action type: int") {
		t.Errorf("err = %v", err)
	}
}

func TestLoggingActionRunner(t *testing.T) {
	ctx := primitives.NewContext()
	event := primitives.NewEvent("test", nil)
	called := false
	action := func(c *primitives.Context, e primitives.Event) {
		called = true
	}
	var buf bytes.Buffer
	r := NewLoggingActionRunner(&DefaultActionRunner{}, log.New(&buf, "", 0))
	err := r.Run(ctx, action, event)
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if !called {
		t.Error("inner action not called")
	}
	if !strings.Contains(buf.String(), `LOG: Executing action`) || !strings.Contains(buf.String(), `event "test"`) {
		t.Errorf("log output = %q", buf.String())
	}
}
