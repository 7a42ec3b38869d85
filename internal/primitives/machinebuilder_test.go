package primitives

import (
	"strings"
	"testing"
)

func buildLifecycle(t *testing.T) MachineConfig {
	t.Helper()
	mb := NewMachineBuilder("lifecycle", "idle")
	mb.Atomic("idle").Transition("GO", "working").Forbid("STOP")
	working := mb.Compound("working").WithInitial("start").OnDone("idle").OnError("idle")
	working.Atomic("start").Invoke("begin", "working.pick")
	working.Choice("pick").
		Always("working.fast", "isFast").
		Always("working.slow", "isSlow")
	working.Atomic("fast").Invoke("runFast", "working.done")
	working.Atomic("slow").Invoke("runSlow", "working.done")
	working.Final("done")
	mb.On("STOP", "idle")

	cfg, err := mb.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return cfg
}

func TestMachineBuilderNested(t *testing.T) {
	cfg := buildLifecycle(t)

	pick, err := cfg.FindState("working.pick")
	if err != nil {
		t.Fatal(err)
	}
	if pick.Type != Choice || len(pick.Always) != 2 {
		t.Errorf("pick = %+v", pick)
	}
	start, _ := cfg.FindState("working.start")
	if start.Invoke != "begin" || start.OnDone != "working.pick" {
		t.Errorf("start invoke = %q onDone = %q", start.Invoke, start.OnDone)
	}
	if len(cfg.On["STOP"]) != 1 || cfg.On["STOP"][0].Target != "idle" {
		t.Errorf("root STOP = %+v", cfg.On["STOP"])
	}
	if len(cfg.States) != 2 {
		t.Errorf("expected 2 top-level states, got %d", len(cfg.States))
	}
}

func TestMachineBuilderUp(t *testing.T) {
	mb := NewMachineBuilder("m", "a")
	a := mb.Compound("a").WithInitial("b")
	b := a.Compound("b").WithInitial("c")
	c := b.Atomic("c")
	if c.Up() != b || b.Up() != a || a.Up() != a {
		t.Error("Up should walk to the enclosing builder and stop at the top")
	}
	if _, err := mb.Build(); err != nil {
		t.Fatal(err)
	}
}

func TestMachineBuilderBuildInvalid(t *testing.T) {
	mb := NewMachineBuilder("m", "a")
	mb.Atomic("a").Transition("GO", "nowhere")
	if _, err := mb.Build(); err == nil || !strings.Contains(err.Error(), "nowhere") {
		t.Errorf("Build error = %v, want unknown target", err)
	}

	defer func() {
		if recover() == nil {
			t.Error("MustBuild should panic on invalid chart")
		}
	}()
	mb.MustBuild()
}

func TestComputeVersion(t *testing.T) {
	cfg := buildLifecycle(t)
	v1 := ComputeVersion(&cfg)
	v2 := ComputeVersion(&cfg)
	if v1 != v2 || len(v1) != 16 {
		t.Errorf("ComputeVersion not stable: %q vs %q", v1, v2)
	}

	cfg.Version = "v7"
	if got := ComputeVersion(&cfg); got != "v7" {
		t.Errorf("explicit version ignored: %q", got)
	}

	withFunc := MachineConfig{ID: "f", Initial: "a", States: map[string]*StateConfig{
		"a": NewStateConfig("a", Atomic).AddEntry(func(*Context, Event) {}),
	}}
	if got := ComputeVersion(&withFunc); !strings.HasPrefix(got, "unversioned-") {
		t.Errorf("func-valued config version = %q", got)
	}
}
