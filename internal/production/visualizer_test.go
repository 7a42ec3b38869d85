// Tests for DefaultVisualizer DOT export and hierarchy rendering.
package production

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/comalice/sheetx/internal/primitives"
)

func TestDefaultVisualizer_ExportDOT_Simple(t *testing.T) {
	v := &DefaultVisualizer{}
	config := primitives.MachineConfig{
		ID:      "simple",
		Initial: "s1",
		States: map[string]*primitives.StateConfig{
			"s1": {
				ID:   "s1",
				Type: primitives.Atomic,
				On: map[string][]primitives.TransitionConfig{
					"e1": {{Target: "s2"}},
				},
			},
			"s2": {ID: "s2", Type: primitives.Atomic},
		},
	}
	dot := v.ExportDOT(config, "s2")

	if !strings.HasPrefix(dot, `digraph "simple" {`) {
		t.Error("Missing DOT header")
	}
	if !strings.Contains(dot, `"s1"`) || !strings.Contains(dot, `"s2"`) {
		t.Error("Missing state nodes")
	}
	if !strings.Contains(dot, `"s1" -> "s2" [label="e1"];`) {
		t.Errorf("Missing transition edge:\n%s", dot)
	}
	if !strings.Contains(dot, `"s2" [label="s2" style=filled fillcolor=lightgreen];`) {
		t.Errorf("Missing active state highlight:\n%s", dot)
	}
	if !strings.Contains(dot, `"__initial" -> "s1";`) {
		t.Error("Missing initial edge")
	}
}

func hierarchyConfig() primitives.MachineConfig {
	mb := primitives.NewMachineBuilder("sheet", "closed")
	mb.Atomic("closed").Transition("OPEN", "opening").Forbid("CLOSE")
	opening := mb.Compound("opening").WithInitial("start").OnDone("open").OnError("closed")
	opening.Atomic("start").Invoke("onOpenStart", "opening.pick")
	opening.Choice("pick").Always("opening.done", "initiallyOpen")
	opening.Final("done")
	closing := mb.Compound("closing").WithInitial("start").OnError("closed", "onCloseAbort")
	closing.Atomic("start").Invoke("onCloseStart", "closed")
	mb.Atomic("open")
	mb.On("CLOSE", "closing")
	return mb.MustBuild()
}

func TestDefaultVisualizer_ExportDOT_Hierarchy(t *testing.T) {
	v := &DefaultVisualizer{}
	dot := v.ExportDOT(hierarchyConfig(), "opening.start")

	tests := []struct {
		name string
		want string
	}{
		{"cluster", `subgraph "cluster_opening" {`},
		{"active compound", `label="opening (compound)"; style=filled fillcolor=orange`},
		{"active leaf", `"opening.start" [label="start\nonOpenStart()" style=filled fillcolor=lightgreen];`},
		{"same child id kept apart", `"closing.start" [label="start\nonCloseStart()"];`},
		{"choice shape", `"opening.pick" [label="pick" shape=diamond];`},
		{"final shape", `"opening.done" [label="done" shape=doublecircle];`},
		{"done edge", `"opening.start" -> "opening.pick" [label="done: onOpenStart", style=bold];`},
		{"compound done edge", `"opening" -> "open" [label="done", style=bold];`},
		{"error edge", `"opening" -> "closed" [label="error", style=dotted];`},
		{"error edge with action", `"closing" -> "closed" [label="error / onCloseAbort", style=dotted];`},
		{"always edge", `"opening.pick" -> "opening.done" [label="[initiallyOpen]", style=dashed];`},
		{"root edge", `"__any" -> "closing" [label="CLOSE"];`},
	}
	for _, tt := range tests {
		if !strings.Contains(dot, tt.want) {
			t.Errorf("%s: missing %s in\n%s", tt.name, tt.want, dot)
		}
	}
	if strings.Contains(dot, `"closed" -> "closed"`) {
		t.Error("forbidden transition rendered as edge")
	}
}

func TestDefaultVisualizer_ExportDOT_Deterministic(t *testing.T) {
	v := &DefaultVisualizer{}
	config := hierarchyConfig()
	first := v.ExportDOT(config, "open")
	for i := 0; i < 10; i++ {
		if got := v.ExportDOT(config, "open"); got != first {
			t.Fatal("ExportDOT output not stable across calls")
		}
	}
}

func TestCollectEdges_Sorted(t *testing.T) {
	edges := CollectEdges(hierarchyConfig())
	for i := 1; i < len(edges); i++ {
		if edges[i-1].From > edges[i].From {
			t.Errorf("edges not sorted at %d: %q after %q", i, edges[i].From, edges[i-1].From)
		}
	}
}

func TestDefaultVisualizer_ExportJSON(t *testing.T) {
	v := &DefaultVisualizer{}
	data, err := v.ExportJSON(hierarchyConfig())
	if err != nil {
		t.Fatal(err)
	}
	var decoded primitives.MachineConfig
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded.ID != "sheet" || decoded.States["opening"].Initial != "start" {
		t.Errorf("decoded = %+v", decoded)
	}
}
