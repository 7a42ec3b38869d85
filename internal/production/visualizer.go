package production

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/comalice/sheetx/internal/primitives"
)

// DefaultVisualizer renders charts as Graphviz DOT or JSON.
// Nodes are keyed by full dot path so equal child IDs in different parents
// stay distinct.
type DefaultVisualizer struct{}

// Edge represents a transition edge.
type Edge struct {
	From  string
	To    string
	Label string
	Style string
}

// ExportDOT generates Graphviz DOT source for the statechart with the active
// leaf and its ancestors highlighted. Output is deterministic.
func (v *DefaultVisualizer) ExportDOT(config primitives.MachineConfig, current string) string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "digraph %q {\n", config.ID)
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  node [shape=box, fontsize=10, style=rounded];\n")
	buf.WriteString("  edge [fontsize=9];\n")

	active := activePaths(current)
	for _, id := range config.TopLevelIDs() {
		renderState(&buf, id, config.States[id], active, "  ")
	}

	fmt.Fprintf(&buf, "  %q [shape=point];\n", "__initial")
	fmt.Fprintf(&buf, "  %q -> %q;\n", "__initial", config.Initial)
	if len(config.On) > 0 {
		fmt.Fprintf(&buf, "  %q [shape=doublecircle, label=\"*\", width=0.2];\n", "__any")
	}
	for _, e := range CollectEdges(config) {
		attrs := fmt.Sprintf("label=%q", e.Label)
		if e.Style != "" {
			attrs += ", style=" + e.Style
		}
		fmt.Fprintf(&buf, "  %q -> %q [%s];\n", e.From, e.To, attrs)
	}

	buf.WriteString("}\n")
	return buf.String()
}

// ExportJSON serializes the machine config to JSON.
func (v *DefaultVisualizer) ExportJSON(config primitives.MachineConfig) ([]byte, error) {
	return json.MarshalIndent(config, "", "  ")
}

// activePaths returns the active leaf and all its ancestors.
func activePaths(current string) map[string]bool {
	active := make(map[string]bool)
	if current == "" {
		return active
	}
	segments := strings.Split(current, ".")
	for i := range segments {
		active[strings.Join(segments[:i+1], ".")] = true
	}
	return active
}

// CollectEdges lists every transition of the chart: event transitions,
// eventless (always) transitions, done and error transitions, and root
// transitions from the "__any" node. Edges are sorted.
func CollectEdges(config primitives.MachineConfig) []Edge {
	var edges []Edge
	for event, list := range config.On {
		for _, trans := range list {
			if !trans.Forbid {
				edges = append(edges, Edge{From: "__any", To: trans.Target, Label: event})
			}
		}
	}
	config.Walk(func(path string, s *primitives.StateConfig) bool {
		for event, list := range s.On {
			for _, trans := range list {
				if trans.Forbid {
					continue
				}
				label := event
				if trans.Guard != nil {
					label += fmt.Sprintf(" [%v]", trans.Guard)
				}
				edges = append(edges, Edge{From: path, To: trans.Target, Label: label})
			}
		}
		for _, trans := range s.Always {
			edges = append(edges, Edge{From: path, To: trans.Target, Label: fmt.Sprintf("[%v]", trans.Guard), Style: "dashed"})
		}
		if s.OnDone != "" {
			label := "done"
			if s.Invoke != "" {
				label = "done: " + s.Invoke
			}
			edges = append(edges, Edge{From: path, To: s.OnDone, Label: label, Style: "bold"})
		}
		if s.OnError != "" {
			label := "error"
			for _, a := range s.ErrorActions {
				label += fmt.Sprintf(" / %v", a)
			}
			edges = append(edges, Edge{From: path, To: s.OnError, Label: label, Style: "dotted"})
		}
		return true
	})
	sort.SliceStable(edges, func(i, j int) bool {
		if edges[i].From != edges[j].From {
			return edges[i].From < edges[j].From
		}
		if edges[i].Label != edges[j].Label {
			return edges[i].Label < edges[j].Label
		}
		return edges[i].To < edges[j].To
	})
	return edges
}

// renderState recursively renders states and subgraphs.
func renderState(buf *bytes.Buffer, path string, state *primitives.StateConfig, active map[string]bool, indent string) {
	if len(state.Children) > 0 {
		fmt.Fprintf(buf, "%ssubgraph %q {\n", indent, "cluster_"+path)
		label := fmt.Sprintf("%s (%s)", state.ID, state.Type)
		style := ""
		if active[path] {
			style = " style=filled fillcolor=orange"
		}
		fmt.Fprintf(buf, "%s  label=%q;%s\n", indent, label, style)
		// Parent node so edges can attach to the compound itself.
		fmt.Fprintf(buf, "%s  %q [label=%q shape=ellipse%s];\n", indent, path, state.ID, style)
		for _, child := range state.Children {
			renderState(buf, path+"."+child.ID, child, active, indent+"  ")
		}
		fmt.Fprintf(buf, "%s}\n", indent)
		return
	}

	label := state.ID
	shape := ""
	switch state.Type {
	case primitives.Choice:
		shape = " shape=diamond"
	case primitives.Final:
		shape = " shape=doublecircle"
	}
	if state.Invoke != "" {
		label += "\\n" + state.Invoke + "()"
	}
	style := ""
	if active[path] {
		style = " style=filled fillcolor=lightgreen"
	}
	fmt.Fprintf(buf, "%s%q [label=\"%s\"%s%s];\n", indent, path, label, shape, style)
}
