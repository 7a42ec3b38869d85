// Helper functions for chart precomputation and path calculations.
// Placed in separate file to organize code.

package core

import (
	"fmt"
	"strings"

	"github.com/comalice/sheetx/internal/primitives"
)

// Chart is a validated MachineConfig with precomputed lookup tables.
// It is read-only after Compile and safe to share between machines.
type Chart struct {
	config      primitives.MachineConfig
	states      map[string]*primitives.StateConfig
	ancestors   map[string][]string                                // path -> ancestor paths, outermost first, including self
	transitions map[string]map[string][]primitives.TransitionConfig // path -> event -> priority-sorted; "" is the root
}

// Compile validates config and builds the lookup tables.
func Compile(config primitives.MachineConfig) (*Chart, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid chart: %w", err)
	}
	c := &Chart{
		config:      config,
		states:      make(map[string]*primitives.StateConfig),
		ancestors:   make(map[string][]string),
		transitions: make(map[string]map[string][]primitives.TransitionConfig),
	}
	for _, id := range config.TopLevelIDs() {
		precomputePaths(config.States[id], "", c.states, c.ancestors)
	}
	c.transitions[""] = sortedTransitions(config.On)
	for path, state := range c.states {
		c.transitions[path] = sortedTransitions(state.On)
	}
	return c, nil
}

// Config returns the compiled configuration.
func (c *Chart) Config() primitives.MachineConfig {
	return c.config
}

// State returns the state at path, or nil.
func (c *Chart) State(path string) *primitives.StateConfig {
	return c.states[path]
}

// IsLeaf reports whether path names an existing state without children.
func (c *Chart) IsLeaf(path string) bool {
	s, ok := c.states[path]
	return ok && len(s.Children) == 0
}

// Leaves returns every leaf path in walk order.
func (c *Chart) Leaves() []string {
	var leaves []string
	c.config.Walk(func(path string, s *primitives.StateConfig) bool {
		if len(s.Children) == 0 {
			leaves = append(leaves, path)
		}
		return true
	})
	return leaves
}

func sortedTransitions(on map[string][]primitives.TransitionConfig) map[string][]primitives.TransitionConfig {
	out := make(map[string][]primitives.TransitionConfig, len(on))
	for event, list := range on {
		cp := append([]primitives.TransitionConfig(nil), list...)
		primitives.SortTransitions(cp)
		out[event] = cp
	}
	return out
}

// precomputePaths recursively traverses the state hierarchy starting from a state with given prefix.
// Builds stateCache[path] = stateConfig and ancestorCache[path] = []ancestorPaths including self.
func precomputePaths(state *primitives.StateConfig, prefix string, stateCache map[string]*primitives.StateConfig, ancestorCache map[string][]string) {
	fullpath := prefix
	if prefix != "" {
		fullpath += "."
	}
	fullpath += state.ID

	stateCache[fullpath] = state

	var ancestors []string
	if prefix == "" {
		ancestors = []string{fullpath}
	} else {
		prefixAncestors := ancestorCache[prefix]
		ancestors = append(make([]string, 0, len(prefixAncestors)+1), prefixAncestors...)
		ancestors = append(ancestors, fullpath)
	}
	ancestorCache[fullpath] = ancestors

	for _, child := range state.Children {
		precomputePaths(child, fullpath, stateCache, ancestorCache)
	}
}

// parentPath returns the parent path of a dot path ("" for top-level states).
func parentPath(path string) string {
	idx := strings.LastIndex(path, ".")
	if idx == -1 {
		return ""
	}
	return path[:idx]
}

// matchesPath reports whether leaf equals path or descends from it.
func matchesPath(leaf, path string) bool {
	return leaf == path || strings.HasPrefix(leaf, path+".")
}
