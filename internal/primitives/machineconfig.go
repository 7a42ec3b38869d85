// Package primitives defines the foundational data structures for the chart engine.
//
// MachineConfig represents the top-level configuration of a chart: the chart ID,
// the initial top-level state, the top-level states keyed by ID, and root-level
// transitions that apply in every state unless shadowed further down.
// Validation ensures ID/Initial presence, state validity, that every target
// resolves to a real path, and that no top-level state is orphaned.

package primitives

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// MachineConfig defines the complete chart configuration.
type MachineConfig struct {
	Version string                        `json:"version,omitempty" yaml:"version,omitempty"`
	ID      string                        `json:"id" yaml:"id"`
	Initial string                        `json:"initial" yaml:"initial"`
	States  map[string]*StateConfig       `json:"states" yaml:"states"`
	On      map[string][]TransitionConfig `json:"on,omitempty" yaml:"on,omitempty"` // root-level transitions
}

// Validate validates the entire machine configuration:
// - Non-empty ID and Initial
// - Initial exists in States
// - All individual states validate (recursive)
// - All transition, Always, OnDone and OnError targets resolve
// - No orphaned top-level states (all reachable from Initial via transitions)
func (m *MachineConfig) Validate() error {
	if m.ID == "" {
		return errors.New("machine ID is required")
	}
	if m.Initial == "" {
		return errors.New("initial state ID is required")
	}
	if len(m.States) == 0 {
		return errors.New("states map is required and cannot be empty")
	}
	if _, err := m.FindState(m.Initial); err != nil {
		return fmt.Errorf("initial state %q not found in states", m.Initial)
	}

	for _, sid := range m.TopLevelIDs() {
		state := m.States[sid]
		if state == nil {
			return fmt.Errorf("state %q is nil", sid)
		}
		if state.ID != sid {
			return fmt.Errorf("state key %q does not match ID %q", sid, state.ID)
		}
		if err := state.Validate(); err != nil {
			return fmt.Errorf("state %q validation failed: %w", sid, err)
		}
	}

	for event, transitions := range m.On {
		for i := range transitions {
			if err := transitions[i].Validate(); err != nil {
				return fmt.Errorf("root event %q transition %d: %w", event, i, err)
			}
			if err := m.checkTarget(transitions[i].Target); err != nil {
				return fmt.Errorf("root event %q: %w", event, err)
			}
		}
	}

	var walkErr error
	m.Walk(func(path string, s *StateConfig) bool {
		for event, transitions := range s.On {
			for i, trans := range transitions {
				if err := m.checkTarget(trans.Target); err != nil {
					walkErr = fmt.Errorf("invalid transition target %q (state %q, event %q, transition %d): %w", trans.Target, path, event, i, err)
					return false
				}
			}
		}
		for i, trans := range s.Always {
			if trans.Target == "" {
				walkErr = fmt.Errorf("always transition %d of %q has no target", i, path)
				return false
			}
			if err := m.checkTarget(trans.Target); err != nil {
				walkErr = fmt.Errorf("invalid always target %q (state %q): %w", trans.Target, path, err)
				return false
			}
		}
		if err := m.checkTarget(s.OnDone); err != nil {
			walkErr = fmt.Errorf("invalid onDone target %q (state %q): %w", s.OnDone, path, err)
			return false
		}
		if err := m.checkTarget(s.OnError); err != nil {
			walkErr = fmt.Errorf("invalid onError target %q (state %q): %w", s.OnError, path, err)
			return false
		}
		return true
	})
	if walkErr != nil {
		return walkErr
	}

	// Check no orphaned states via reachability
	visited := make(map[string]bool)
	m.markReachable(m.topID(m.Initial), visited)
	for _, transitions := range m.On {
		for _, trans := range transitions {
			m.markReachable(m.topID(trans.Target), visited)
		}
	}
	for _, sid := range m.TopLevelIDs() {
		if !visited[sid] {
			return fmt.Errorf("orphaned state %q (not reachable from initial %q)", sid, m.Initial)
		}
	}

	return nil
}

func (m *MachineConfig) checkTarget(target string) error {
	if target == "" {
		return nil
	}
	if err := ValidatePath(target); err != nil {
		return err
	}
	_, err := m.FindState(target)
	return err
}

func (m *MachineConfig) topID(path string) string {
	return strings.Split(path, ".")[0]
}

// markReachable marks top-level states reachable through any transition,
// Always, OnDone or OnError target found inside the given top-level state.
func (m *MachineConfig) markReachable(topID string, visited map[string]bool) {
	if visited[topID] {
		return
	}
	state, ok := m.States[topID]
	if !ok {
		return
	}
	visited[topID] = true

	var targets []string
	walkState(topID, state, func(_ string, s *StateConfig) bool {
		for _, transitions := range s.On {
			for _, trans := range transitions {
				targets = append(targets, trans.Target)
			}
		}
		for _, trans := range s.Always {
			targets = append(targets, trans.Target)
		}
		targets = append(targets, s.OnDone, s.OnError)
		return true
	})
	for _, target := range targets {
		if target != "" {
			m.markReachable(m.topID(target), visited)
		}
	}
}

// TopLevelIDs returns the top-level state IDs in sorted order.
func (m *MachineConfig) TopLevelIDs() []string {
	ids := make([]string, 0, len(m.States))
	for id := range m.States {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Walk visits every state depth-first with its full path. Top-level states are
// visited in sorted order, children in declaration order. Returning false from
// fn stops the walk.
func (m *MachineConfig) Walk(fn func(path string, s *StateConfig) bool) {
	for _, id := range m.TopLevelIDs() {
		if s := m.States[id]; s != nil {
			if !walkState(id, s, fn) {
				return
			}
		}
	}
}

func walkState(path string, s *StateConfig, fn func(string, *StateConfig) bool) bool {
	if !fn(path, s) {
		return false
	}
	for _, child := range s.Children {
		if !walkState(path+"."+child.ID, child, fn) {
			return false
		}
	}
	return true
}

// FindState resolves a state by hierarchical path (e.g. "parent.child.grandchild").
func (m *MachineConfig) FindState(path string) (*StateConfig, error) {
	if path == "" {
		return nil, errors.New("path cannot be empty")
	}
	segments := strings.Split(path, ".")
	current, ok := m.States[segments[0]]
	if !ok || current == nil {
		return nil, fmt.Errorf("state %q not found", segments[0])
	}
	for i := 1; i < len(segments); i++ {
		child := current.Child(segments[i])
		if child == nil {
			prefix := strings.Join(segments[:i], ".")
			return nil, fmt.Errorf("child %q not found in %q", segments[i], prefix)
		}
		current = child
	}
	return current, nil
}
