// Package primitives defines the foundational data structures for the chart engine.
// TransitionConfig defines transitions between states with guards, actions, and priority.
//
// Targets are absolute dot-separated paths from the chart root (e.g. "opening.end").
// Guards and Actions are pluggable references (function or string name) resolved
// by the GuardEvaluator / ActionRunner configured on the machine.
// Higher Priority values are evaluated first within one state.
package primitives

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ActionRef references an action: either a string name or func(*Context, Event).
type ActionRef any

// GuardRef references a guard condition: either a string name or func(*Context, Event) bool.
type GuardRef any

// TransitionConfig defines a single transition triggered by an Event.
type TransitionConfig struct {
	Event    string      `json:"event,omitempty" yaml:"event,omitempty"`
	Guard    GuardRef    `json:"guard,omitempty" yaml:"guard,omitempty"`
	Target   string      `json:"target,omitempty" yaml:"target,omitempty"`
	Actions  []ActionRef `json:"actions,omitempty" yaml:"actions,omitempty"`
	Priority int         `json:"priority,omitempty" yaml:"priority,omitempty"` // higher = evaluated first (default 0)
	// Forbid consumes the event without transitioning, shadowing ancestor handlers.
	Forbid bool `json:"forbid,omitempty" yaml:"forbid,omitempty"`
}

// Validate checks TransitionConfig fields and target path syntax.
func (t *TransitionConfig) Validate() error {
	if t.Event == "" {
		return errors.New("event is required")
	}
	if t.Forbid {
		if t.Target != "" || len(t.Actions) > 0 {
			return errors.New("forbidden transition cannot have a target or actions")
		}
		return nil
	}
	if t.Target == "" {
		return errors.New("target is required")
	}
	if err := ValidatePath(t.Target); err != nil {
		return err
	}
	if t.Priority < 0 {
		return errors.New("priority must be non-negative")
	}
	return nil
}

// ValidatePath checks dot-path syntax: non-empty alphanumeric segments
// (underscores and hyphens allowed).
func ValidatePath(path string) error {
	segments := strings.Split(path, ".")
	for i, seg := range segments {
		seg = strings.TrimSpace(seg)
		if seg == "" {
			return fmt.Errorf("invalid target path %q: empty segment at index %d", path, i)
		}
		for _, r := range seg {
			if !((r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' || r == '-') {
				return fmt.Errorf("invalid target path %q: invalid character '%c' at index %d", path, r, i)
			}
		}
	}
	return nil
}

// SortTransitions sorts the slice in place by Priority descending (highest first).
// Document order is preserved among equal priorities.
func SortTransitions(transitions []TransitionConfig) {
	sort.SliceStable(transitions, func(i, j int) bool {
		return transitions[i].Priority > transitions[j].Priority
	})
}
