// Package primitives defines the foundational data structures for the chart engine.
//
// StateConfig represents a state in the chart. Besides plain atomic and compound
// states the model supports three kinds the overlay lifecycle depends on:
//   - invoking leaves (Invoke set): entering them starts one named asynchronous
//     effect whose completion follows OnDone
//   - choice pseudo-states: resolved immediately through guarded Always transitions
//   - final states: entering one resolves the parent compound to its OnDone target
package primitives

import (
	"errors"
	"fmt"
	"strings"
)

// StateType defines the possible types of states in the chart.
type StateType string

const (
	Atomic   StateType = "atomic"
	Compound StateType = "compound"
	Choice   StateType = "choice"
	Final    StateType = "final"
)

// StateConfig defines a state configuration, supporting hierarchical nesting.
type StateConfig struct {
	ID           string                        `json:"id" yaml:"id"`
	Type         StateType                     `json:"type" yaml:"type"`
	Initial      string                        `json:"initial,omitempty" yaml:"initial,omitempty"` // Initial child for compound
	On           map[string][]TransitionConfig `json:"on,omitempty" yaml:"on,omitempty"`
	Always       []TransitionConfig            `json:"always,omitempty" yaml:"always,omitempty"` // Eventless, choice states only
	Invoke       string                        `json:"invoke,omitempty" yaml:"invoke,omitempty"` // Effect name
	OnDone       string                        `json:"onDone,omitempty" yaml:"onDone,omitempty"` // Absolute target path
	OnError      string                        `json:"onError,omitempty" yaml:"onError,omitempty"`
	// ErrorActions run on the OnError transition, between exits and entries.
	ErrorActions []ActionRef                   `json:"onErrorActions,omitempty" yaml:"onErrorActions,omitempty"`
	Entry        []ActionRef                   `json:"entry,omitempty" yaml:"entry,omitempty"`
	Exit         []ActionRef                   `json:"exit,omitempty" yaml:"exit,omitempty"`
	Children     []*StateConfig                `json:"children,omitempty" yaml:"children,omitempty"`
}

// NewStateConfig creates a new StateConfig with ID and Type.
func NewStateConfig(id string, typ StateType) *StateConfig {
	return &StateConfig{
		ID:   id,
		Type: typ,
	}
}

// WithInitial sets the initial child state ID (for compound).
func (s *StateConfig) WithInitial(initial string) *StateConfig {
	s.Initial = initial
	return s
}

// WithOn sets the event-to-transition map.
func (s *StateConfig) WithOn(on map[string][]TransitionConfig) *StateConfig {
	s.On = make(map[string][]TransitionConfig)
	for k, v := range on {
		s.On[k] = v
	}
	return s
}

// AddTransition adds a transition for an event.
func (s *StateConfig) AddTransition(event string, trans TransitionConfig) *StateConfig {
	if s.On == nil {
		s.On = make(map[string][]TransitionConfig)
	}
	if trans.Event == "" {
		trans.Event = event
	}
	s.On[event] = append(s.On[event], trans)
	return s
}

// WithInvoke sets the effect invoked on entry and the target followed when it completes.
func (s *StateConfig) WithInvoke(effect, onDone string) *StateConfig {
	s.Invoke = effect
	s.OnDone = onDone
	return s
}

// WithOnDone sets the target followed when a compound state's final child is reached.
func (s *StateConfig) WithOnDone(target string) *StateConfig {
	s.OnDone = target
	return s
}

// WithOnError sets the target followed when an effect inside this state fails.
func (s *StateConfig) WithOnError(target string, actions ...ActionRef) *StateConfig {
	s.OnError = target
	s.ErrorActions = actions
	return s
}

// AddAlways adds a guarded eventless transition (choice states).
func (s *StateConfig) AddAlways(trans TransitionConfig) *StateConfig {
	s.Always = append(s.Always, trans)
	return s
}

// AddEntry adds an entry action.
func (s *StateConfig) AddEntry(action ActionRef) *StateConfig {
	s.Entry = append(s.Entry, action)
	return s
}

// AddExit adds an exit action.
func (s *StateConfig) AddExit(action ActionRef) *StateConfig {
	s.Exit = append(s.Exit, action)
	return s
}

// WithChildren sets child states.
func (s *StateConfig) WithChildren(children []*StateConfig) *StateConfig {
	s.Children = children
	return s
}

// AddChild adds a child state.
func (s *StateConfig) AddChild(child *StateConfig) *StateConfig {
	s.Children = append(s.Children, child)
	return s
}

// State creates and adds a child state (atomic by default, or specified type).
// Returns the child for fluent chaining: parent.State("child").Transition("evt", "target").
func (s *StateConfig) State(id string, typ ...StateType) *StateConfig {
	t := Atomic
	if len(typ) > 0 {
		t = typ[0]
	}
	child := NewStateConfig(id, t)
	s.AddChild(child)
	return child
}

// Transition adds a simple transition from event to target.
// Usage: .Transition("evt", "target") or .Transition("evt", "target", TransitionConfig{Guard: "g"}).
func (s *StateConfig) Transition(event, target string, transOpts ...TransitionConfig) *StateConfig {
	trans := TransitionConfig{Target: target}
	if len(transOpts) > 0 {
		trans = transOpts[0]
		trans.Target = target
	}
	return s.AddTransition(event, trans)
}

// Forbid blocks an event at this state so that no ancestor handles it either.
func (s *StateConfig) Forbid(event string) *StateConfig {
	return s.AddTransition(event, TransitionConfig{Forbid: true})
}

// Child returns the direct child with the given ID, or nil.
func (s *StateConfig) Child(id string) *StateConfig {
	for _, c := range s.Children {
		if c.ID == id {
			return c
		}
	}
	return nil
}

// Validate performs recursive validation of the StateConfig tree.
func (s *StateConfig) Validate() error {
	if s.ID == "" {
		return errors.New("state ID is required")
	}
	if strings.Contains(s.ID, ".") {
		return fmt.Errorf("state ID %q cannot contain '.'", s.ID)
	}

	switch s.Type {
	case Atomic:
		if s.Initial != "" {
			return fmt.Errorf("atomic state %s cannot have Initial", s.ID)
		}
		if len(s.Children) > 0 {
			return fmt.Errorf("atomic state %s cannot have Children", s.ID)
		}
		if s.Invoke != "" && s.OnDone == "" {
			return fmt.Errorf("invoking state %s requires OnDone", s.ID)
		}
	case Compound:
		if len(s.Children) == 0 {
			return fmt.Errorf("%s state %s requires Children", s.Type, s.ID)
		}
		if s.Initial == "" {
			return fmt.Errorf("%s state %s requires Initial child", s.Type, s.ID)
		}
		if s.Child(s.Initial) == nil {
			return fmt.Errorf("initial child %q not found in children of %s", s.Initial, s.ID)
		}
		if s.Invoke != "" {
			return fmt.Errorf("compound state %s cannot invoke effects", s.ID)
		}
		seen := make(map[string]struct{}, len(s.Children))
		for _, child := range s.Children {
			if _, dup := seen[child.ID]; dup {
				return fmt.Errorf("duplicate child %q in %s", child.ID, s.ID)
			}
			seen[child.ID] = struct{}{}
		}
	case Choice:
		if len(s.Always) == 0 {
			return fmt.Errorf("choice state %s requires Always transitions", s.ID)
		}
		if len(s.Children) > 0 || s.Invoke != "" {
			return fmt.Errorf("choice state %s must be a leaf without effects", s.ID)
		}
	case Final:
		if len(s.Children) > 0 || s.Invoke != "" || len(s.On) > 0 {
			return fmt.Errorf("final state %s cannot have children, effects or transitions", s.ID)
		}
	default:
		return fmt.Errorf("invalid state type %q for state %s", s.Type, s.ID)
	}

	if s.Type != Choice && len(s.Always) > 0 {
		return fmt.Errorf("only choice states may declare Always transitions (state %s)", s.ID)
	}

	for event, transitions := range s.On {
		if strings.TrimSpace(event) == "" {
			return fmt.Errorf("empty event name in On map for state %s", s.ID)
		}
		for i := range transitions {
			if err := transitions[i].Validate(); err != nil {
				return fmt.Errorf("state %s event %q transition %d: %w", s.ID, event, i, err)
			}
		}
	}

	for i, child := range s.Children {
		if err := child.Validate(); err != nil {
			return fmt.Errorf("child %d (%s) of %s failed validation: %w", i, child.ID, s.ID, err)
		}
	}

	return nil
}
