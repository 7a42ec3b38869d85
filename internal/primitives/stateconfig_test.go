package primitives

import (
	"strings"
	"testing"
)

func TestStateConfigValidate(t *testing.T) {
	tests := []struct {
		name        string
		newConfig   func() *StateConfig
		wantErr     bool
		errContains string
	}{
		{
			name: "valid atomic",
			newConfig: func() *StateConfig {
				return NewStateConfig("atomic", Atomic)
			},
			wantErr: false,
		},
		{
			name: "missing ID",
			newConfig: func() *StateConfig {
				return NewStateConfig("", Atomic)
			},
			wantErr:     true,
			errContains: "ID is required",
		},
		{
			name: "dotted ID",
			newConfig: func() *StateConfig {
				return NewStateConfig("a.b", Atomic)
			},
			wantErr:     true,
			errContains: "cannot contain '.'",
		},
		{
			name: "invalid type",
			newConfig: func() *StateConfig {
				return NewStateConfig("bad", StateType("invalid"))
			},
			wantErr:     true,
			errContains: "invalid state type",
		},
		{
			name: "atomic with initial",
			newConfig: func() *StateConfig {
				return NewStateConfig("atomic", Atomic).WithInitial("foo")
			},
			wantErr:     true,
			errContains: "cannot have Initial",
		},
		{
			name: "atomic with children",
			newConfig: func() *StateConfig {
				child := NewStateConfig("child", Atomic)
				return NewStateConfig("atomic", Atomic).WithChildren([]*StateConfig{child})
			},
			wantErr:     true,
			errContains: "cannot have Children",
		},
		{
			name: "invoke without onDone",
			newConfig: func() *StateConfig {
				s := NewStateConfig("start", Atomic)
				s.Invoke = "onOpenStart"
				return s
			},
			wantErr:     true,
			errContains: "requires OnDone",
		},
		{
			name: "valid invoking leaf",
			newConfig: func() *StateConfig {
				return NewStateConfig("start", Atomic).WithInvoke("onOpenStart", "opening.transition")
			},
			wantErr: false,
		},
		{
			name: "compound no initial",
			newConfig: func() *StateConfig {
				child := NewStateConfig("child", Atomic)
				return NewStateConfig("compound", Compound).WithChildren([]*StateConfig{child})
			},
			wantErr:     true,
			errContains: "requires Initial child",
		},
		{
			name: "compound invalid initial",
			newConfig: func() *StateConfig {
				return NewStateConfig("compound", Compound).WithInitial("missing").WithChildren([]*StateConfig{NewStateConfig("other", Atomic)})
			},
			wantErr:     true,
			errContains: "initial child \"missing\"",
		},
		{
			name: "compound duplicate child",
			newConfig: func() *StateConfig {
				return NewStateConfig("compound", Compound).WithInitial("a").WithChildren([]*StateConfig{
					NewStateConfig("a", Atomic),
					NewStateConfig("a", Atomic),
				})
			},
			wantErr:     true,
			errContains: "duplicate child",
		},
		{
			name: "valid compound",
			newConfig: func() *StateConfig {
				child := NewStateConfig("child", Atomic)
				return NewStateConfig("compound", Compound).WithInitial("child").WithChildren([]*StateConfig{child})
			},
			wantErr: false,
		},
		{
			name: "choice without always",
			newConfig: func() *StateConfig {
				return NewStateConfig("transition", Choice)
			},
			wantErr:     true,
			errContains: "requires Always",
		},
		{
			name: "valid choice",
			newConfig: func() *StateConfig {
				return NewStateConfig("transition", Choice).
					AddAlways(TransitionConfig{Target: "opening.immediately", Guard: "initiallyOpen"})
			},
			wantErr: false,
		},
		{
			name: "always on atomic",
			newConfig: func() *StateConfig {
				return NewStateConfig("plain", Atomic).AddAlways(TransitionConfig{Target: "x"})
			},
			wantErr:     true,
			errContains: "only choice states",
		},
		{
			name: "final with transitions",
			newConfig: func() *StateConfig {
				return NewStateConfig("done", Final).Transition("OPEN", "opening")
			},
			wantErr:     true,
			errContains: "final state",
		},
		{
			name: "empty event name",
			newConfig: func() *StateConfig {
				s := NewStateConfig("s", Atomic)
				s.On = map[string][]TransitionConfig{
					"": {{Event: "e", Target: "t"}},
				}
				return s
			},
			wantErr:     true,
			errContains: "empty event name",
		},
		{
			name: "invalid transition",
			newConfig: func() *StateConfig {
				return NewStateConfig("s", Atomic).Transition("DRAG", "bad target")
			},
			wantErr:     true,
			errContains: "invalid character",
		},
		{
			name: "invalid child recursive",
			newConfig: func() *StateConfig {
				goodChild := NewStateConfig("good", Atomic)
				badChild := NewStateConfig("", Atomic)
				parent := NewStateConfig("parent", Compound).WithInitial("good").WithChildren([]*StateConfig{goodChild, badChild})
				return parent
			},
			wantErr:     true,
			errContains: "ID is required",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc := tt.newConfig()
			err := sc.Validate()
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error but got nil")
				}
				if tt.errContains != "" && !strings.Contains(err.Error(), tt.errContains) {
					t.Errorf(`Validate() error = "%v", want contains "%s"`, err, tt.errContains)
				}
			} else {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
			}
		})
	}
}

func TestStateConfigForbidAndTransition(t *testing.T) {
	s := NewStateConfig("closed", Atomic).
		Transition("OPEN", "opening").
		Forbid("CLOSE")

	open := s.On["OPEN"]
	if len(open) != 1 || open[0].Target != "opening" || open[0].Event != "OPEN" {
		t.Fatalf("OPEN transition = %+v", open)
	}
	closeT := s.On["CLOSE"]
	if len(closeT) != 1 || !closeT[0].Forbid {
		t.Fatalf("CLOSE should be forbidden, got %+v", closeT)
	}
	if err := s.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}
