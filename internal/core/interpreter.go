package core

import (
	"fmt"
	"strings"

	"github.com/comalice/sheetx/internal/primitives"
)

// GuardFunc evaluates a guard reference against the triggering event.
type GuardFunc func(guard primitives.GuardRef, event primitives.Event) bool

// Step is a planned transition: the states to exit (innermost first), the
// transition actions, the states to enter (outermost first) and the
// resulting leaf. Invoke names the effect the leaf starts, if any.
type Step struct {
	Source  string
	Target  string
	Exits   []string
	Actions []primitives.ActionRef
	Entries []string
	Leaf    string
	Invoke  string
}

// Plan selects the transition leaf takes on event. Active states are searched
// innermost first, then the root. The first forbidding or guard-passing
// transition decides; a state whose guards all fail defers to its ancestors.
// ok is false when the event is ignored.
func (c *Chart) Plan(leaf string, event primitives.Event, guard GuardFunc) (step Step, ok bool) {
	ancestors := c.ancestors[leaf]
	for i := len(ancestors) - 1; i >= 0; i-- {
		source := ancestors[i]
		trans, forbidden, found := selectTransition(c.transitions[source][event.Type], event, guard)
		if forbidden {
			return Step{}, false
		}
		if found {
			return c.step(leaf, source, trans.Target, trans.Actions), true
		}
	}
	trans, forbidden, found := selectTransition(c.transitions[""][event.Type], event, guard)
	if forbidden || !found {
		return Step{}, false
	}
	return c.step(leaf, "", trans.Target, trans.Actions), true
}

func selectTransition(list []primitives.TransitionConfig, event primitives.Event, guard GuardFunc) (primitives.TransitionConfig, bool, bool) {
	for _, t := range list {
		if t.Forbid {
			return t, true, false
		}
		if !passes(guard, t.Guard, event) {
			continue
		}
		return t, false, true
	}
	return primitives.TransitionConfig{}, false, false
}

func passes(guard GuardFunc, ref primitives.GuardRef, event primitives.Event) bool {
	if ref == nil {
		return true
	}
	return guard != nil && guard(ref, event)
}

// PlanDone plans the OnDone transition of an invoking leaf.
func (c *Chart) PlanDone(leaf string) (Step, bool) {
	state := c.states[leaf]
	if state == nil || state.Invoke == "" || state.OnDone == "" {
		return Step{}, false
	}
	return c.step(leaf, leaf, state.OnDone, nil), true
}

// PlanError plans the OnError transition of the nearest state, from leaf
// outward, that declares one.
func (c *Chart) PlanError(leaf string) (Step, error) {
	ancestors := c.ancestors[leaf]
	for i := len(ancestors) - 1; i >= 0; i-- {
		source := ancestors[i]
		if s := c.states[source]; s.OnError != "" {
			return c.step(leaf, source, s.OnError, s.ErrorActions), nil
		}
	}
	return Step{}, fmt.Errorf("%w: %s", ErrUnhandledEffectError, leaf)
}

// Microstep plans the eventless transition leaf takes on its own: a choice
// state follows the first Always transition whose guard holds, a final state
// completes its parent. ok is false when leaf is stable.
func (c *Chart) Microstep(leaf string, event primitives.Event, guard GuardFunc) (Step, bool, error) {
	state := c.states[leaf]
	if state == nil {
		return Step{}, false, nil
	}
	switch state.Type {
	case primitives.Choice:
		for _, t := range state.Always {
			if passes(guard, t.Guard, event) {
				return c.step(leaf, leaf, t.Target, t.Actions), true, nil
			}
		}
		return Step{}, false, fmt.Errorf("%w: %s", ErrGuardExhausted, leaf)
	case primitives.Final:
		parent := parentPath(leaf)
		if parent == "" {
			return Step{}, false, nil
		}
		if target := c.states[parent].OnDone; target != "" {
			return c.step(leaf, parent, target, nil), true, nil
		}
	}
	return Step{}, false, nil
}

func (c *Chart) step(leaf, source, target string, actions []primitives.ActionRef) Step {
	domain := transitionDomain(source, target)
	depth := 0
	if domain != "" {
		depth = strings.Count(domain, ".") + 1
	}

	s := Step{Source: source, Target: target, Actions: actions}
	ancestors := c.ancestors[leaf]
	for i := len(ancestors) - 1; i >= depth; i-- {
		s.Exits = append(s.Exits, ancestors[i])
	}

	s.Leaf = c.resolveInitialLeaf(target)
	entered := c.ancestors[s.Leaf]
	if depth < len(entered) {
		s.Entries = append(s.Entries, entered[depth:]...)
	}
	s.Invoke = c.states[s.Leaf].Invoke
	return s
}

// transitionDomain is the innermost state that stays active across a
// transition from source to target: their LCCA, clipped to a proper ancestor
// of both so self and child-to-parent transitions exit and re-enter.
func transitionDomain(source, target string) string {
	if source == "" {
		return ""
	}
	lcca := computeLCCA(source, target)
	if lcca == source || lcca == target {
		return parentPath(lcca)
	}
	return lcca
}

// computeLCCA returns the least common compound ancestor path of source and target paths.
func computeLCCA(sourcePath, targetPath string) string {
	source := strings.Split(sourcePath, ".")
	target := strings.Split(targetPath, ".")

	minLen := len(source)
	if len(target) < minLen {
		minLen = len(target)
	}

	lcaIndex := 0
	for lcaIndex < minLen && source[lcaIndex] == target[lcaIndex] {
		lcaIndex++
	}

	if lcaIndex == 0 {
		return "" // No common ancestor
	}

	return strings.Join(source[:lcaIndex], ".")
}

// getAncestors returns all ancestor paths of a leaf path (including self).
func getAncestors(leafPath string) []string {
	segments := strings.Split(leafPath, ".")
	ancestors := make([]string, len(segments))

	current := ""
	for i, seg := range segments {
		if current != "" {
			current += "."
		}
		current += seg
		ancestors[i] = current
	}
	return ancestors
}

// resolveInitialLeaf recurses to the leaf initial state path for compound states.
func (c *Chart) resolveInitialLeaf(path string) string {
	state, ok := c.states[path]
	if !ok || state.Type != primitives.Compound || state.Initial == "" {
		return path
	}
	return c.resolveInitialLeaf(path + "." + state.Initial)
}

// defaultGuardEval handles function guards when no GuardEvaluator is configured.
func defaultGuardEval(ctx *primitives.Context, guard primitives.GuardRef, event primitives.Event) bool {
	if guard == nil {
		return true
	}
	if g, ok := guard.(func(*primitives.Context, primitives.Event) bool); ok {
		return g(ctx, event)
	}
	return false
}

// defaultActionRun handles function actions when no ActionRunner is configured.
func defaultActionRun(ctx *primitives.Context, action primitives.ActionRef, event primitives.Event) error {
	if action == nil {
		return nil
	}
	if a, ok := action.(func(*primitives.Context, primitives.Event)); ok {
		a(ctx, event)
		return nil
	}
	return fmt.Errorf("unregistered action: %v", action)
}
