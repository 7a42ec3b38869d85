package extensibility

import (
	"sync"

	"github.com/comalice/sheetx/internal/primitives"
)

// GuardFunc is the signature of registered guards.
type GuardFunc = func(*primitives.Context, primitives.Event) bool

// DefaultGuardEvaluator provides the default implementation of GuardEvaluator.
// String guard references are resolved through registered guards; unknown
// names fail closed.
type DefaultGuardEvaluator struct {
	mu     sync.RWMutex
	guards map[string]GuardFunc
}

// NewGuardEvaluator creates an evaluator with the given named guards.
func NewGuardEvaluator(guards map[string]GuardFunc) *DefaultGuardEvaluator {
	e := &DefaultGuardEvaluator{guards: make(map[string]GuardFunc, len(guards))}
	for name, fn := range guards {
		e.guards[name] = fn
	}
	return e
}

// Register adds or replaces a named guard.
func (e *DefaultGuardEvaluator) Register(name string, fn GuardFunc) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.guards == nil {
		e.guards = make(map[string]GuardFunc)
	}
	e.guards[name] = fn
}

// Eval evaluates a guard condition.
func (e *DefaultGuardEvaluator) Eval(ctx *primitives.Context, guard primitives.GuardRef, event primitives.Event) bool {
	if guard == nil {
		return true
	}
	switch g := guard.(type) {
	case func(*primitives.Context, primitives.Event) bool:
		return g(ctx, event)
	case string:
		e.mu.RLock()
		fn, ok := e.guards[g]
		e.mu.RUnlock()
		return ok && fn(ctx, event)
	default:
		return false
	}
}
