// Package extensibility provides the pluggable runners of the engine:
// named action, guard and effect registries plus logging and tracing
// decorators, and event sources that feed a Machine.
package extensibility

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/comalice/sheetx/internal/core"
	"github.com/comalice/sheetx/internal/primitives"
)

// ActionFunc is the signature of registered actions.
type ActionFunc = func(*primitives.Context, primitives.Event)

// DefaultActionRunner provides the default implementation of ActionRunner.
// String action references are resolved through registered actions.
type DefaultActionRunner struct {
	mu      sync.RWMutex
	actions map[string]ActionFunc
}

// NewActionRunner creates a runner with the given named actions.
func NewActionRunner(actions map[string]ActionFunc) *DefaultActionRunner {
	r := &DefaultActionRunner{actions: make(map[string]ActionFunc, len(actions))}
	for name, fn := range actions {
		r.actions[name] = fn
	}
	return r
}

// Register adds or replaces a named action.
func (r *DefaultActionRunner) Register(name string, fn ActionFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.actions == nil {
		r.actions = make(map[string]ActionFunc)
	}
	r.actions[name] = fn
}

// Run executes the given action reference.
func (r *DefaultActionRunner) Run(ctx *primitives.Context, action primitives.ActionRef, event primitives.Event) error {
	switch a := action.(type) {
	case nil:
		return nil
	case func(*primitives.Context, primitives.Event):
		a(ctx, event)
		return nil
	case string:
		r.mu.RLock()
		fn, ok := r.actions[a]
		r.mu.RUnlock()
		if !ok {
			return fmt.Errorf("action ID '%s' not registered", a)
		}
		fn(ctx, event)
		return nil
	default:
		return fmt.Errorf("unknown action type: %T", action)
	}
}

// LoggingActionRunner wraps an ActionRunner and adds logging around execution.
type LoggingActionRunner struct {
	inner  core.ActionRunner
	logger *log.Logger
}

// NewLoggingActionRunner creates a new LoggingActionRunner wrapping the given inner runner.
// A nil logger logs through the standard logger.
func NewLoggingActionRunner(inner core.ActionRunner, logger *log.Logger) *LoggingActionRunner {
	if logger == nil {
		logger = log.Default()
	}
	return &LoggingActionRunner{inner: inner, logger: logger}
}

// Run logs before and after delegating to the inner runner.
func (r *LoggingActionRunner) Run(ctx *primitives.Context, action primitives.ActionRef, event primitives.Event) error {
	r.logger.Printf("LOG: Executing action %v for event %q", action, event.Type)
	start := time.Now()
	err := r.inner.Run(ctx, action, event)
	r.logger.Printf("LOG: Action %v completed in %v: %v", action, time.Since(start), err)
	return err
}
