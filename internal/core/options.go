// Options for configuring Machine instances.
package core

import (
	"io"
	"log"
)

// WithActionRunner configures the Machine with a custom ActionRunner.
func WithActionRunner(r ActionRunner) Option {
	return func(m *Machine) {
		m.actionRunner = r
	}
}

// WithGuardEvaluator configures the Machine with a custom GuardEvaluator.
func WithGuardEvaluator(e GuardEvaluator) Option {
	return func(m *Machine) {
		m.guardEval = e
	}
}

// WithEffectRunner configures how invoked effects run.
// Without one, every effect completes immediately.
func WithEffectRunner(r EffectRunner) Option {
	return func(m *Machine) {
		m.effectRunner = r
	}
}

// WithEventSource configures the Machine with a custom EventSource.
func WithEventSource(s EventSource) Option {
	return func(m *Machine) {
		m.eventSource = s
	}
}

// WithPersister configures the Machine with a custom Persister.
func WithPersister(p Persister) Option {
	return func(m *Machine) {
		m.persister = p
	}
}

// WithPublisher configures the Machine with a custom EventPublisher.
func WithPublisher(pb EventPublisher) Option {
	return func(m *Machine) {
		m.publisher = pb
	}
}

// WithVisualizer configures the Machine with a custom Visualizer.
func WithVisualizer(v Visualizer) Option {
	return func(m *Machine) {
		m.visualizer = v
	}
}

// WithQueueSize configures the event queue buffer size.
func WithQueueSize(size int) Option {
	return func(m *Machine) {
		if size > 0 {
			m.eventQueue = make(chan envelope, size)
		}
	}
}

// WithRegistry configures the Machine with a custom Registry for versioning snapshots.
func WithRegistry(r Registry) Option {
	return func(m *Machine) {
		m.registry = r
	}
}

// WithLogger sets the logger for dropped results and reported errors.
// A nil logger discards output.
func WithLogger(l *log.Logger) Option {
	return func(m *Machine) {
		if l == nil {
			l = log.New(io.Discard, "", 0)
		}
		m.logger = l
	}
}

// WithErrorHandler registers fn for action, effect, sink and fatal errors.
// fn may be called from the event loop and the sink goroutine.
func WithErrorHandler(fn func(error)) Option {
	return func(m *Machine) {
		m.onError = fn
	}
}

// WithMachineID overrides the generated instance id.
func WithMachineID(id string) Option {
	return func(m *Machine) {
		if id != "" {
			m.id = id
		}
	}
}
