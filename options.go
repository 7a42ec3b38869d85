package sheetx

import (
	"io"
	"log"

	"go.opentelemetry.io/otel/trace"

	"github.com/comalice/sheetx/internal/core"
)

// Option configures a Controller.
type Option func(*settings)

type settings struct {
	initial    InitialState
	logger     *log.Logger
	onError    func(error)
	queueSize  int
	id         string
	persister  core.Persister
	publisher  core.EventPublisher
	registry   core.Registry
	source     core.EventSource
	tracing    bool
	tracer     trace.TracerProvider
	logEffects bool
	logActions bool
}

// WithInitialState sets how opening renders. Default InitialClosed.
func WithInitialState(s InitialState) Option {
	return func(o *settings) {
		o.initial = s
	}
}

// WithLogger sets the logger for the controller and NopHost hooks.
// A nil logger discards output.
func WithLogger(l *log.Logger) Option {
	return func(o *settings) {
		if l == nil {
			l = log.New(io.Discard, "", 0)
		}
		o.logger = l
	}
}

// WithErrorHandler receives effect failures, fatal guard errors and sink errors.
func WithErrorHandler(fn func(error)) Option {
	return func(o *settings) {
		o.onError = fn
	}
}

func WithQueueSize(size int) Option {
	return func(o *settings) {
		o.queueSize = size
	}
}

// WithID sets the controller id used for snapshots and published transitions.
func WithID(id string) Option {
	return func(o *settings) {
		o.id = id
	}
}

// WithPersister saves a snapshot after every transition.
func WithPersister(p Persister) Option {
	return func(o *settings) {
		o.persister = p
	}
}

// WithPublisher publishes every transition.
func WithPublisher(p Publisher) Option {
	return func(o *settings) {
		o.publisher = p
	}
}

// WithRegistry records every snapshot as a new version.
func WithRegistry(r Registry) Option {
	return func(o *settings) {
		o.registry = r
	}
}

// WithEventSource feeds events from src into the controller once started.
func WithEventSource(src core.EventSource) Option {
	return func(o *settings) {
		o.source = src
	}
}

// WithTracing wraps every effect in a span. A nil provider uses the global one.
func WithTracing(tp trace.TracerProvider) Option {
	return func(o *settings) {
		o.tracing = true
		o.tracer = tp
	}
}

// WithEffectLogging logs every effect invocation and its outcome.
func WithEffectLogging() Option {
	return func(o *settings) {
		o.logEffects = true
	}
}

// WithActionLogging logs cancellation hooks and context assignments.
func WithActionLogging() Option {
	return func(o *settings) {
		o.logActions = true
	}
}
