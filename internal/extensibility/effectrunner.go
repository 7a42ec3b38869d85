package extensibility

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/comalice/sheetx/internal/core"
)

// ErrUnknownEffect reports an invoked effect name with no registration.
var ErrUnknownEffect = errors.New("effect not registered")

// EffectFunc is the signature of registered effects.
type EffectFunc func(ctx context.Context, inv core.Invocation) error

// EffectRegistry runs effects by name.
type EffectRegistry struct {
	mu      sync.RWMutex
	effects map[string]EffectFunc
}

// NewEffectRegistry creates a registry with the given named effects.
func NewEffectRegistry(effects map[string]EffectFunc) *EffectRegistry {
	r := &EffectRegistry{effects: make(map[string]EffectFunc, len(effects))}
	for name, fn := range effects {
		r.effects[name] = fn
	}
	return r
}

// Register adds or replaces a named effect.
func (r *EffectRegistry) Register(name string, fn EffectFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.effects == nil {
		r.effects = make(map[string]EffectFunc)
	}
	r.effects[name] = fn
}

// Invoke runs the named effect.
func (r *EffectRegistry) Invoke(ctx context.Context, effect string, inv core.Invocation) error {
	r.mu.RLock()
	fn, ok := r.effects[effect]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownEffect, effect)
	}
	return fn(ctx, inv)
}

// LoggingEffectRunner wraps an EffectRunner and logs each invocation.
type LoggingEffectRunner struct {
	inner  core.EffectRunner
	logger *log.Logger
}

// NewLoggingEffectRunner creates a LoggingEffectRunner. A nil logger logs
// through the standard logger.
func NewLoggingEffectRunner(inner core.EffectRunner, logger *log.Logger) *LoggingEffectRunner {
	if logger == nil {
		logger = log.Default()
	}
	return &LoggingEffectRunner{inner: inner, logger: logger}
}

// Invoke logs before and after delegating to the inner runner.
func (r *LoggingEffectRunner) Invoke(ctx context.Context, effect string, inv core.Invocation) error {
	r.logger.Printf("LOG: Invoking %s in %s (generation %d)", effect, inv.State, inv.Generation)
	start := time.Now()
	err := r.inner.Invoke(ctx, effect, inv)
	switch {
	case err == nil:
		r.logger.Printf("LOG: Effect %s completed in %v", effect, time.Since(start))
	case ctx.Err() != nil:
		r.logger.Printf("LOG: Effect %s cancelled after %v", effect, time.Since(start))
	default:
		r.logger.Printf("LOG: Effect %s failed after %v: %v", effect, time.Since(start), err)
	}
	return err
}

// TracingEffectRunner wraps an EffectRunner with one span per invocation.
type TracingEffectRunner struct {
	inner  core.EffectRunner
	tracer trace.Tracer
}

// NewTracingEffectRunner creates a TracingEffectRunner. A nil provider uses
// the global tracer provider.
func NewTracingEffectRunner(inner core.EffectRunner, provider trace.TracerProvider) *TracingEffectRunner {
	if provider == nil {
		provider = otel.GetTracerProvider()
	}
	return &TracingEffectRunner{
		inner:  inner,
		tracer: provider.Tracer("github.com/comalice/sheetx/effects"),
	}
}

// Invoke runs the inner effect inside a span named after the effect.
func (r *TracingEffectRunner) Invoke(ctx context.Context, effect string, inv core.Invocation) error {
	ctx, span := r.tracer.Start(ctx, "effect "+effect,
		trace.WithAttributes(
			attribute.String("sheetx.effect", effect),
			attribute.String("sheetx.state", inv.State),
			attribute.String("sheetx.invocation_id", inv.ID),
			attribute.Int64("sheetx.generation", int64(inv.Generation)),
		),
	)
	defer span.End()

	err := r.inner.Invoke(ctx, effect, inv)
	switch {
	case err == nil:
		span.SetStatus(codes.Ok, "")
	case ctx.Err() != nil:
		span.SetAttributes(attribute.Bool("sheetx.cancelled", true))
		span.SetStatus(codes.Unset, "cancelled")
	default:
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}
