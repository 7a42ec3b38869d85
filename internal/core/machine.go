// Package core provides the runtime core tier of the statechart engine.
// This includes the compiled Chart, the transition planner and the Machine
// actor that runs a chart: event loop, invoked effects and their cancellation.
//
//go:generate go test ./... -race
package core

import (
	"context"
	"fmt"
	"log"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/comalice/sheetx/internal/primitives"
)

// Pluggable component interfaces.

type ActionRunner interface {
	Run(ctx *primitives.Context, action primitives.ActionRef, event primitives.Event) error
}

type GuardEvaluator interface {
	Eval(ctx *primitives.Context, guard primitives.GuardRef, event primitives.Event) bool
}

// EffectRunner runs the effect invoked by a leaf state. ctx is cancelled
// when the leaf is exited before the effect returns; a returned error
// routes the machine to the nearest OnError target.
type EffectRunner interface {
	Invoke(ctx context.Context, effect string, inv Invocation) error
}

type EventSource interface {
	Events() <-chan primitives.Event
}

type Persister interface {
	Save(ctx context.Context, snapshot MachineSnapshot) error
	Load(ctx context.Context, machineID string) (MachineSnapshot, error)
}

// Invocation describes one run of an effect.
type Invocation struct {
	ID         string
	Generation uint64
	State      string
	Effect     string
	Context    map[string]any
}

// MachineSnapshot is the serializable snapshot of machine runtime state.
type MachineSnapshot struct {
	MachineID     string         `json:"machineID" yaml:"machineID"`
	ChartID       string         `json:"chartID" yaml:"chartID"`
	ConfigVersion string         `json:"configVersion" yaml:"configVersion"`
	Current       string         `json:"current" yaml:"current"`
	Sequence      uint64         `json:"sequence" yaml:"sequence"`
	ContextData   map[string]any `json:"context" yaml:"context"`
	Timestamp     time.Time      `json:"timestamp" yaml:"timestamp"`
}

type MachineMetadata struct {
	MachineID  string    `json:"machineID" yaml:"machineID"`
	Transition string    `json:"transition" yaml:"transition"`
	Sequence   uint64    `json:"sequence" yaml:"sequence"`
	Timestamp  time.Time `json:"timestamp" yaml:"timestamp"`
}

type EventPublisher interface {
	Publish(ctx context.Context, event primitives.Event, metadata MachineMetadata) error
	Close() error
}

type Visualizer interface {
	ExportDOT(config primitives.MachineConfig, current string) string
	ExportJSON(config primitives.MachineConfig) ([]byte, error)
}

// Option applies configuration to Machine via functional options pattern.
type Option func(*Machine)

// InitEvent is passed to entry actions of the initial configuration.
const InitEvent = "sheetx.init"

const maxMicrosteps = 64

type envelope struct {
	event primitives.Event
	reply chan error
}

type completion struct {
	generation uint64
	state      string
	effect     string
	err        error
}

type invocation struct {
	generation uint64
	state      string
	cancel     context.CancelFunc
}

type sinkJob struct {
	snapshot MachineSnapshot
	event    primitives.Event
	metadata MachineMetadata
}

// Machine is the core runtime instance of a statechart.
// A single goroutine owns the active leaf: it drains external events and
// effect completions, so transitions never interleave. Queries are
// thread-safe from any goroutine.
type Machine struct {
	config  primitives.MachineConfig
	chart   *Chart
	id      string
	version string
	ctx     *primitives.Context

	mu       sync.RWMutex
	current  string // active leaf path
	seq      uint64
	err      error
	started  bool
	restored bool
	changed  chan struct{}

	eventQueue chan envelope
	internal   chan completion
	sinks      chan sinkJob
	done       chan struct{}
	loopDone   chan struct{}
	sinkDone   chan struct{}
	stopOnce   sync.Once
	runCtx     context.Context
	runCancel  context.CancelFunc

	// owned by the interpret goroutine
	active     string // may be a transient choice or final leaf
	generation uint64
	inflight   *invocation

	// Pluggable components (nil = defaults)
	actionRunner ActionRunner
	guardEval    GuardEvaluator
	effectRunner EffectRunner
	eventSource  EventSource
	persister    Persister
	publisher    EventPublisher
	visualizer   Visualizer
	registry     Registry
	logger       *log.Logger
	onError      func(error)
}

// Config returns the machine's configuration (thread-safe shallow copy).
func (m *Machine) Config() primitives.MachineConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

// NewMachine creates and initializes a new Machine instance.
func NewMachine(config primitives.MachineConfig, opts ...Option) *Machine {
	m := &Machine{
		config:     config,
		id:         uuid.NewString(),
		ctx:        primitives.NewContext(),
		changed:    make(chan struct{}),
		eventQueue: make(chan envelope, 1000), // default buffered queue
		internal:   make(chan completion, 16),
		sinks:      make(chan sinkJob, 256),
		done:       make(chan struct{}),
		loopDone:   make(chan struct{}),
		sinkDone:   make(chan struct{}),
		logger:     log.Default(),
	}

	// Apply functional options
	for _, opt := range opts {
		opt(m)
	}

	return m
}

// ID returns the instance identifier used for persistence and publishing.
func (m *Machine) ID() string {
	return m.id
}

// Start validates the chart, enters the initial (or restored) leaf and
// launches the event processing goroutine. Effects run under ctx.
// Idempotent: safe to call multiple times (no-op after first).
func (m *Machine) Start(ctx context.Context) error {
	m.mu.Lock()
	select {
	case <-m.done:
		m.mu.Unlock()
		return ErrStopped
	default:
	}
	if m.started {
		m.mu.Unlock()
		return nil
	}

	chart, err := Compile(m.config)
	if err != nil {
		m.mu.Unlock()
		return err
	}
	m.chart = chart
	m.version = primitives.ComputeVersion(&m.config)
	m.runCtx, m.runCancel = context.WithCancel(ctx)
	m.started = true

	leaf := chart.resolveInitialLeaf(m.config.Initial)
	if m.restored {
		leaf = m.current
	}
	m.mu.Unlock()

	go m.sinkLoop()

	m.enter(leaf)

	go m.interpret()

	if m.eventSource != nil {
		go func() {
			for event := range m.eventSource.Events() {
				if err := m.Send(event); err != nil {
					m.report(fmt.Errorf("event source %q: %w", event.Type, err))
				}
			}
		}()
	}
	return nil
}

// enter activates leaf as the initial configuration.
func (m *Machine) enter(leaf string) {
	init := primitives.NewEvent(InitEvent, nil)
	for _, path := range m.chart.ancestors[leaf] {
		m.runActions(m.chart.states[path].Entry, init)
	}
	m.setCurrent(leaf, "", init)
	if effect := m.chart.states[leaf].Invoke; effect != "" {
		m.invoke(leaf, effect)
	}
	if err := m.settle(init); err != nil {
		m.fail(err)
	}
}

// interpret is the private event loop goroutine.
// Processes events and effect completions until shutdown signal.
func (m *Machine) interpret() {
	defer close(m.loopDone)
	for {
		select {
		case c := <-m.internal:
			m.processCompletion(c)
		case env := <-m.eventQueue:
			err := m.processEvent(env.event)
			if env.reply != nil {
				env.reply <- err
			}
		case <-m.done:
			return
		}
	}
}

// processEvent runs one macrostep for an external event.
func (m *Machine) processEvent(event primitives.Event) error {
	if err := m.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrMachineFailed, err)
	}
	step, ok := m.chart.Plan(m.active, event, m.evalGuard)
	if !ok {
		return nil
	}
	m.execute(step, event)
	if err := m.settle(event); err != nil {
		m.fail(err)
		return err
	}
	return nil
}

// processCompletion routes an effect result to OnDone or OnError.
// Results from a generation that is no longer in flight are dropped.
func (m *Machine) processCompletion(c completion) {
	if m.Err() != nil {
		return
	}
	if m.inflight == nil || m.inflight.generation != c.generation {
		m.logger.Printf("sheetx: dropping stale %s result from %s (generation %d)", c.effect, c.state, c.generation)
		return
	}
	m.inflight.cancel()
	m.inflight = nil

	var (
		step  Step
		event primitives.Event
	)
	if c.err != nil {
		m.report(fmt.Errorf("effect %s in %s: %w", c.effect, c.state, c.err))
		var err error
		step, err = m.chart.PlanError(c.state)
		if err != nil {
			m.fail(err)
			return
		}
		event = primitives.NewEvent(primitives.ErrorInvokePrefix+c.state, c.err.Error())
	} else {
		var ok bool
		step, ok = m.chart.PlanDone(c.state)
		if !ok {
			return
		}
		event = primitives.NewEvent(primitives.DoneInvokePrefix+c.state, nil)
	}
	m.execute(step, event)
	if err := m.settle(event); err != nil {
		m.fail(err)
	}
}

// settle follows eventless transitions until the leaf is stable.
func (m *Machine) settle(event primitives.Event) error {
	for i := 0; ; i++ {
		if i == maxMicrosteps {
			return fmt.Errorf("%w at %s", ErrMicrostepLimit, m.active)
		}
		step, ok, err := m.chart.Microstep(m.active, event, m.evalGuard)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		evt := event
		if m.chart.states[m.active].Type == primitives.Final {
			evt = primitives.NewEvent(primitives.DoneStatePrefix+step.Source, nil)
		}
		m.execute(step, evt)
	}
}

// execute applies a planned step: exits innermost first (cancelling the
// leaf's effect), transition actions, entries outermost first, then the
// new leaf's effect.
func (m *Machine) execute(step Step, event primitives.Event) {
	from := m.current
	for _, path := range step.Exits {
		if m.inflight != nil && m.inflight.state == path {
			m.inflight.cancel()
			m.inflight = nil
		}
		m.runActions(m.chart.states[path].Exit, event)
	}
	m.runActions(step.Actions, event)
	for _, path := range step.Entries {
		m.runActions(m.chart.states[path].Entry, event)
	}
	m.setCurrent(step.Leaf, from, event)
	if step.Invoke != "" {
		m.invoke(step.Leaf, step.Invoke)
	}
}

func (m *Machine) invoke(leaf, effect string) {
	m.generation++
	ictx, cancel := context.WithCancel(m.runCtx)
	m.inflight = &invocation{generation: m.generation, state: leaf, cancel: cancel}

	inv := Invocation{
		ID:         uuid.NewString(),
		Generation: m.generation,
		State:      leaf,
		Effect:     effect,
		Context:    m.ctx.Snapshot(),
	}
	runner := m.effectRunner
	go func() {
		err := runEffect(ictx, runner, effect, inv)
		select {
		case m.internal <- completion{generation: inv.Generation, state: leaf, effect: effect, err: err}:
		case <-m.done:
		}
	}()
}

func runEffect(ctx context.Context, runner EffectRunner, effect string, inv Invocation) (err error) {
	if runner == nil {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("effect %s panicked: %v\n%s", effect, r, debug.Stack())
		}
	}()
	return runner.Invoke(ctx, effect, inv)
}

func (m *Machine) evalGuard(guard primitives.GuardRef, event primitives.Event) bool {
	if m.guardEval != nil {
		return m.guardEval.Eval(m.ctx, guard, event)
	}
	return defaultGuardEval(m.ctx, guard, event)
}

func (m *Machine) runActions(actions []primitives.ActionRef, event primitives.Event) {
	for _, action := range actions {
		var err error
		if m.actionRunner != nil {
			err = m.actionRunner.Run(m.ctx, action, event)
		} else {
			err = defaultActionRun(m.ctx, action, event)
		}
		if err != nil {
			m.report(fmt.Errorf("action on %s: %w", event.Type, err))
		}
	}
}

// setCurrent activates leaf. Choice and final leaves are resolved within
// the same step, so only stable leaves reach readers and sinks.
func (m *Machine) setCurrent(leaf, from string, event primitives.Event) {
	m.active = leaf
	if typ := m.chart.states[leaf].Type; typ == primitives.Choice || typ == primitives.Final {
		return
	}
	m.mu.Lock()
	m.current = leaf
	m.seq++
	changed := m.changed
	m.changed = make(chan struct{})
	snapshot := m.snapshotLocked()
	m.mu.Unlock()
	close(changed)

	if m.persister == nil && m.publisher == nil && m.registry == nil {
		return
	}
	job := sinkJob{
		snapshot: snapshot,
		event:    event,
		metadata: MachineMetadata{
			MachineID:  m.id,
			Transition: fmt.Sprintf("%s -> %s", from, leaf),
			Sequence:   snapshot.Sequence,
			Timestamp:  snapshot.Timestamp,
		},
	}
	select {
	case m.sinks <- job:
	default:
		m.report(fmt.Errorf("sink queue full, dropping snapshot %d", snapshot.Sequence))
	}
}

// sinkLoop persists, publishes and registers snapshots in transition order
// off the interpret goroutine. It drains once the event loop has exited.
func (m *Machine) sinkLoop() {
	defer close(m.sinkDone)
	for {
		select {
		case job := <-m.sinks:
			m.flush(job)
		case <-m.loopDone:
			for {
				select {
				case job := <-m.sinks:
					m.flush(job)
				default:
					return
				}
			}
		}
	}
}

func (m *Machine) flush(job sinkJob) {
	ctx := context.Background()
	if m.persister != nil {
		if err := m.persister.Save(ctx, job.snapshot); err != nil {
			m.report(fmt.Errorf("persist: %w", err))
		}
	}
	if m.publisher != nil {
		if err := m.publisher.Publish(ctx, job.event, job.metadata); err != nil {
			m.report(fmt.Errorf("publish: %w", err))
		}
	}
	if m.registry != nil {
		if err := m.registry.Register(ctx, m.id, job.snapshot); err != nil {
			m.report(fmt.Errorf("register: %w", err))
		}
	}
}

// fail stops the machine from taking further transitions.
func (m *Machine) fail(err error) {
	if m.inflight != nil {
		m.inflight.cancel()
		m.inflight = nil
	}
	m.report(err)
	m.mu.Lock()
	m.err = err
	changed := m.changed
	m.changed = make(chan struct{})
	m.mu.Unlock()
	close(changed)
}

func (m *Machine) report(err error) {
	m.logger.Printf("sheetx: %v", err)
	if m.onError != nil {
		m.onError(err)
	}
}

// Send enqueues an event for asynchronous processing.
// Returns ErrQueueFull if queue backpressure (full).
// Thread-safe.
func (m *Machine) Send(event primitives.Event) error {
	select {
	case m.eventQueue <- envelope{event: event}:
		return nil
	default:
		return ErrQueueFull
	}
}

// Dispatch enqueues event and waits until its macrostep completes.
func (m *Machine) Dispatch(ctx context.Context, event primitives.Event) error {
	m.mu.RLock()
	started := m.started
	m.mu.RUnlock()
	if !started {
		return ErrNotStarted
	}

	reply := make(chan error, 1)
	select {
	case m.eventQueue <- envelope{event: event, reply: reply}:
	case <-ctx.Done():
		return ctx.Err()
	case <-m.done:
		return ErrStopped
	}
	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-m.done:
		return ErrStopped
	}
}

// Current returns the active leaf state path.
func (m *Machine) Current() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Matches reports whether the active leaf is path or one of its descendants.
func (m *Machine) Matches(path string) bool {
	return matchesPath(m.Current(), path)
}

// AwaitState blocks until the active leaf matches path, the machine fails or
// stops, or ctx is done.
func (m *Machine) AwaitState(ctx context.Context, path string) error {
	for {
		m.mu.RLock()
		current, changed, err := m.current, m.changed, m.err
		m.mu.RUnlock()
		if matchesPath(current, path) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%w: %v", ErrMachineFailed, err)
		}
		select {
		case <-changed:
		case <-ctx.Done():
			return fmt.Errorf("awaiting %s (at %s): %w", path, current, ctx.Err())
		case <-m.done:
			return ErrStopped
		}
	}
}

// Err returns the error that failed the machine, or nil.
func (m *Machine) Err() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.err
}

// Ctx returns the machine's context (thread-safe read).
func (m *Machine) Ctx() *primitives.Context {
	return m.ctx
}

// Snapshot captures the current runtime state.
func (m *Machine) Snapshot() MachineSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshotLocked()
}

func (m *Machine) snapshotLocked() MachineSnapshot {
	return MachineSnapshot{
		MachineID:     m.id,
		ChartID:       m.config.ID,
		ConfigVersion: m.version,
		Current:       m.current,
		Sequence:      m.seq,
		ContextData:   m.ctx.Snapshot(),
		Timestamp:     time.Now(),
	}
}

// Stop signals graceful shutdown.
// Cancels in-flight effects and waits for the event loop to exit and
// pending snapshots to flush.
// Safe to call multiple times.
func (m *Machine) Stop() error {
	m.stopOnce.Do(func() {
		m.mu.RLock()
		started := m.started
		m.mu.RUnlock()
		close(m.done)
		if !started {
			return
		}
		m.runCancel()
		<-m.loopDone
		<-m.sinkDone
	})
	return nil
}

// Restore restores machine runtime state from a snapshot.
// Call before Start(); the restored leaf is entered on Start.
func (m *Machine) Restore(snapshot MachineSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.started {
		return ErrAlreadyStarted
	}
	if m.config.ID != snapshot.ChartID {
		return fmt.Errorf("chart ID mismatch: have %q, snapshot %q", m.config.ID, snapshot.ChartID)
	}
	state, err := m.config.FindState(snapshot.Current)
	if err != nil {
		return fmt.Errorf("restore: %w", err)
	}
	if len(state.Children) > 0 {
		return fmt.Errorf("restore: %q is not a leaf state", snapshot.Current)
	}

	if snapshot.MachineID != "" {
		m.id = snapshot.MachineID
	}
	m.current = snapshot.Current
	m.seq = snapshot.Sequence
	m.ctx.Restore(snapshot.ContextData)
	m.restored = true
	return nil
}

// Visualize returns the Graphviz DOT visualization string of the current machine state.
func (m *Machine) Visualize() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.visualizer == nil {
		return "ERROR: No visualizer configured. Use WithVisualizer(&production.DefaultVisualizer{})"
	}
	return m.visualizer.ExportDOT(m.config, m.current)
}
