// Package primitives includes builder helpers for MachineConfig.
package primitives

// MachineBuilder builds hierarchical MachineConfig fluently.
//
//	mb := NewMachineBuilder("overlay", "closed")
//	mb.Atomic("closed").Transition("OPEN", "opening")
//	opening := mb.Compound("opening").WithInitial("start")
//	opening.Atomic("start").Invoke("onOpenStart", "opening.end")
//	...
//	cfg, err := mb.Build()
type MachineBuilder struct {
	config *MachineConfig
}

// NewMachineBuilder creates a new MachineBuilder.
func NewMachineBuilder(id, initial string) *MachineBuilder {
	return &MachineBuilder{
		config: &MachineConfig{
			ID:      id,
			Initial: initial,
			States:  make(map[string]*StateConfig),
		},
	}
}

// Compound starts a top-level compound state.
func (b *MachineBuilder) Compound(id string) *StateBuilder {
	return b.top(id, Compound)
}

// Atomic starts a top-level atomic state.
func (b *MachineBuilder) Atomic(id string) *StateBuilder {
	return b.top(id, Atomic)
}

// State sugar for Atomic.
func (b *MachineBuilder) State(id string) *StateBuilder {
	return b.Atomic(id)
}

func (b *MachineBuilder) top(id string, typ StateType) *StateBuilder {
	s := NewStateConfig(id, typ)
	b.config.States[id] = s
	return &StateBuilder{state: s, mb: b}
}

// On adds a root-level transition, consulted after every active state declined the event.
func (b *MachineBuilder) On(event, target string, opts ...TransitionConfig) *MachineBuilder {
	trans := TransitionConfig{Event: event, Target: target}
	if len(opts) > 0 {
		trans = opts[0]
		trans.Event = event
		trans.Target = target
	}
	if b.config.On == nil {
		b.config.On = make(map[string][]TransitionConfig)
	}
	b.config.On[event] = append(b.config.On[event], trans)
	return b
}

// WithVersion pins the config version instead of deriving it from content.
func (b *MachineBuilder) WithVersion(v string) *MachineBuilder {
	b.config.Version = v
	return b
}

// StateBuilder for fluent transitions/nesting.
type StateBuilder struct {
	state  *StateConfig
	parent *StateBuilder
	mb     *MachineBuilder
}

// Config exposes the state being built.
func (sb *StateBuilder) Config() *StateConfig {
	return sb.state
}

// Transition adds transition.
func (sb *StateBuilder) Transition(event, target string, opts ...TransitionConfig) *StateBuilder {
	sb.state.Transition(event, target, opts...)
	return sb
}

// Forbid consumes event at this state without transitioning.
func (sb *StateBuilder) Forbid(event string) *StateBuilder {
	sb.state.Forbid(event)
	return sb
}

// Invoke sets the effect run on entry and the target followed on completion.
func (sb *StateBuilder) Invoke(effect, onDone string) *StateBuilder {
	sb.state.WithInvoke(effect, onDone)
	return sb
}

// OnDone sets the compound completion target.
func (sb *StateBuilder) OnDone(target string) *StateBuilder {
	sb.state.WithOnDone(target)
	return sb
}

// OnError sets the effect failure target and the actions run on the way there.
func (sb *StateBuilder) OnError(target string, actions ...ActionRef) *StateBuilder {
	sb.state.WithOnError(target, actions...)
	return sb
}

// Always adds a guarded eventless transition (choice states).
func (sb *StateBuilder) Always(target string, guard GuardRef) *StateBuilder {
	sb.state.AddAlways(TransitionConfig{Target: target, Guard: guard})
	return sb
}

// Entry adds an entry action.
func (sb *StateBuilder) Entry(action ActionRef) *StateBuilder {
	sb.state.AddEntry(action)
	return sb
}

// Exit adds an exit action.
func (sb *StateBuilder) Exit(action ActionRef) *StateBuilder {
	sb.state.AddExit(action)
	return sb
}

// Compound nests compound child.
func (sb *StateBuilder) Compound(id string) *StateBuilder {
	return sb.nest(id, Compound)
}

// Atomic/State nests atomic child.
func (sb *StateBuilder) Atomic(id string) *StateBuilder {
	return sb.nest(id, Atomic)
}

// Choice nests a choice pseudo-state.
func (sb *StateBuilder) Choice(id string) *StateBuilder {
	return sb.nest(id, Choice)
}

// Final nests a final state.
func (sb *StateBuilder) Final(id string) *StateBuilder {
	return sb.nest(id, Final)
}

func (sb *StateBuilder) nest(id string, typ StateType) *StateBuilder {
	child := sb.state.State(id, typ)
	return &StateBuilder{state: child, parent: sb, mb: sb.mb}
}

// Up returns the builder of the enclosing state.
func (sb *StateBuilder) Up() *StateBuilder {
	if sb.parent != nil {
		return sb.parent
	}
	return sb
}

// WithInitial sets initial for current (compound).
func (sb *StateBuilder) WithInitial(initial string) *StateBuilder {
	sb.state.WithInitial(initial)
	return sb
}

// Build finalizes and validates the config.
func (b *MachineBuilder) Build() (MachineConfig, error) {
	if err := b.config.Validate(); err != nil {
		return MachineConfig{}, err
	}
	return *b.config, nil
}

// MustBuild is Build for package-level chart definitions; it panics on an invalid chart.
func (b *MachineBuilder) MustBuild() MachineConfig {
	cfg, err := b.Build()
	if err != nil {
		panic(err)
	}
	return cfg
}
