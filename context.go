package sheetx

import (
	"fmt"

	"github.com/comalice/sheetx/internal/primitives"
)

// InitialState selects how the opening phase renders the overlay.
type InitialState string

const (
	InitialOpen   InitialState = "OPEN"
	InitialClosed InitialState = "CLOSED"
)

// Valid reports whether s is OPEN or CLOSED.
func (s InitialState) Valid() bool {
	return s == InitialOpen || s == InitialClosed
}

// ParseInitialState converts s, returning ErrInvalidInitialState for
// anything but OPEN or CLOSED.
func ParseInitialState(s string) (InitialState, error) {
	st := InitialState(s)
	if !st.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidInitialState, s)
	}
	return st, nil
}

// Keys of the extended state in the engine context.
const (
	keyInitialState = "initialState"
	keySnapSource   = "snapSource"
	keyY            = "y"
	keyVelocity     = "velocity"
)

// Context is a typed copy of the controller's extended state.
type Context struct {
	InitialState InitialState `json:"initialState" yaml:"initialState"`
	SnapSource   string       `json:"snapSource,omitempty" yaml:"snapSource,omitempty"`
	Y            float64      `json:"y" yaml:"y"`
	Velocity     float64      `json:"velocity" yaml:"velocity"`
}

func readContext(kv *primitives.Context) Context {
	return Context{
		InitialState: InitialState(kv.GetString(keyInitialState)),
		SnapSource:   kv.GetString(keySnapSource),
		Y:            kv.GetFloat(keyY),
		Velocity:     kv.GetFloat(keyVelocity),
	}
}

// contextFromMap reads a context snapshot taken for an effect invocation.
func contextFromMap(m map[string]any) Context {
	c := Context{Y: toFloat(m[keyY]), Velocity: toFloat(m[keyVelocity])}
	if s, ok := m[keyInitialState].(string); ok {
		c.InitialState = InitialState(s)
	}
	c.SnapSource, _ = m[keySnapSource].(string)
	return c
}

// assignSnap copies the SNAP payload into the context. It is the only
// writer of y, velocity and snapSource.
func assignSnap(kv *primitives.Context, evt Event) {
	p, ok := snapPayload(evt)
	if !ok {
		return
	}
	if p.Source == "" {
		p.Source = SnapSourceCustom
	}
	kv.Set(keyY, p.Y)
	kv.Set(keyVelocity, p.Velocity)
	kv.Set(keySnapSource, p.Source)
}
