package core

import "errors"

var (
	// ErrGuardExhausted reports a choice state where no Always guard held.
	// It is a chart configuration defect and fails the machine.
	ErrGuardExhausted = errors.New("no choice guard holds")

	// ErrUnhandledEffectError reports an effect failure with no OnError target
	// on the failing state or any of its ancestors.
	ErrUnhandledEffectError = errors.New("effect failed with no error target")

	// ErrMicrostepLimit guards against eventless transition cycles.
	ErrMicrostepLimit = errors.New("microstep limit exceeded")

	ErrNotStarted     = errors.New("machine not started")
	ErrAlreadyStarted = errors.New("machine already started")
	ErrStopped        = errors.New("machine stopped")
	ErrMachineFailed  = errors.New("machine failed")
	ErrQueueFull      = errors.New("event queue full (backpressure)")
)
