package sheetx

import (
	"errors"

	"github.com/comalice/sheetx/internal/core"
)

var (
	ErrInvalidInitialState = errors.New("initial state must be OPEN or CLOSED")

	// ErrGuardExhausted fails the controller when the opening choice finds
	// neither initiallyOpen nor initiallyClosed true.
	ErrGuardExhausted = core.ErrGuardExhausted

	ErrMachineFailed  = core.ErrMachineFailed
	ErrNotStarted     = core.ErrNotStarted
	ErrAlreadyStarted = core.ErrAlreadyStarted
	ErrStopped        = core.ErrStopped
	ErrQueueFull      = core.ErrQueueFull
)
