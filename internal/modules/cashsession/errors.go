package cashsession

import (
	"errors"
	"fmt"
)

var (
	ErrNoEligibleTerminals  = errors.New("no cashier operators are registered for this store")
	ErrNoTerminalSelected   = errors.New("a cash register terminal must be selected")
	ErrTerminalNotEligible  = errors.New("selected terminal is not available to this operator")
	ErrNegativeOpeningValue = errors.New("opening value must not be negative")
	ErrRegisterInUse        = errors.New("register already has an open cash session")

	ErrAuthenticationRequired = errors.New("authentication required to open a cash session")
	ErrNoOpeningInProgress    = errors.New("no cash session opening in progress")
	ErrWorkflowBusy           = errors.New("a cash session opening is already being submitted")

	ErrSessionNotFound   = errors.New("cash session not found")
	ErrSessionClosed     = errors.New("cash session is closed")
	ErrSessionNotOpen    = errors.New("cash session is not open")
	ErrIllegalTransition = errors.New("illegal cash session status transition")
)

// ValidationFault rejects an opening before anything is persisted.
type ValidationFault struct{ Err error }

func (f *ValidationFault) Error() string { return f.Err.Error() }
func (f *ValidationFault) Unwrap() error { return f.Err }

func invalid(err error) error { return &ValidationFault{Err: err} }

// PersistenceFault reports that the registry refused or failed the upsert. The
// opening draft is kept so the operator can retry.
type PersistenceFault struct{ Err error }

func (f *PersistenceFault) Error() string { return fmt.Sprintf("save cash session: %v", f.Err) }
func (f *PersistenceFault) Unwrap() error { return f.Err }
