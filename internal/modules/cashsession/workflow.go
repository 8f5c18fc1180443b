package cashsession

import (
	"time"

	"github.com/shopspring/decimal"
)

// WorkflowState is the state of an operator's opening form.
type WorkflowState string

const (
	StateIdle       WorkflowState = "IDLE"
	StateComposing  WorkflowState = "COMPOSING"
	StateSubmitting WorkflowState = "SUBMITTING"
	StateCommitted  WorkflowState = "COMMITTED"
	StateRejected   WorkflowState = "REJECTED"
)

// Draft is the composed, not yet submitted opening of one operator. There is at
// most one per operator; no draft means IDLE.
type Draft struct {
	State     WorkflowState `json:"state"`
	// SessionID is assigned on the first submit and reused by every retry.
	SessionID string        `json:"session_id,omitempty"`
	Terminal  string        `json:"terminal"`
	Amount    string        `json:"amount"`
	LastError string        `json:"last_error,omitempty"`
	StartedAt time.Time     `json:"started_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// NewDraft starts composing with a zero amount and no terminal selected.
func NewDraft(now time.Time) *Draft {
	return &Draft{
		State:     StateComposing,
		Amount:    "0",
		StartedAt: now,
		UpdatedAt: now,
	}
}

// Compose updates the fields that are non-nil. Only a composing draft accepts
// edits.
func (d *Draft) Compose(terminal *string, amount *string, now time.Time) error {
	if d == nil || d.State != StateComposing {
		return ErrNoOpeningInProgress
	}
	if terminal != nil {
		d.Terminal = *terminal
	}
	if amount != nil {
		d.Amount = *amount
	}
	d.UpdatedAt = now
	return nil
}

// OpeningValue is the float the session would open with.
func (d *Draft) OpeningValue() decimal.Decimal {
	return ParseOrDefault(d.Amount, decimal.Zero)
}

// Validate checks the submit preconditions against the terminals the operator may
// pick from and returns the chosen terminal.
func (d *Draft) Validate(terminals []Terminal) (Terminal, error) {
	if len(terminals) == 0 {
		return Terminal{}, invalid(ErrNoEligibleTerminals)
	}
	if d.Terminal == "" {
		return Terminal{}, invalid(ErrNoTerminalSelected)
	}
	t, ok := findTerminal(terminals, d.Terminal)
	if !ok {
		return Terminal{}, invalid(ErrTerminalNotEligible)
	}
	if d.OpeningValue().IsNegative() {
		return Terminal{}, invalid(ErrNegativeOpeningValue)
	}
	return t, nil
}

// claimSessionID returns the draft's session id, assigning one on first use.
func (d *Draft) claimSessionID(newID func() string) string {
	if d.SessionID == "" {
		d.SessionID = newID()
	}
	return d.SessionID
}

func (d *Draft) markSubmitting(now time.Time) {
	d.State = StateSubmitting
	d.LastError = ""
	d.UpdatedAt = now
}

func (d *Draft) markCommitted(now time.Time) {
	d.State = StateCommitted
	d.LastError = ""
	d.UpdatedAt = now
}

// reject returns the draft to composing with its fields intact.
func (d *Draft) reject(err error, now time.Time) {
	d.State = StateComposing
	d.LastError = err.Error()
	d.UpdatedAt = now
}
