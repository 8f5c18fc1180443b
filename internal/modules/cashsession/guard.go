package cashsession

import (
	"context"
	"fmt"
)

// OpenGuard decides whether a fully built session may be opened. Register
// uniqueness lives behind it so a constraint can be switched on without touching
// the service.
type OpenGuard interface {
	AllowOpen(ctx context.Context, candidate *CashSession) error
}

type allowAll struct{}

// AllowAll permits every opening; the same register label may be open several
// times in one store.
func AllowAll() OpenGuard { return allowAll{} }

func (allowAll) AllowOpen(context.Context, *CashSession) error { return nil }

// SessionLister lists the persisted sessions.
type SessionLister interface {
	ListSessions(ctx context.Context) ([]*CashSession, error)
}

type uniqueRegisterGuard struct{ sessions SessionLister }

// NewUniqueRegisterGuard refuses an opening when the same store already has an
// OPEN session under the same register name. A retry of the candidate itself is
// not a conflict. Checked best effort: two concurrent
// openings can both pass.
func NewUniqueRegisterGuard(sessions SessionLister) OpenGuard {
	return &uniqueRegisterGuard{sessions: sessions}
}

func (g *uniqueRegisterGuard) AllowOpen(ctx context.Context, candidate *CashSession) error {
	existing, err := g.sessions.ListSessions(ctx)
	if err != nil {
		return fmt.Errorf("check open registers: %w", err)
	}
	for _, s := range existing {
		if s.ID == candidate.ID {
			continue
		}
		if s.Status == StatusOpen && s.StoreID == candidate.StoreID && s.RegisterName == candidate.RegisterName {
			return invalid(ErrRegisterInUse)
		}
	}
	return nil
}
