package cashsession

import "context"

// Repository defines data access for cash sessions.
type Repository interface {
	ListSessions(ctx context.Context) ([]*CashSession, error)
	// UpsertSession inserts or replaces the session with the same id. It fails with
	// ErrIllegalTransition when the stored status cannot move to the new one.
	UpsertSession(ctx context.Context, s *CashSession) error
}
