package cashsession

import (
	"context"

	"github.com/georgemunganga/printa-cashdesk/internal/modules/store"
	"github.com/georgemunganga/printa-cashdesk/internal/modules/user"
)

// Registry is everything the lifecycle service reads and writes: sessions plus
// the user and store reference data.
type Registry interface {
	ListSessions(ctx context.Context) ([]*CashSession, error)
	ListUsers(ctx context.Context) ([]*user.User, error)
	ListStores(ctx context.Context) ([]*store.Store, error)
	UpsertSession(ctx context.Context, s *CashSession) error
}

// UserLister is the part of the user module the registry needs.
type UserLister interface {
	ListUsers(ctx context.Context) ([]*user.User, error)
}

// StoreLister is the part of the store module the registry needs.
type StoreLister interface {
	ListStores(ctx context.Context) ([]*store.Store, error)
}

type registry struct {
	Repository
	users  UserLister
	stores StoreLister
}

// NewRegistry composes the session repository with the user and store catalogs.
func NewRegistry(sessions Repository, users UserLister, stores StoreLister) Registry {
	return &registry{Repository: sessions, users: users, stores: stores}
}

func (r *registry) ListUsers(ctx context.Context) ([]*user.User, error) {
	return r.users.ListUsers(ctx)
}

func (r *registry) ListStores(ctx context.Context) ([]*store.Store, error) {
	return r.stores.ListStores(ctx)
}
