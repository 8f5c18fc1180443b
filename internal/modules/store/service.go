package store

import "context"

// Service exposes the read-only store catalog.
type Service interface {
	GetStore(ctx context.Context, id string) (*Store, error)
	ListStores(ctx context.Context) ([]*Store, error)
}

type service struct{ repo Repository }

// NewService creates a new store service.
func NewService(repo Repository) Service { return &service{repo: repo} }

func (s *service) GetStore(ctx context.Context, id string) (*Store, error) {
	if id == "" {
		return nil, ErrNotFound
	}
	return s.repo.GetStoreByID(ctx, id)
}

func (s *service) ListStores(ctx context.Context) ([]*Store, error) {
	return s.repo.ListStores(ctx)
}

// Find returns the store with the given id from an already loaded catalog, or nil.
func Find(stores []*Store, id string) *Store {
	if id == "" {
		return nil
	}
	for _, s := range stores {
		if s.ID == id {
			return s
		}
	}
	return nil
}
