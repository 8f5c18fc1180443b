package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned when no store matches the id.
var ErrNotFound = errors.New("store not found")

// Repository defines read access to the store catalog.
type Repository interface {
	GetStoreByID(ctx context.Context, id string) (*Store, error)
	ListStores(ctx context.Context) ([]*Store, error)
}
