package user

import "context"

// Service defines read-only user queries. Users are managed outside this service.
type Service interface {
	GetUser(ctx context.Context, id string) (*User, error)
	ListUsers(ctx context.Context) ([]*User, error)
}
