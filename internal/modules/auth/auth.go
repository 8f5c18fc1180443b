package auth

import (
	"context"
	"errors"

	"github.com/georgemunganga/printa-cashdesk/internal/modules/user"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

// Service defines the interface for authentication-related business logic.
type Service interface {
	Login(ctx context.Context, email, password string) (string, error)
	// Authenticate resolves a bearer token to the current state of its user.
	Authenticate(ctx context.Context, token string) (*user.User, error)
}
