package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/georgemunganga/printa-cashdesk/internal/apierror"
	"github.com/georgemunganga/printa-cashdesk/internal/modules/user"
	"github.com/rs/zerolog/log"
)

type identityKey struct{}

// WithUser returns a context carrying u as the acting user.
func WithUser(ctx context.Context, u *user.User) context.Context {
	return context.WithValue(ctx, identityKey{}, u)
}

// Identity reads the acting user placed on the context by Middleware.
type Identity struct{}

// Current returns the acting user, or nil for an anonymous request.
func (Identity) Current(ctx context.Context) *user.User {
	u, _ := ctx.Value(identityKey{}).(*user.User)
	return u
}

// Middleware resolves an optional bearer token. Requests without one continue
// anonymously; a token that does not verify is rejected with 401.
func Middleware(svc Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				apierror.Error(w, http.StatusUnauthorized, "authorization header must be a bearer token")
				return
			}
			u, err := svc.Authenticate(r.Context(), token)
			if errors.Is(err, ErrInvalidToken) {
				apierror.Error(w, http.StatusUnauthorized, err.Error())
				return
			}
			if err != nil {
				log.Error().Err(err).Msg("authenticate request")
				apierror.Error(w, http.StatusInternalServerError, "internal server error")
				return
			}
			ctx := log.With().Str("user_id", u.ID).Logger().WithContext(r.Context())
			next.ServeHTTP(w, r.WithContext(WithUser(ctx, u)))
		})
	}
}
