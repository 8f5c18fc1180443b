package cashsession

import (
	"context"

	"github.com/rs/zerolog/log"
)

// Navigator is the fire-and-forget hook run after a session is committed or
// entered. It directs the operator to the point-of-sale screen.
type Navigator interface {
	GoTo(ctx context.Context, route string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(ctx context.Context, route string)

func (f NavigatorFunc) GoTo(ctx context.Context, route string) { f(ctx, route) }

type redirectKey struct{}

// Redirect collects the route chosen while serving one request.
type Redirect struct {
	Route string `json:"route"`
}

// WithRedirect attaches an empty Redirect to ctx for a RedirectNavigator to fill.
func WithRedirect(ctx context.Context) (context.Context, *Redirect) {
	r := &Redirect{}
	return context.WithValue(ctx, redirectKey{}, r), r
}

// RedirectNavigator records the route on the request's Redirect so the HTTP layer
// can hand it to the client.
type RedirectNavigator struct{}

func (RedirectNavigator) GoTo(ctx context.Context, route string) {
	if r, ok := ctx.Value(redirectKey{}).(*Redirect); ok {
		r.Route = route
	}
	log.Ctx(ctx).Debug().Str("route", route).Msg("navigate")
}
