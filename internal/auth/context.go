package auth

import (
	"context"

	"github.com/todoco/todoco/internal/domain"
)

// contextKey is a private type for request context keys.
type contextKey int

const userContextKey contextKey = iota

// WithUser returns a context carrying the authenticated user.
func WithUser(ctx context.Context, user *domain.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// UserFromContext returns the authenticated user for this request, or nil
// if the request is unauthenticated. The nil return is the explicit
// "unauthenticated" sentinel the policy expects; current-user state is
// always threaded through the context, never held globally.
func UserFromContext(ctx context.Context) *domain.User {
	user, _ := ctx.Value(userContextKey).(*domain.User)
	return user
}
