package auth

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/todoco/todoco/internal/domain"
)

// SessionCookieName is the cookie carrying the opaque session token.
const SessionCookieName = "todoco_session"

// SessionValidator resolves a session token to the authenticated user.
type SessionValidator interface {
	// Validate returns the user for a session token.
	// Returns domain.ErrSessionNotFound for unknown or expired tokens.
	Validate(ctx context.Context, token string) (*domain.User, error)
}

// Middleware resolves the session cookie and attaches the current user to
// the request context. Requests without a valid session pass through
// unauthenticated; route-level guards decide whether that is acceptable.
func Middleware(sessions SessionValidator, logger zerolog.Logger) func(http.Handler) http.Handler {
	logger = logger.With().Str("component", "auth").Logger()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookieName)
			if err != nil || cookie.Value == "" {
				next.ServeHTTP(w, r)
				return
			}

			user, err := sessions.Validate(r.Context(), cookie.Value)
			if err != nil {
				logger.Debug().Err(err).Msg("session token rejected")
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// RequireAuth rejects unauthenticated requests by redirecting to the login
// page. Handlers behind it can assume UserFromContext returns non-nil.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if UserFromContext(r.Context()) == nil {
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole rejects requests whose actor does not hold the given role.
func RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := UserFromContext(r.Context())
			if user == nil {
				http.Redirect(w, r, "/login", http.StatusFound)
				return
			}
			if !user.HasRole(role) {
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
