package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/tabiplan/backend/internal/domain"
)

// contextKey is unexported so no other package can collide with our keys.
type contextKey string

const principalKey contextKey = "principal"

// SessionVerifier validates a bearer token and returns the principal it
// carries. Satisfied by *auth.Sessions.
type SessionVerifier interface {
	Verify(token string) (domain.Principal, error)
}

// NewAuthenticator returns a middleware that requires a valid
// "Authorization: Bearer <token>" session header. The authenticated
// principal is placed in the request context for handlers to read via
// PrincipalFrom. Requests without a valid session are rejected with 401
// before any handler — and therefore any query — runs.
func NewAuthenticator(sessions SessionVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				unauthorized(w, "missing bearer token")
				return
			}

			principal, err := sessions.Verify(token)
			if err != nil {
				unauthorized(w, "invalid or expired session")
				return
			}

			ctx := context.WithValue(r.Context(), principalKey, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// PrincipalFrom extracts the authenticated principal set by NewAuthenticator.
// The second return value is false on routes that bypass the middleware.
func PrincipalFrom(ctx context.Context) (domain.Principal, bool) {
	p, ok := ctx.Value(principalKey).(domain.Principal)
	return p, ok
}

// WithPrincipal returns a context carrying the principal. Exposed for
// handler tests that exercise handlers without the middleware stack.
func WithPrincipal(ctx context.Context, p domain.Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{"code": "unauthorized", "message": message},
	})
}
