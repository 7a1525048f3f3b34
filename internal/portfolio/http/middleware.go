package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/dmorocode/portfolio-sistema/internal/portfolio/domain"
	"github.com/dmorocode/portfolio-sistema/internal/portfolio/service"
	"github.com/dmorocode/portfolio-sistema/internal/portfolio/session"
)

type ctxKey string

const ctxKeySession ctxKey = "session"

const (
	// SessionCookie carries the authenticated session token.
	SessionCookie = "portfolio_session"
	// MFACookie carries the temporary token between the password step and
	// the MFA challenge.
	MFACookie = "portfolio_mfa"
)

// extractToken reads the session token from the cookie or, for API
// clients, the Authorization header.
func extractToken(r *http.Request, cookieName string) string {
	if c, err := r.Cookie(cookieName); err == nil && c.Value != "" {
		return c.Value
	}
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}

// sessionFromContext returns the entry injected by AuthnMiddleware.
func sessionFromContext(ctx context.Context) (session.Entry, bool) {
	entry, ok := ctx.Value(ctxKeySession).(session.Entry)
	return entry, ok
}

// AuthnMiddleware resolves the session token and injects the entry into
// the request context. Requests without a live authenticated session get
// 401.
func AuthnMiddleware(auth *service.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			entry, err := auth.Authorize(r.Context(), extractToken(r, SessionCookie))
			if err != nil {
				writeUnauthenticated(w)
				return
			}

			ctx := context.WithValue(r.Context(), ctxKeySession, entry)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AdminMiddleware rejects non-admin sessions. Must run after
// AuthnMiddleware.
func AdminMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			entry, ok := sessionFromContext(r.Context())
			if !ok {
				writeUnauthenticated(w)
				return
			}
			if entry.Role != domain.RoleAdmin {
				writeForbidden(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
