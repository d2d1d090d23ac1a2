package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/holden/retroboard/internal/database/models"
	"github.com/holden/retroboard/internal/session"
)

type contextKey string

const SessionKey contextKey = "session"

// SessionResolver extracts a bearer token and attaches the resolved
// session to the request context, bumping its last-active time. A
// missing or unresolvable token never blocks the request; downstream
// handlers see an anonymous request instead.
func SessionResolver(svc *session.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var token string

			// 1. Check Authorization header (API requests)
			authHeader := r.Header.Get("Authorization")
			if strings.HasPrefix(authHeader, "Bearer ") {
				token = strings.TrimPrefix(authHeader, "Bearer ")
			}

			// 2. Check cookie (browser clients)
			if token == "" {
				if cookie, err := r.Cookie("session_token"); err == nil && cookie.Value != "" {
					token = cookie.Value
				}
			}

			// 3. Check query parameter (SSE handshake, where headers are awkward)
			if token == "" {
				token = r.URL.Query().Get("token")
			}

			if token != "" {
				if sess, err := svc.ResolveToken(r.Context(), token); err == nil {
					ctx := context.WithValue(r.Context(), SessionKey, sess)
					r = r.WithContext(ctx)
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

// GetSession returns the resolved session, or nil for anonymous requests.
func GetSession(ctx context.Context) *models.Session {
	if sess, ok := ctx.Value(SessionKey).(*models.Session); ok {
		return sess
	}
	return nil
}

// RequireSession rejects requests that did not resolve to a session.
func RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetSession(r.Context()) == nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAccount rejects sessions that are not linked to a permanent
// account.
func RequireAccount(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := GetSession(r.Context())
		if sess == nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		if sess.UserID == nil {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole ensures the session's linked account holds one of the
// given roles.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := GetSession(r.Context())
			if sess == nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			if sess.User != nil {
				for _, role := range roles {
					if sess.User.Role == role {
						next.ServeHTTP(w, r)
						return
					}
				}
			}

			http.Error(w, "Forbidden", http.StatusForbidden)
		})
	}
}
