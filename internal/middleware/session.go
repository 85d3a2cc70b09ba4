package middleware

import (
	"context"
	"net/http"
	"strings"

	"physio-backend/internal/auth"
	"physio-backend/internal/models"
	"physio-backend/internal/policy"
	"physio-backend/internal/transport"
)

// SessionCookie is the single cookie holding the signed session token.
const SessionCookie = "physio_user"

type profileKey struct{}

// Session resolves the request's session once. A valid token puts the
// profile in the context; anything else leaves the request anonymous.
func Session(manager *auth.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := sessionToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}
			claims, err := manager.Parse(token)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			profile := claims.Profile()
			ctx := context.WithValue(r.Context(), profileKey{}, &profile)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func sessionToken(r *http.Request) string {
	if cookie, err := r.Cookie(SessionCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return ""
}

// ProfileFromContext returns the session profile, or nil when anonymous.
func ProfileFromContext(ctx context.Context) *models.Profile {
	if p, ok := ctx.Value(profileKey{}).(*models.Profile); ok {
		return p
	}
	return nil
}

// WithProfile is used by tests and by code that builds requests internally.
func WithProfile(ctx context.Context, profile models.Profile) context.Context {
	return context.WithValue(ctx, profileKey{}, &profile)
}

func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ProfileFromContext(r.Context()) == nil {
			transport.WriteError(w, http.StatusUnauthorized, "unauthorized", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequirePermission answers 403 with the role's landing route when the
// session role lacks the grant.
func RequirePermission(action policy.Action, resource policy.Resource) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			profile := ProfileFromContext(r.Context())
			if profile == nil {
				transport.WriteError(w, http.StatusUnauthorized, "unauthorized", nil)
				return
			}
			if !policy.Can(profile.Role, action, resource) {
				transport.WriteError(w, http.StatusForbidden, "forbidden", map[string]string{
					"redirect": policy.DefaultRoute(profile.Role),
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
