package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/mcoot/charsheet/internal/api/apierr"
	"github.com/mcoot/charsheet/internal/model"
	"github.com/mcoot/charsheet/internal/services/access"
	"github.com/mcoot/charsheet/internal/services/auth"
)

type contextKey string

const (
	userContextKey    contextKey = "user"
	sessionContextKey contextKey = "session"
	viewerContextKey  contextKey = "viewer"
)

// Auth creates authentication middleware. The viewer's access state is
// resolved from storage on every request so GM designation and claims
// take effect immediately.
func Auth(authService *auth.Service, accessController *access.Controller) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractToken(r)
			if token == "" {
				apierr.WriteError(w, apierr.NewUnauthorizedError())
				return
			}

			session, err := authService.ValidateSession(token)
			if err != nil {
				apierr.WriteError(w, err)
				return
			}

			viewer, err := accessController.Viewer(r.Context(), &session.User)
			if err != nil {
				apierr.WriteError(w, err)
				return
			}

			// Add session, user and viewer to context
			ctx := r.Context()
			ctx = context.WithValue(ctx, sessionContextKey, session)
			ctx = context.WithValue(ctx, userContextKey, &session.User)
			ctx = context.WithValue(ctx, viewerContextKey, viewer)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// extractToken extracts the session token from the request.
// Browsers cannot set headers on EventSource or WebSocket requests, so a
// token query parameter is accepted as a fallback. Cookies are never read:
// browsers attach them to cross-site requests.
func extractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return r.URL.Query().Get("token")
}

// GetUser returns the authenticated user from the request context
func GetUser(ctx context.Context) *model.User {
	user, _ := ctx.Value(userContextKey).(*model.User)
	return user
}

// GetSession returns the session from the request context
func GetSession(ctx context.Context) *auth.Session {
	session, _ := ctx.Value(sessionContextKey).(*auth.Session)
	return session
}

// GetViewer returns the resolved viewer, or an unauthenticated one
func GetViewer(ctx context.Context) access.Viewer {
	viewer, ok := ctx.Value(viewerContextKey).(access.Viewer)
	if !ok {
		return access.Unauthenticated()
	}
	return viewer
}

// MustGetSession returns the session or panics
func MustGetSession(ctx context.Context) *auth.Session {
	session := GetSession(ctx)
	if session == nil {
		panic("no session in context - auth middleware not applied?")
	}
	return session
}
