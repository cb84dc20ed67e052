// ABOUTME: Session resolution middleware for cookie-authenticated requests
// ABOUTME: Decodes the session cookie once per request and exposes it through the context

package middleware

import (
	"log/slog"
	"net/http"

	"github.com/oganilir/drive-bff/logger"
	"github.com/oganilir/drive-bff/models"
	"github.com/oganilir/drive-bff/services"
)

// Session returns middleware that attaches a request-scoped session handle.
// It never rejects: anonymous requests continue with an empty handle and
// route handlers decide what a missing token means.
func Session(store *services.SessionStore) Middleware {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			handle := store.Handle(w, r)
			if token := handle.GetToken(); token != "" {
				slog.Debug("Session resolved", "path", sanitizePath(r.URL.Path), "token", logger.TokenPreview(token))
			}
			next(w, r.WithContext(services.WithSession(r.Context(), handle)))
		}
	}
}

// GetSession returns the handle attached by Session, or nil.
func GetSession(r *http.Request) *services.SessionHandle {
	return services.SessionFromContext(r.Context())
}

// GetCurrentUser returns the cached profile of the signed-in user, or nil.
func GetCurrentUser(r *http.Request) *models.UserSummary {
	if handle := GetSession(r); handle != nil {
		return handle.GetCurrentUser()
	}
	return nil
}
