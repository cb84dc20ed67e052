// ABOUTME: Access gate middleware for file, sharing and admin endpoints
// ABOUTME: Refuses signed-in users whose account has not been granted access yet

package middleware

import (
	"log/slog"
	"net/http"

	"github.com/oganilir/drive-bff/models"
)

const noAccessMessage = "Akun Anda belum memiliki akses"

// RequireAccess returns 403 with a redirect to the no-access page when the
// session user has access=false. Requests without a session pass through so
// handlers can answer 401 uniformly.
func RequireAccess(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := GetCurrentUser(r)
		if user == nil || user.Access {
			next(w, r)
			return
		}

		slog.Warn("Access gate denied request",
			"path", sanitizePath(r.URL.Path),
			"method", r.Method,
			"user_id", user.ID,
		)
		writeJSON(w, http.StatusForbidden, models.APIResponse{
			Status:   models.StatusError,
			Message:  noAccessMessage,
			Redirect: models.NoAccessPath,
		})
	}
}
