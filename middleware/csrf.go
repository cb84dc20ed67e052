// ABOUTME: CSRF protection middleware using double-submit cookie pattern
// ABOUTME: Validates X-CSRF-Token header matches the drive_csrf cookie for session requests

package middleware

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	"github.com/oganilir/drive-bff/services"
)

const (
	csrfHeaderName = "X-CSRF-Token"

	// base64url encoding of 32 bytes produces 44 characters (with padding)
	csrfTokenLength = 44

	csrfRejectMessage = "CSRF token missing or invalid"
)

// CSRF returns middleware that validates CSRF tokens for state-changing requests.
// Validation is skipped for:
//   - GET, HEAD, OPTIONS requests (safe methods)
//   - paths in exempt (login creates a new session and must work with stale cookies)
//   - requests without a session cookie (not session-authenticated)
func CSRF(exempt ...string) Middleware {
	skip := make(map[string]bool, len(exempt))
	for _, p := range exempt {
		skip[p] = true
	}

	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			// Skip safe methods
			if r.Method == http.MethodGet || r.Method == http.MethodHead || r.Method == http.MethodOptions {
				next(w, r)
				return
			}

			if skip[r.URL.Path] {
				slog.Debug("CSRF skipped: exempt endpoint", "path", r.URL.Path)
				next(w, r)
				return
			}

			// Skip if no session cookie (not session-authenticated)
			sessionCookie, err := r.Cookie(services.SessionCookieName)
			if err != nil || sessionCookie.Value == "" {
				next(w, r)
				return
			}

			csrfCookie, err := r.Cookie(services.CSRFCookieName)
			if err != nil || csrfCookie.Value == "" {
				slog.Debug("CSRF rejected: missing cookie", "path", r.URL.Path)
				writeJSONError(w, csrfRejectMessage, http.StatusForbidden)
				return
			}

			csrfHeader := r.Header.Get(csrfHeaderName)
			if csrfHeader == "" {
				slog.Debug("CSRF rejected: missing header", "path", r.URL.Path)
				writeJSONError(w, csrfRejectMessage, http.StatusForbidden)
				return
			}

			// Validate token lengths before comparison
			if len(csrfCookie.Value) != csrfTokenLength || len(csrfHeader) != csrfTokenLength {
				slog.Debug("CSRF rejected: invalid token length", "path", r.URL.Path)
				writeJSONError(w, csrfRejectMessage, http.StatusForbidden)
				return
			}

			if subtle.ConstantTimeCompare([]byte(csrfCookie.Value), []byte(csrfHeader)) != 1 {
				slog.Debug("CSRF rejected: token mismatch", "path", r.URL.Path)
				writeJSONError(w, csrfRejectMessage, http.StatusForbidden)
				return
			}

			next(w, r)
		}
	}
}
