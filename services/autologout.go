// ABOUTME: Auto-logout flow for sessions the upstream API no longer accepts
// ABOUTME: Clears the session cookie and redirects to the login page with a reason

package services

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/oganilir/drive-bff/models"
)

// Login page error reasons
const (
	ReasonSessionExpired  = "session_expired"
	ReasonUnauthenticated = "unauthenticated"
	ReasonInvalidState    = "invalid_state"
	ReasonOAuthFailed     = "oauth_failed"
)

// SafeReturnPath returns p when it is a local absolute path, otherwise "".
// Rejects scheme-relative ("//host") and backslash tricks so the login page
// can never bounce the user off-site.
func SafeReturnPath(p string) string {
	if p == "" || !strings.HasPrefix(p, "/") {
		return ""
	}
	if strings.HasPrefix(p, "//") || strings.HasPrefix(p, "/\\") || strings.ContainsAny(p, "\\\r\n\t") {
		return ""
	}
	u, err := url.Parse(p)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return ""
	}
	return p
}

// LoginRedirectURL builds /login?error=<reason>[&redirect=<path>].
// Unsafe return paths are dropped.
func LoginRedirectURL(reason, returnPath string) string {
	q := url.Values{}
	if reason != "" {
		q.Set("error", reason)
	}
	if safe := SafeReturnPath(returnPath); safe != "" {
		q.Set("redirect", safe)
	}
	if len(q) == 0 {
		return models.LoginPath
	}
	return models.LoginPath + "?" + q.Encode()
}

// RefererPath returns the local path of the request's Referer, or "".
func RefererPath(r *http.Request) string {
	ref := r.Referer()
	if ref == "" {
		return ""
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	p := u.EscapedPath()
	if u.RawQuery != "" {
		p += "?" + u.RawQuery
	}
	return SafeReturnPath(p)
}

// AutoLogout ends the session and sends the browser to the login page with
// error=session_expired. Running it twice for the same browser is harmless:
// clearing an absent session is a no-op and the redirect is identical.
func AutoLogout(w http.ResponseWriter, r *http.Request, handle *SessionHandle, returnPath string) {
	if handle != nil {
		handle.ClearSession()
	}
	target := LoginRedirectURL(ReasonSessionExpired, returnPath)
	slog.Info("Auto-logout", "path", r.URL.Path, "redirect", target)
	http.Redirect(w, r, target, http.StatusFound)
}
