// ABOUTME: Auth handlers implementing the BFF cookie session
// ABOUTME: Password login, logout, session info, auto-login token exchange and the session-expired redirect

package handlers

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"mime"
	"net/http"
	"strings"

	"github.com/oganilir/drive-bff/logger"
	"github.com/oganilir/drive-bff/models"
	"github.com/oganilir/drive-bff/services"
)

const (
	msgLoginRequired    = "Email dan kata sandi wajib diisi"
	msgInvalidLogin     = "Email atau kata sandi salah"
	msgLoginSuccess     = "Berhasil masuk"
	msgLogoutSuccess    = "Berhasil keluar"
	msgSessionFailed    = "Gagal membuat sesi"
	msgMissingAuthToken = "Token tidak ditemukan pada respons login"
	msgJSONRequired     = "Content-Type harus application/json"
)

// Login exchanges credentials for an upstream token and stores it in the
// session cookie together with the user's profile. Login skips the CSRF
// check, so it only accepts application/json, which a cross-site form
// cannot send without a preflight.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if !isJSONRequest(r) {
		h.writeError(w, msgJSONRequired, http.StatusUnsupportedMediaType)
		return
	}

	var req models.LoginRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		h.writeError(w, msgLoginRequired, http.StatusBadRequest)
		return
	}

	op := services.Operation{
		Name:           "login",
		Method:         http.MethodPost,
		Path:           "/login",
		Body:           req,
		DefaultMessage: msgInvalidLogin,
	}
	result, err := h.upstream.Forward(r.Context(), op, "")
	if err != nil {
		h.writeUpstreamError(w, op, err)
		return
	}
	if !result.Success {
		slog.Warn("Login rejected", "email", req.Email, "status", result.Status)
		message := result.Message
		if result.IsUnauthenticated || message == "" {
			message = msgInvalidLogin
		}
		h.writeError(w, message, http.StatusUnauthorized)
		return
	}

	token := extractToken(result.Data)
	if token == "" {
		slog.Error("Login response carried no token", "email", req.Email)
		h.writeError(w, msgMissingAuthToken, http.StatusInternalServerError)
		return
	}

	user, ok := h.establishSession(w, r, token, "password")
	if !ok {
		return
	}

	data, _ := json.Marshal(models.LoginData{User: *user, Redirect: user.LandingPath()})
	h.writeJSON(w, http.StatusOK, models.APIResponse{
		Status:  models.StatusSuccess,
		Message: msgLoginSuccess,
		Data:    data,
	})
}

// establishSession loads the profile for token and writes the session
// cookie. On failure it writes the JSON error and returns false.
func (h *Handler) establishSession(w http.ResponseWriter, r *http.Request, token, method string) (*models.UserSummary, bool) {
	res, err := h.profiles.Fetch(r.Context(), token)
	if err != nil {
		h.writeUpstreamError(w, services.Operation{Name: "getProfile"}, err)
		return nil, false
	}
	if res.User == nil {
		slog.Warn("Profile fetch after login failed", "status", res.Result.Status, "token", logger.TokenPreview(token))
		h.writeError(w, msgInvalidLogin, http.StatusUnauthorized)
		return nil, false
	}

	if err := h.session(w, r).SetSession(token, *res.User); err != nil {
		slog.Error("Failed to set session", "error", err)
		h.writeError(w, msgSessionFailed, http.StatusInternalServerError)
		return nil, false
	}

	h.metrics.IncrementSessionsCreated(method)
	slog.Info("Session created", "method", method, "user_id", res.User.ID, "access", res.User.Access)
	return res.User, true
}

// Logout clears the session cookie. The upstream token is left to expire.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.session(w, r).ClearSession()
	h.writeJSON(w, http.StatusOK, models.APIResponse{
		Status:  models.StatusSuccess,
		Message: msgLogoutSuccess,
	})
}

// Me returns the current user's authentication status from the cookie alone.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	handle := h.session(w, r)
	if !handle.IsAuthenticated() {
		h.writeJSON(w, http.StatusOK, models.UserInfoResponse{Authenticated: false})
		return
	}
	h.writeJSON(w, http.StatusOK, models.UserInfoResponse{
		Authenticated: true,
		User:          handle.GetCurrentUser(),
	})
}

// SessionExpired runs the auto-logout flow for page-level callers.
func (h *Handler) SessionExpired(w http.ResponseWriter, r *http.Request) {
	h.autoLogout(w, r, r.URL.Query().Get("redirect"))
}

func (h *Handler) autoLogout(w http.ResponseWriter, r *http.Request, returnPath string) {
	h.metrics.IncrementAutoLogouts()
	services.AutoLogout(w, r, h.session(w, r), returnPath)
}

// AutoLogin turns a token handed over by another app (query parameter or
// the transient token cookie) into a session, then redirects.
func (h *Handler) AutoLogin(w http.ResponseWriter, r *http.Request) {
	handle := h.session(w, r)
	returnPath := services.SafeReturnPath(r.URL.Query().Get("redirect"))

	presented := r.URL.Query().Get("token")
	if presented == "" {
		presented = handle.TransientToken()
	}
	if presented == "" {
		http.Redirect(w, r, services.LoginRedirectURL(services.ReasonUnauthenticated, returnPath), http.StatusFound)
		return
	}
	handle.ClearTransientToken()

	result, err := h.upstream.Forward(r.Context(), services.Operation{
		Name:           "autoLogin",
		Method:         http.MethodGet,
		Path:           "/auto-login",
		DefaultMessage: "Gagal masuk otomatis",
	}, presented)
	if err != nil {
		slog.Error("Auto-login failed", "error", err)
		http.Redirect(w, r, services.LoginRedirectURL(services.ReasonOAuthFailed, returnPath), http.StatusFound)
		return
	}
	if result.IsUnauthenticated || !result.Success {
		h.autoLogout(w, r, returnPath)
		return
	}

	token := extractToken(result.Data)
	if token == "" {
		token = presented
	}

	res, err := h.profiles.Fetch(r.Context(), token)
	if err != nil || res.User == nil {
		slog.Warn("Auto-login profile fetch failed", "error", err, "token", logger.TokenPreview(token))
		h.autoLogout(w, r, returnPath)
		return
	}
	if err := handle.SetSession(token, *res.User); err != nil {
		slog.Error("Failed to set session", "error", err)
		http.Redirect(w, r, services.LoginRedirectURL(services.ReasonOAuthFailed, returnPath), http.StatusFound)
		return
	}
	h.metrics.IncrementSessionsCreated("auto_login")

	target := res.User.LandingPath()
	if returnPath != "" && res.User.Access {
		target = returnPath
	}
	http.Redirect(w, r, target, http.StatusFound)
}

func isJSONRequest(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "application/json"
}

// extractToken finds the bearer token in a login-style response.
func extractToken(data json.RawMessage) string {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		return ""
	}
	var fields struct {
		Token       string `json:"token"`
		AccessToken string `json:"access_token"`
	}
	if json.Unmarshal(data, &fields) != nil {
		return ""
	}
	if fields.Token != "" {
		return fields.Token
	}
	return fields.AccessToken
}
