// ABOUTME: Google OAuth redirect handlers
// ABOUTME: Starts login or account-integration flows and completes them via the upstream /sync/google call

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/oganilir/drive-bff/logger"
	"github.com/oganilir/drive-bff/models"
	"github.com/oganilir/drive-bff/services"
)

const (
	integratedTarget        = models.ProfilePath + "?integrated=google"
	integrationFailedTarget = models.ProfilePath + "?error=integration_failed"
)

// GoogleLogin redirects to the Google consent screen to sign in.
func (h *Handler) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	if h.oauth == nil {
		h.writeError(w, "Google login is not configured", http.StatusNotFound)
		return
	}
	consentURL, nonce := h.oauth.Start(models.OAuthModeLogin, r.URL.Query().Get("redirect"), "")
	h.session(w, r).SetOAuthNonce(nonce)
	http.Redirect(w, r, consentURL, http.StatusFound)
}

// GoogleIntegrate links a Google account to the signed-in user.
func (h *Handler) GoogleIntegrate(w http.ResponseWriter, r *http.Request) {
	if h.oauth == nil {
		h.writeError(w, "Google login is not configured", http.StatusNotFound)
		return
	}
	handle := h.session(w, r)
	token := handle.GetToken()
	if token == "" {
		http.Redirect(w, r, services.LoginRedirectURL(services.ReasonUnauthenticated, models.ProfilePath), http.StatusFound)
		return
	}
	consentURL, nonce := h.oauth.Start(models.OAuthModeIntegrate, models.ProfilePath, token)
	handle.SetOAuthNonce(nonce)
	http.Redirect(w, r, consentURL, http.StatusFound)
}

// GoogleCallback completes either flow. The state is single use and must
// come back from the browser that started the flow. An integrate state also
// needs the same session.
func (h *Handler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	if h.oauth == nil {
		h.writeError(w, "Google login is not configured", http.StatusNotFound)
		return
	}

	handle := h.session(w, r)
	nonce := handle.OAuthNonce()
	handle.ClearOAuthNonce()

	q := r.URL.Query()
	st, err := h.oauth.Consume(q.Get("state"), nonce, handle.GetToken())
	if errors.Is(err, services.ErrOAuthSessionMismatch) {
		slog.Warn("OAuth integration callback from a different session", "mode", st.Mode)
		http.Redirect(w, r, integrationFailedTarget, http.StatusFound)
		return
	}
	if err != nil {
		slog.Warn("OAuth callback with invalid state", "error", err)
		http.Redirect(w, r, services.LoginRedirectURL(services.ReasonInvalidState, ""), http.StatusFound)
		return
	}

	failTarget := services.LoginRedirectURL(services.ReasonOAuthFailed, st.ReturnTo)
	if st.Mode == models.OAuthModeIntegrate {
		failTarget = integrationFailedTarget
	}

	if providerErr := q.Get("error"); providerErr != "" {
		slog.Info("OAuth consent not granted", "error", providerErr, "mode", st.Mode)
		http.Redirect(w, r, failTarget, http.StatusFound)
		return
	}

	tokens, err := h.oauth.Exchange(r.Context(), q.Get("code"), st)
	if err != nil {
		slog.Error("OAuth code exchange failed", "error", err, "mode", st.Mode)
		http.Redirect(w, r, failTarget, http.StatusFound)
		return
	}

	if st.Mode == models.OAuthModeIntegrate {
		h.completeIntegration(w, r, tokens)
		return
	}
	h.completeGoogleLogin(w, r, tokens, st, failTarget)
}

func (h *Handler) completeGoogleLogin(w http.ResponseWriter, r *http.Request, tokens *services.GoogleTokens, st models.OAuthState, failTarget string) {
	result, err := h.upstream.Forward(r.Context(), services.Operation{
		Name:           "syncGoogle",
		Method:         http.MethodPost,
		Path:           "/sync/google",
		Body:           tokens,
		DefaultMessage: "Gagal masuk dengan Google",
	}, "")
	if err == nil && result.IsUnauthenticated {
		h.autoLogout(w, r, st.ReturnTo)
		return
	}
	if err != nil || !result.Success {
		slog.Warn("Google sign-in rejected upstream", "error", err)
		http.Redirect(w, r, failTarget, http.StatusFound)
		return
	}

	token := extractToken(result.Data)
	if token == "" {
		slog.Error("Google sign-in response carried no token")
		http.Redirect(w, r, failTarget, http.StatusFound)
		return
	}

	res, err := h.profiles.Fetch(r.Context(), token)
	if err != nil || res.User == nil {
		slog.Warn("Profile fetch after Google sign-in failed", "error", err, "token", logger.TokenPreview(token))
		http.Redirect(w, r, failTarget, http.StatusFound)
		return
	}
	if err := h.session(w, r).SetSession(token, *res.User); err != nil {
		slog.Error("Failed to set session", "error", err)
		http.Redirect(w, r, failTarget, http.StatusFound)
		return
	}
	h.metrics.IncrementSessionsCreated("google")

	target := res.User.LandingPath()
	if st.ReturnTo != "" && res.User.Access {
		target = st.ReturnTo
	}
	http.Redirect(w, r, target, http.StatusFound)
}

func (h *Handler) completeIntegration(w http.ResponseWriter, r *http.Request, tokens *services.GoogleTokens) {
	token := h.session(w, r).GetToken()
	if token == "" {
		http.Redirect(w, r, services.LoginRedirectURL(services.ReasonUnauthenticated, models.ProfilePath), http.StatusFound)
		return
	}

	tokens.Integrate = true
	result, err := h.upstream.Forward(r.Context(), services.Operation{
		Name:           "integrateGoogle",
		Method:         http.MethodPost,
		Path:           "/sync/google",
		Body:           tokens,
		DefaultMessage: "Gagal menghubungkan akun Google",
	}, token)
	switch {
	case err != nil:
		slog.Error("Google integration failed", "error", err)
		http.Redirect(w, r, integrationFailedTarget, http.StatusFound)
	case result.IsUnauthenticated:
		h.autoLogout(w, r, models.ProfilePath)
	case !result.Success:
		slog.Warn("Google integration rejected upstream", "status", result.Status, "message", result.Message)
		http.Redirect(w, r, integrationFailedTarget, http.StatusFound)
	default:
		http.Redirect(w, r, integratedTarget, http.StatusFound)
	}
}
