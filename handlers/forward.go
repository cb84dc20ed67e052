// ABOUTME: Generic forwarding state machine shared by all proxied operations
// ABOUTME: Checks the session token, calls the upstream client and shapes the JSON reply

package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/oganilir/drive-bff/models"
	"github.com/oganilir/drive-bff/services"
)

const (
	notAuthenticatedMessage = "Not authenticated"
	internalErrorMessage    = "Terjadi kesalahan pada server"
	timeoutMessage          = "Server tidak merespons, coba lagi nanti"
	unavailableMessage      = "Server sedang tidak dapat dihubungi"
)

// endpoint binds an upstream operation to the message sent on success.
type endpoint struct {
	op      services.Operation
	success string
}

// requireToken returns the session token, or writes 401 and returns "".
func (h *Handler) requireToken(w http.ResponseWriter, r *http.Request) string {
	token := h.session(w, r).GetToken()
	if token == "" {
		slog.Debug("Rejecting request without session", "path", r.URL.Path)
		h.writeError(w, notAuthenticatedMessage, http.StatusUnauthorized)
	}
	return token
}

// forward runs ep with token and writes the outcome:
// upstream auth failure → 401 flagged with isUnauthenticated and a login redirect,
// upstream business error → upstream status and message,
// success → 200 {message, data}.
func (h *Handler) forward(w http.ResponseWriter, r *http.Request, ep endpoint, token string) {
	result, err := h.upstream.Forward(r.Context(), ep.op, token)
	h.respond(w, r, ep, result, err)
}

// respond writes the outcome of an upstream call made for ep.
func (h *Handler) respond(w http.ResponseWriter, r *http.Request, ep endpoint, result *services.Result, err error) {
	if err != nil {
		h.writeUpstreamError(w, ep.op, err)
		return
	}

	if result.IsUnauthenticated {
		h.writeAuthFailed(w, r, result.Message)
		return
	}

	if !result.Success {
		slog.Warn("Operation failed upstream", "operation", ep.op.Name, "status", result.Status, "message", result.Message)
		h.writeJSON(w, result.Status, models.APIResponse{
			Status:  models.StatusError,
			Message: result.Message,
			Data:    result.Data,
		})
		return
	}

	message := result.Message
	if message == "" {
		message = ep.success
	}
	h.writeJSON(w, http.StatusOK, models.APIResponse{
		Message: message,
		Data:    result.Data,
	})
}

// writeAuthFailed tells an API caller its session is dead. The page that
// made the call sends the browser through redirect, which runs Auto-Logout.
func (h *Handler) writeAuthFailed(w http.ResponseWriter, r *http.Request, message string) {
	if message == "" {
		message = "Unauthenticated."
	}
	h.writeJSON(w, http.StatusUnauthorized, models.APIResponse{
		Status:            models.StatusError,
		Message:           message,
		IsUnauthenticated: true,
		Redirect:          "/auth/session-expired" + redirectQuery(services.RefererPath(r)),
	})
}

func redirectQuery(path string) string {
	if path == "" {
		return ""
	}
	return "?redirect=" + url.QueryEscape(path)
}

// writeUpstreamError maps transport and protocol failures to a status.
// Details stay in the log.
func (h *Handler) writeUpstreamError(w http.ResponseWriter, op services.Operation, err error) {
	slog.Error("Operation failed", "operation", op.Name, "error", err)
	switch {
	case errors.Is(err, services.ErrUpstreamTimeout):
		h.writeError(w, timeoutMessage, http.StatusGatewayTimeout)
	case errors.Is(err, services.ErrUpstreamUnavailable):
		h.writeError(w, unavailableMessage, http.StatusBadGateway)
	default:
		h.writeError(w, internalErrorMessage, http.StatusInternalServerError)
	}
}

// writeValidationError answers 400 with the field-specific message.
func (h *Handler) writeValidationError(w http.ResponseWriter, err error) {
	var ve *services.ValidationError
	if errors.As(err, &ve) {
		h.writeJSON(w, http.StatusBadRequest, models.APIResponse{
			Status:  models.StatusError,
			Message: ve.Message,
		})
		return
	}
	h.writeError(w, err.Error(), http.StatusBadRequest)
}
