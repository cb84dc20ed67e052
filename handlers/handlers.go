// ABOUTME: HTTP handlers for the drive BFF
// ABOUTME: Holds shared dependencies and the JSON response helpers every route uses

package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/oganilir/drive-bff/config"
	"github.com/oganilir/drive-bff/metrics"
	"github.com/oganilir/drive-bff/models"
	"github.com/oganilir/drive-bff/services"
)

// maxJSONBody caps JSON request bodies; uploads have their own limit
const maxJSONBody = 1 << 20

type Handler struct {
	cfg      *config.Config
	sessions *services.SessionStore
	upstream *services.UpstreamClient
	profiles *services.ProfileFetcher
	oauth    *services.GoogleOAuth
	metrics  *metrics.Metrics
}

func NewHandler(cfg *config.Config, sessions *services.SessionStore, upstream *services.UpstreamClient) *Handler {
	return &Handler{
		cfg:      cfg,
		sessions: sessions,
		upstream: upstream,
		profiles: services.NewProfileFetcher(upstream),
	}
}

// SetOAuth enables the Google login and integration routes
func (h *Handler) SetOAuth(g *services.GoogleOAuth) {
	h.oauth = g
}

// SetMetrics enables session metrics
func (h *Handler) SetMetrics(m *metrics.Metrics) {
	h.metrics = m
}

// session returns the request's session handle. The Session middleware
// normally provides it; a fresh handle is built when it did not run.
func (h *Handler) session(w http.ResponseWriter, r *http.Request) *services.SessionHandle {
	if handle := services.SessionFromContext(r.Context()); handle != nil {
		return handle
	}
	return h.sessions.Handle(w, r)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Failed to encode JSON response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, code int) {
	h.writeJSON(w, code, models.APIResponse{
		Status:  models.StatusError,
		Message: message,
	})
}

// decodeJSON reads a JSON request body into dst, writing 400 on failure.
func (h *Handler) decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	body := http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			h.writeError(w, "Request body too large", http.StatusRequestEntityTooLarge)
		case errors.Is(err, io.EOF):
			h.writeError(w, "Request body is required", http.StatusBadRequest)
		default:
			h.writeError(w, "Invalid request body", http.StatusBadRequest)
		}
		return false
	}
	return true
}
