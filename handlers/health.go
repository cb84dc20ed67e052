// ABOUTME: HTTP handler for the health endpoint
// ABOUTME: Reports service status and which optional integrations are configured

package handlers

import "net/http"

// Health returns API health status. It does not call the upstream.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":              "ok",
		"upstream_configured": h.cfg != nil && h.cfg.APIBaseURL != "",
		"oauth_configured":    h.oauth != nil,
	})
}
