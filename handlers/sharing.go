// ABOUTME: Sharing handlers for public links and shared folders
// ABOUTME: Forwards publicity reads/writes, folder access grants and shared listings upstream

package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/oganilir/drive-bff/models"
	"github.com/oganilir/drive-bff/services"
)

const msgNoPublicity = "Status berbagi wajib diisi"

// GetPublicity reports whether the item identified by slug is public.
func (h *Handler) GetPublicity(w http.ResponseWriter, r *http.Request) {
	token := h.requireToken(w, r)
	if token == "" {
		return
	}

	slug := chi.URLParam(r, "slug")
	if err := services.ValidateSlug(slug); err != nil {
		h.writeValidationError(w, services.NewValidationError("slug", msgInvalidSlug))
		return
	}

	h.forward(w, r, endpoint{op: services.Operation{
		Name:           "getPublicity",
		Method:         http.MethodGet,
		Path:           "/publicity/" + slug,
		DefaultMessage: "Gagal memuat status berbagi",
	}}, token)
}

// SetPublicity makes an item public or private.
func (h *Handler) SetPublicity(w http.ResponseWriter, r *http.Request) {
	token := h.requireToken(w, r)
	if token == "" {
		return
	}

	slug := chi.URLParam(r, "slug")
	if err := services.ValidateSlug(slug); err != nil {
		h.writeValidationError(w, services.NewValidationError("slug", msgInvalidSlug))
		return
	}

	var req models.PublicityRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	if req.IsPublic == nil {
		h.writeValidationError(w, services.NewValidationError("is_public", msgNoPublicity))
		return
	}

	h.forward(w, r, endpoint{
		op: services.Operation{
			Name:           "setPublicity",
			Method:         http.MethodPost,
			Path:           "/publicity/" + slug,
			Body:           req,
			DefaultMessage: "Gagal memperbarui status berbagi",
		},
		success: "Berhasil memperbarui status berbagi",
	}, token)
}

// GetAccessToFolder joins a shared folder by its slug.
func (h *Handler) GetAccessToFolder(w http.ResponseWriter, r *http.Request) {
	token := h.requireToken(w, r)
	if token == "" {
		return
	}

	var req models.FolderAccessRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	req.Slug = strings.TrimSpace(req.Slug)
	if err := services.ValidateSlug(req.Slug); err != nil {
		h.writeValidationError(w, services.NewValidationError("slug", msgInvalidSlug))
		return
	}

	h.forward(w, r, endpoint{
		op: services.Operation{
			Name:           "getAccessToFolder",
			Method:         http.MethodPost,
			Path:           "/getAccessToFolder",
			Body:           req,
			DefaultMessage: "Gagal mendapatkan akses",
		},
		success: "Berhasil mendapatkan akses",
	}, token)
}

// GetSharedFolders lists folders shared with the user.
func (h *Handler) GetSharedFolders(w http.ResponseWriter, r *http.Request) {
	h.getList("getSharedFolders", "/getSharedFolders")(w, r)
}

// GetItemsSharer lists items shared by a given user.
func (h *Handler) GetItemsSharer(w http.ResponseWriter, r *http.Request) {
	h.getList("getItemsSharer", "/getItemsSharer")(w, r)
}
