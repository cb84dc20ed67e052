// ABOUTME: Admin user management handlers
// ABOUTME: Forwards user listing, creation, update, access changes and deletion upstream

package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/oganilir/drive-bff/models"
	"github.com/oganilir/drive-bff/services"
)

const (
	msgInvalidUserID = "ID pengguna tidak valid"
	msgEmptyEmail    = "Email wajib diisi"
	msgEmptyFullname = "Nama lengkap wajib diisi"
	msgEmptyPassword = "Kata sandi wajib diisi"
	msgNoAccessValue = "Status akses wajib diisi"
	msgEmptyUpdate   = "Tidak ada data yang diubah"
)

// ListUsers returns all users for the admin screen.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	h.getList("getUsers", "/v2/getUsers")(w, r)
}

// CreateUser creates an account. The body is forwarded as-is after the
// required fields are checked.
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	token := h.requireToken(w, r)
	if token == "" {
		return
	}

	var body map[string]json.RawMessage
	if !h.decodeJSON(w, r, &body) {
		return
	}
	for _, required := range []struct{ field, message string }{
		{"email", msgEmptyEmail},
		{"fullname", msgEmptyFullname},
		{"password", msgEmptyPassword},
	} {
		if err := requireString(body, required.field, required.message); err != nil {
			h.writeValidationError(w, err)
			return
		}
	}

	h.forward(w, r, endpoint{
		op: services.Operation{
			Name:           "createUser",
			Method:         http.MethodPost,
			Path:           "/createUser",
			Body:           body,
			DefaultMessage: "Gagal menambahkan pengguna",
		},
		success: "Berhasil menambahkan pengguna",
	}, token)
}

// UpdateUser changes profile fields of another user.
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	token := h.requireToken(w, r)
	if token == "" {
		return
	}

	id, ok := h.userID(w, r)
	if !ok {
		return
	}

	var body map[string]json.RawMessage
	if !h.decodeJSON(w, r, &body) {
		return
	}
	if len(body) == 0 {
		h.writeValidationError(w, services.NewValidationError("body", msgEmptyUpdate))
		return
	}

	h.forward(w, r, endpoint{
		op: services.Operation{
			Name:           "updateUser",
			Method:         http.MethodPut,
			Path:           "/updateUser/" + id,
			Body:           body,
			DefaultMessage: "Gagal memperbarui pengguna",
		},
		success: "Berhasil memperbarui pengguna",
	}, token)
}

// UpdateUserAccess grants or revokes a user's access flag.
func (h *Handler) UpdateUserAccess(w http.ResponseWriter, r *http.Request) {
	token := h.requireToken(w, r)
	if token == "" {
		return
	}

	id, ok := h.userID(w, r)
	if !ok {
		return
	}

	var req models.UserAccessRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	if req.Access == nil {
		h.writeValidationError(w, services.NewValidationError("access", msgNoAccessValue))
		return
	}

	h.forward(w, r, endpoint{
		op: services.Operation{
			Name:           "updateUserAccess",
			Method:         http.MethodPut,
			Path:           "/updateUserAccess/" + id,
			Body:           req,
			DefaultMessage: "Gagal memperbarui akses pengguna",
		},
		success: "Berhasil memperbarui akses pengguna",
	}, token)
}

// DeleteUser removes an account.
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	token := h.requireToken(w, r)
	if token == "" {
		return
	}

	id, ok := h.userID(w, r)
	if !ok {
		return
	}

	h.forward(w, r, endpoint{
		op: services.Operation{
			Name:           "deleteUser",
			Method:         http.MethodDelete,
			Path:           "/deleteUser/" + id,
			DefaultMessage: "Gagal menghapus pengguna",
		},
		success: "Berhasil menghapus pengguna",
	}, token)
}

func (h *Handler) userID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "id")
	if err := services.ValidateUserID(id); err != nil {
		h.writeValidationError(w, services.NewValidationError("id", msgInvalidUserID))
		return "", false
	}
	return id, true
}

// requireString checks that body[field] is a non-blank JSON string.
func requireString(body map[string]json.RawMessage, field, message string) error {
	var s string
	if raw, ok := body[field]; !ok || json.Unmarshal(raw, &s) != nil || strings.TrimSpace(s) == "" {
		return services.NewValidationError(field, message)
	}
	return nil
}
