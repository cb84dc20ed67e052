// ABOUTME: File and folder operation handlers
// ABOUTME: Validates request bodies locally and forwards folder, trash, favorite and search calls upstream

package handlers

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/oganilir/drive-bff/models"
	"github.com/oganilir/drive-bff/services"
)

const (
	msgEmptyName    = "Nama tidak boleh kosong"
	msgEmptyIDs     = "Pilih minimal satu item"
	msgEmptySources = "Pilih minimal satu item untuk dipindahkan"
	msgNoTarget     = "Folder tujuan wajib dipilih"
	msgEmptyKeyword = "Kata kunci pencarian tidak boleh kosong"
	msgInvalidSlug  = "Item tidak valid"
)

// query copies the caller's query string for upstream passthrough.
func query(r *http.Request) url.Values {
	q := r.URL.Query()
	if len(q) == 0 {
		return nil
	}
	return q
}

// getList forwards a read-only GET with the caller's query string.
func (h *Handler) getList(name, path string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := h.requireToken(w, r)
		if token == "" {
			return
		}
		h.forward(w, r, endpoint{op: services.Operation{
			Name:           name,
			Method:         http.MethodGet,
			Path:           path,
			Query:          query(r),
			DefaultMessage: "Gagal memuat data",
		}}, token)
	}
}

// ListFolder returns the contents of a folder (root when no folder is given).
func (h *Handler) ListFolder(w http.ResponseWriter, r *http.Request) {
	h.getList("listFolder", "/folder")(w, r)
}

// GetFavoriteItems lists the user's favorite items.
func (h *Handler) GetFavoriteItems(w http.ResponseWriter, r *http.Request) {
	h.getList("getFavoriteItems", "/getFavoriteItems")(w, r)
}

// GetItemsTrashed lists soft-deleted items.
func (h *Handler) GetItemsTrashed(w http.ResponseWriter, r *http.Request) {
	h.getList("getItemsTrashed", "/getItemsTrashed")(w, r)
}

// GetFolders returns the folder tree used by the move dialog. excludeIds is
// forwarded as given; cycle checks are left to the upstream.
func (h *Handler) GetFolders(w http.ResponseWriter, r *http.Request) {
	h.getList("getFolders", "/getFolders")(w, r)
}

// Path returns the breadcrumb trail for a folder.
func (h *Handler) Path(w http.ResponseWriter, r *http.Request) {
	h.getList("path", "/path")(w, r)
}

// Download returns a download link for an item.
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	h.getList("download", "/download")(w, r)
}

// GetActivities returns the activity log.
func (h *Handler) GetActivities(w http.ResponseWriter, r *http.Request) {
	h.getList("getActivities", "/getActivities")(w, r)
}

// Search finds items by keyword.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	token := h.requireToken(w, r)
	if token == "" {
		return
	}

	q := r.URL.Query()
	keyword := strings.TrimSpace(q.Get("keyword"))
	if keyword == "" {
		h.writeValidationError(w, services.NewValidationError("keyword", msgEmptyKeyword))
		return
	}
	q.Set("keyword", keyword)

	h.forward(w, r, endpoint{op: services.Operation{
		Name:           "search",
		Method:         http.MethodGet,
		Path:           "/search",
		Query:          q,
		DefaultMessage: "Gagal melakukan pencarian",
	}}, token)
}

// CreateFolder creates a folder under parent_id (root when omitted).
func (h *Handler) CreateFolder(w http.ResponseWriter, r *http.Request) {
	token := h.requireToken(w, r)
	if token == "" {
		return
	}

	var req models.CreateFolderRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	name, err := services.RequireName("name", req.Name, msgEmptyName)
	if err != nil {
		h.writeValidationError(w, err)
		return
	}
	req.Name = name

	h.forward(w, r, endpoint{
		op: services.Operation{
			Name:           "createFolder",
			Method:         http.MethodPost,
			Path:           "/folder",
			Body:           req,
			DefaultMessage: "Gagal membuat folder",
		},
		success: "Berhasil membuat folder",
	}, token)
}

// Rename renames the file or folder identified by slug.
func (h *Handler) Rename(w http.ResponseWriter, r *http.Request) {
	token := h.requireToken(w, r)
	if token == "" {
		return
	}

	slug := chi.URLParam(r, "slug")
	if err := services.ValidateSlug(slug); err != nil {
		h.writeValidationError(w, services.NewValidationError("slug", msgInvalidSlug))
		return
	}

	var req models.RenameRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	name, err := services.RequireName("name", req.Name, msgEmptyName)
	if err != nil {
		h.writeValidationError(w, err)
		return
	}
	req.Name = name

	h.forward(w, r, endpoint{
		op: services.Operation{
			Name:           "rename",
			Method:         http.MethodPut,
			Path:           "/rename/" + slug,
			Body:           req,
			DefaultMessage: "Gagal mengubah nama",
		},
		success: "Berhasil mengubah nama",
	}, token)
}

// idsOperation builds a handler for bodies of the form {"ids": [...]}.
func (h *Handler) idsOperation(name, path, failure, success string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := h.requireToken(w, r)
		if token == "" {
			return
		}

		var req models.IDsRequest
		if !h.decodeJSON(w, r, &req) {
			return
		}
		if err := services.RequireIDList("ids", req.IDs, msgEmptyIDs); err != nil {
			h.writeValidationError(w, err)
			return
		}

		h.forward(w, r, endpoint{
			op: services.Operation{
				Name:           name,
				Method:         http.MethodPost,
				Path:           path,
				Body:           req,
				DefaultMessage: failure,
			},
			success: success,
		}, token)
	}
}

// Delete moves items to the trash.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	h.idsOperation("delete", "/delete", "Gagal menghapus item", "Berhasil menghapus item")(w, r)
}

// ForceDelete removes items permanently.
func (h *Handler) ForceDelete(w http.ResponseWriter, r *http.Request) {
	h.idsOperation("forceDelete", "/forceDelete", "Gagal menghapus item secara permanen", "Berhasil menghapus item secara permanen")(w, r)
}

// Restore brings items back from the trash.
func (h *Handler) Restore(w http.ResponseWriter, r *http.Request) {
	h.idsOperation("restore", "/restore", "Gagal memulihkan item", "Berhasil memulihkan item")(w, r)
}

// MoveItems moves sourceIds into targetId. A targetId of 0 is the root folder.
func (h *Handler) MoveItems(w http.ResponseWriter, r *http.Request) {
	token := h.requireToken(w, r)
	if token == "" {
		return
	}

	var req models.MoveRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	if err := services.RequireIDList("sourceIds", req.SourceIDs, msgEmptySources); err != nil {
		h.writeValidationError(w, err)
		return
	}
	if err := services.RequirePresent("targetId", req.TargetID, msgNoTarget); err != nil {
		h.writeValidationError(w, err)
		return
	}

	h.forward(w, r, endpoint{
		op: services.Operation{
			Name:           "moveItem",
			Method:         http.MethodPost,
			Path:           "/moveItem",
			Body:           req,
			DefaultMessage: "Gagal memindahkan item",
		},
		success: "Berhasil memindahkan item",
	}, token)
}

// SetFavorite marks or unmarks items as favorites.
func (h *Handler) SetFavorite(w http.ResponseWriter, r *http.Request) {
	token := h.requireToken(w, r)
	if token == "" {
		return
	}

	var req models.FavoriteRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	if err := services.RequireIDList("ids", req.IDs, msgEmptyIDs); err != nil {
		h.writeValidationError(w, err)
		return
	}

	h.forward(w, r, endpoint{
		op: services.Operation{
			Name:           "setFavorite",
			Method:         http.MethodPost,
			Path:           "/setFavorite",
			Body:           req,
			DefaultMessage: "Gagal memperbarui favorit",
		},
		success: "Berhasil memperbarui favorit",
	}, token)
}
