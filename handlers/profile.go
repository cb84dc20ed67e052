// ABOUTME: Profile handlers for the signed-in user
// ABOUTME: Reads the profile and forwards multipart profile updates after checking the photo type

package handlers

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/oganilir/drive-bff/services"
)

const (
	photoField       = "photo"
	msgPhotoNotImage = "Foto profil harus berupa gambar"
	msgNotMultipart  = "Data profil harus dikirim sebagai multipart/form-data"
)

// GetProfile returns the upstream profile of the signed-in user.
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	h.getList("getProfile", "/getProfile")(w, r)
}

// UpdateProfile forwards the multipart body unchanged. The photo part, if
// any, must sniff as an image. On success the cached session profile is
// refreshed so the header shows the new name and photo.
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	token := h.requireToken(w, r)
	if token == "" {
		return
	}

	contentType := r.Header.Get("Content-Type")
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil || mediaType != "multipart/form-data" || params["boundary"] == "" {
		h.writeValidationError(w, services.NewValidationError("body", msgNotMultipart))
		return
	}

	limit := int64(h.cfg.MaxUploadMB) << 20
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, limit))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeError(w, "Ukuran file melebihi batas", http.StatusRequestEntityTooLarge)
			return
		}
		h.writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := checkPhotoPart(body, params["boundary"]); err != nil {
		h.writeValidationError(w, err)
		return
	}

	ep := endpoint{
		op: services.Operation{
			Name:           "updateProfile",
			Method:         http.MethodPost,
			Path:           "/updateProfile",
			Raw:            bytes.NewReader(body),
			ContentType:    contentType,
			DefaultMessage: "Gagal memperbarui profil",
		},
		success: "Berhasil memperbarui profil",
	}
	result, err := h.upstream.Forward(r.Context(), ep.op, token)
	if err == nil && result.Success {
		h.refreshSessionUser(w, r, token)
	}
	h.respond(w, r, ep, result, err)
}

// checkPhotoPart scans the multipart body and sniffs the photo part.
func checkPhotoPart(body []byte, boundary string) error {
	reader := multipart.NewReader(bytes.NewReader(body), boundary)
	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return services.NewValidationError("body", msgNotMultipart)
		}
		if part.FormName() != photoField || part.FileName() == "" {
			continue
		}

		detected, err := mimetype.DetectReader(part)
		if err != nil {
			return services.NewValidationError(photoField, msgPhotoNotImage)
		}
		if !strings.HasPrefix(detected.String(), "image/") {
			slog.Info("Rejected profile photo", "detected", detected.String(), "filename", part.FileName())
			return services.NewValidationError(photoField, msgPhotoNotImage)
		}
	}
}

// refreshSessionUser re-reads the profile into the session. Failures keep
// the old cached profile.
func (h *Handler) refreshSessionUser(w http.ResponseWriter, r *http.Request, token string) {
	res, err := h.profiles.Fetch(r.Context(), token)
	if err != nil || res.User == nil {
		slog.Warn("Could not refresh session profile", "error", err)
		return
	}
	if err := h.session(w, r).SetSession(token, *res.User); err != nil {
		slog.Warn("Could not update session profile", "error", err)
	}
}
