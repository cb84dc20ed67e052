// ABOUTME: Response envelope and request bodies for the proxied drive operations
// ABOUTME: Mirrors the {status, message, data} shape the frontend consumes

package models

import "encoding/json"

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// APIResponse is the JSON shape every route handler emits.
// Successful proxied operations carry only message and data.
type APIResponse struct {
	Status            string          `json:"status,omitempty"`
	Message           string          `json:"message,omitempty"`
	Data              json.RawMessage `json:"data,omitempty"`
	IsUnauthenticated bool            `json:"isUnauthenticated,omitempty"`
	Redirect          string          `json:"redirect,omitempty"`
}

// CreateFolderRequest is the body of POST /api/folder
type CreateFolderRequest struct {
	Name     string          `json:"name"`
	ParentID json.RawMessage `json:"parent_id,omitempty"`
}

// RenameRequest is the body of PUT /api/rename/{slug}
type RenameRequest struct {
	Name string `json:"name"`
}

// IDsRequest is the body of delete, force delete and restore.
// IDs stay raw so the upstream receives exactly what the browser sent.
type IDsRequest struct {
	IDs json.RawMessage `json:"ids"`
}

// FavoriteRequest is the body of POST /api/setFavorite
type FavoriteRequest struct {
	IDs        json.RawMessage `json:"ids"`
	IsFavorite bool            `json:"is_favorite"`
}

// MoveRequest is the body of POST /api/moveItem.
// TargetID 0 (or "0") addresses the root folder.
type MoveRequest struct {
	SourceIDs json.RawMessage `json:"sourceIds"`
	TargetID  json.RawMessage `json:"targetId"`
}

// PublicityRequest is the body of POST /api/publicity/{slug}
type PublicityRequest struct {
	IsPublic *bool `json:"is_public"`
}

// FolderAccessRequest is the body of POST /api/getAccessToFolder
type FolderAccessRequest struct {
	Slug string `json:"slug"`
}

// UserAccessRequest is the body of PUT /api/admin/users/{id}/access
type UserAccessRequest struct {
	Access *bool `json:"access"`
}
