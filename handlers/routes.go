// ABOUTME: Declarative route table for API endpoints
// ABOUTME: Defines all routes with their HTTP methods, handlers and protection class

package handlers

import "net/http"

// Route defines an API endpoint with its HTTP method and handler.
type Route struct {
	Method  string           // HTTP method (GET, POST, etc.)
	Path    string           // URL path, chi patterns allowed (e.g., "/api/rename/{slug}")
	Handler http.HandlerFunc // Handler function
	Auth    bool             // credential endpoint: strict per-IP rate limit
	Gated   bool             // refused for users whose account has no access yet
}

// Routes returns all routes for registration.
func (h *Handler) Routes() []Route {
	return []Route{
		// Health
		{Method: http.MethodGet, Path: "/api/health", Handler: h.Health},

		// Session
		{Method: http.MethodPost, Path: "/api/auth/login", Handler: h.Login, Auth: true},
		{Method: http.MethodPost, Path: "/api/auth/logout", Handler: h.Logout},
		{Method: http.MethodGet, Path: "/api/auth/me", Handler: h.Me},
		{Method: http.MethodGet, Path: "/auth/auto-login", Handler: h.AutoLogin, Auth: true},
		{Method: http.MethodGet, Path: "/auth/session-expired", Handler: h.SessionExpired},
		{Method: http.MethodGet, Path: "/auth/google", Handler: h.GoogleLogin, Auth: true},
		{Method: http.MethodGet, Path: "/auth/google/integrate", Handler: h.GoogleIntegrate, Auth: true},
		{Method: http.MethodGet, Path: "/auth/google/callback", Handler: h.GoogleCallback, Auth: true},

		// Profile
		{Method: http.MethodGet, Path: "/api/getProfile", Handler: h.GetProfile},
		{Method: http.MethodPost, Path: "/api/updateProfile", Handler: h.UpdateProfile},

		// Files and folders
		{Method: http.MethodGet, Path: "/api/folder", Handler: h.ListFolder, Gated: true},
		{Method: http.MethodPost, Path: "/api/folder", Handler: h.CreateFolder, Gated: true},
		{Method: http.MethodPut, Path: "/api/rename/{slug}", Handler: h.Rename, Gated: true},
		{Method: http.MethodPost, Path: "/api/delete", Handler: h.Delete, Gated: true},
		{Method: http.MethodPost, Path: "/api/forceDelete", Handler: h.ForceDelete, Gated: true},
		{Method: http.MethodPost, Path: "/api/restore", Handler: h.Restore, Gated: true},
		{Method: http.MethodPost, Path: "/api/moveItem", Handler: h.MoveItems, Gated: true},
		{Method: http.MethodPost, Path: "/api/setFavorite", Handler: h.SetFavorite, Gated: true},
		{Method: http.MethodGet, Path: "/api/getFavoriteItems", Handler: h.GetFavoriteItems, Gated: true},
		{Method: http.MethodGet, Path: "/api/getItemsTrashed", Handler: h.GetItemsTrashed, Gated: true},
		{Method: http.MethodGet, Path: "/api/search", Handler: h.Search, Gated: true},
		{Method: http.MethodGet, Path: "/api/getFolders", Handler: h.GetFolders, Gated: true},
		{Method: http.MethodGet, Path: "/api/path", Handler: h.Path, Gated: true},
		{Method: http.MethodGet, Path: "/api/download", Handler: h.Download, Gated: true},
		{Method: http.MethodGet, Path: "/api/getActivities", Handler: h.GetActivities, Gated: true},

		// Sharing
		{Method: http.MethodGet, Path: "/api/publicity/{slug}", Handler: h.GetPublicity, Gated: true},
		{Method: http.MethodPost, Path: "/api/publicity/{slug}", Handler: h.SetPublicity, Gated: true},
		{Method: http.MethodPost, Path: "/api/getAccessToFolder", Handler: h.GetAccessToFolder, Gated: true},
		{Method: http.MethodGet, Path: "/api/getSharedFolders", Handler: h.GetSharedFolders, Gated: true},
		{Method: http.MethodGet, Path: "/api/getItemsSharer", Handler: h.GetItemsSharer, Gated: true},

		// Admin
		{Method: http.MethodGet, Path: "/api/admin/users", Handler: h.ListUsers, Gated: true},
		{Method: http.MethodPost, Path: "/api/admin/users", Handler: h.CreateUser, Gated: true},
		{Method: http.MethodPut, Path: "/api/admin/users/{id}", Handler: h.UpdateUser, Gated: true},
		{Method: http.MethodDelete, Path: "/api/admin/users/{id}", Handler: h.DeleteUser, Gated: true},
		{Method: http.MethodPut, Path: "/api/admin/users/{id}/access", Handler: h.UpdateUserAccess, Gated: true},
	}
}
