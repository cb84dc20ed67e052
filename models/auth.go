// ABOUTME: Session and auth request/response models for the BFF cookie session
// ABOUTME: Defines the session payload, cached user profile, and login API contracts

package models

import "time"

// UserSummary is the cached subset of the upstream profile kept in the session.
// Access false means the account exists but may not use protected areas yet.
type UserSummary struct {
	ID        int64  `json:"id"`
	Fullname  string `json:"fullname"`
	Firstname string `json:"firstname"`
	Lastname  string `json:"lastname"`
	Email     string `json:"email"`
	Photo     string `json:"photo"`
	Access    bool   `json:"access"`
}

// Session is the payload of the drive_session cookie.
// The token is only ever sent upstream; it is never returned to the browser.
type Session struct {
	Token string      `json:"token"`
	User  UserSummary `json:"user"`
}

// LoginRequest represents password credentials for authentication
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginData is returned inside the data field of a successful login
type LoginData struct {
	User     UserSummary `json:"user"`
	Redirect string      `json:"redirect"`
}

// UserInfoResponse represents the current user's authentication state
type UserInfoResponse struct {
	Authenticated bool         `json:"authenticated"`
	User          *UserSummary `json:"user,omitempty"`
}

// Landing paths after authentication
const (
	DashboardPath = "/dashboard"
	NoAccessPath  = "/no-access"
	LoginPath     = "/login"
	ProfilePath   = "/profile"
)

// LandingPath returns where a freshly authenticated user should go.
func (u UserSummary) LandingPath() string {
	if !u.Access {
		return NoAccessPath
	}
	return DashboardPath
}

// OAuth flow modes
const (
	OAuthModeLogin     = "login"
	OAuthModeIntegrate = "integrate"
)

// OAuthState is the server-side record of an in-flight Google OAuth redirect,
// keyed by the state parameter.
type OAuthState struct {
	Mode         string
	CodeVerifier string
	ReturnTo     string
	// Nonce must come back in the browser's nonce cookie.
	Nonce string
	// Owner is a digest of the session token that started an integrate flow.
	Owner     string
	CreatedAt time.Time
}
