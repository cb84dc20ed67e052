// ABOUTME: Cookie-backed session store for the BFF session
// ABOUTME: Signs the bearer token and cached profile into an HTTP-only cookie and resolves it per request

package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/oganilir/drive-bff/models"
)

const (
	SessionCookieName        = "drive_session"
	CSRFCookieName           = "drive_csrf"
	TransientTokenCookieName = "token"
	OAuthNonceCookieName     = "drive_oauth"

	SessionMaxAge        = 30 * 24 * time.Hour
	transientTokenMaxAge = 5 * time.Minute

	sessionIssuer = "drive-bff"
)

// sessionClaims is the signed cookie payload
type sessionClaims struct {
	Token string             `json:"tok"`
	User  models.UserSummary `json:"usr"`
	jwt.RegisteredClaims
}

// SessionStore encodes sessions into signed cookies. It holds no per-user state;
// every request gets its own SessionHandle.
type SessionStore struct {
	signingKey []byte
	secure     bool
}

// NewSessionStore creates a session store. An empty secret gets a random
// per-process key, which invalidates all sessions on restart.
func NewSessionStore(secret string, secure bool) *SessionStore {
	key := []byte(secret)
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			panic(fmt.Sprintf("session store: generating signing key: %v", err))
		}
		slog.Warn("SESSION_SECRET not set, sessions will not survive a restart")
	}
	return &SessionStore{signingKey: key, secure: secure}
}

// Encode signs a session into a cookie value.
func (s *SessionStore) Encode(session models.Session) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, sessionClaims{
		Token: session.Token,
		User:  session.User,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    sessionIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(SessionMaxAge)),
		},
	})
	return token.SignedString(s.signingKey)
}

// Decode verifies and parses a cookie value.
func (s *SessionStore) Decode(value string) (*models.Session, error) {
	parsed, err := jwt.ParseWithClaims(value, &sessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	}, jwt.WithIssuer(sessionIssuer), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}

	claims, ok := parsed.Claims.(*sessionClaims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid session claims")
	}

	return &models.Session{Token: claims.Token, User: claims.User}, nil
}

// Handle returns the request-scoped view of the session for r.
// Cookie writes go to w.
func (s *SessionStore) Handle(w http.ResponseWriter, r *http.Request) *SessionHandle {
	return &SessionHandle{store: s, w: w, r: r}
}

// SessionHandle reads and writes the session of a single request.
// The cookie is decoded at most once; writes are visible to later reads.
type SessionHandle struct {
	store   *SessionStore
	w       http.ResponseWriter
	r       *http.Request
	loaded  bool
	session *models.Session
}

// GetSession returns the current session, or nil when the cookie is absent,
// malformed or carries a bad signature.
func (h *SessionHandle) GetSession() *models.Session {
	if !h.loaded {
		h.loaded = true
		h.session = h.load()
	}
	if h.session == nil {
		return nil
	}
	session := *h.session
	return &session
}

func (h *SessionHandle) load() *models.Session {
	cookie, err := h.r.Cookie(SessionCookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}

	session, err := h.store.Decode(cookie.Value)
	if err != nil {
		slog.Debug("Discarding unreadable session cookie", "path", h.r.URL.Path, "error", err)
		return nil
	}
	return session
}

// GetToken returns the bearer token, or "" without a session.
func (h *SessionHandle) GetToken() string {
	if session := h.GetSession(); session != nil {
		return session.Token
	}
	return ""
}

// GetCurrentUser returns the cached profile, or nil without a session.
func (h *SessionHandle) GetCurrentUser() *models.UserSummary {
	if session := h.GetSession(); session != nil {
		return &session.User
	}
	return nil
}

// IsAuthenticated reports whether a session with a non-empty token exists.
func (h *SessionHandle) IsAuthenticated() bool {
	return h.GetToken() != ""
}

// SetSession replaces the session with a single cookie write and issues a
// fresh CSRF token alongside it.
func (h *SessionHandle) SetSession(token string, user models.UserSummary) error {
	if token == "" {
		return errors.New("session token is empty")
	}

	session := models.Session{Token: token, User: user}
	value, err := h.store.Encode(session)
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}

	csrfToken, err := newCSRFToken()
	if err != nil {
		return fmt.Errorf("generating csrf token: %w", err)
	}

	http.SetCookie(h.w, h.store.cookie(SessionCookieName, value, SessionMaxAge, true))
	// Readable by script for the double-submit header
	http.SetCookie(h.w, h.store.cookie(CSRFCookieName, csrfToken, SessionMaxAge, false))

	h.loaded = true
	h.session = &session
	return nil
}

// ClearSession expires the session and CSRF cookies. Safe without a session.
func (h *SessionHandle) ClearSession() {
	http.SetCookie(h.w, h.store.cookie(SessionCookieName, "", -1, true))
	http.SetCookie(h.w, h.store.cookie(CSRFCookieName, "", -1, false))
	h.loaded = true
	h.session = nil
}

// TransientToken returns the auto-login token cookie, if any.
func (h *SessionHandle) TransientToken() string {
	cookie, err := h.r.Cookie(TransientTokenCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// SetTransientToken stores a token for the auto-login exchange.
func (h *SessionHandle) SetTransientToken(token string) {
	http.SetCookie(h.w, h.store.cookie(TransientTokenCookieName, token, transientTokenMaxAge, true))
}

// ClearTransientToken removes the auto-login token cookie.
func (h *SessionHandle) ClearTransientToken() {
	http.SetCookie(h.w, h.store.cookie(TransientTokenCookieName, "", -1, true))
}

// OAuthNonce returns the nonce cookie set when this browser started a
// Google flow.
func (h *SessionHandle) OAuthNonce() string {
	cookie, err := h.r.Cookie(OAuthNonceCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

func (h *SessionHandle) SetOAuthNonce(nonce string) {
	http.SetCookie(h.w, h.store.cookie(OAuthNonceCookieName, nonce, oauthStateTTL, true))
}

func (h *SessionHandle) ClearOAuthNonce() {
	http.SetCookie(h.w, h.store.cookie(OAuthNonceCookieName, "", -1, true))
}

func (s *SessionStore) cookie(name, value string, maxAge time.Duration, httpOnly bool) *http.Cookie {
	seconds := int(maxAge / time.Second)
	if maxAge < 0 {
		seconds = -1 // Delete cookie
	}
	return &http.Cookie{
		Name:     name,
		Value:    value,
		HttpOnly: httpOnly,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
		MaxAge:   seconds,
	}
}

// newCSRFToken returns 32 random bytes, base64url encoded (44 chars)
func newCSRFToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

type sessionContextKey struct{}

// WithSession attaches a request-scoped session handle to ctx.
func WithSession(ctx context.Context, handle *SessionHandle) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, handle)
}

// SessionFromContext returns the handle attached by WithSession, or nil.
func SessionFromContext(ctx context.Context) *SessionHandle {
	handle, _ := ctx.Value(sessionContextKey{}).(*SessionHandle)
	return handle
}
