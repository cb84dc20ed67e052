// ABOUTME: Google OAuth client for login and account integration
// ABOUTME: Uses authorization code flow with PKCE; state is bound to the starting browser and consumed once

package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/oganilir/drive-bff/cache"
	"github.com/oganilir/drive-bff/models"
)

const oauthStateTTL = 10 * time.Minute

var (
	// ErrInvalidOAuthState is returned for a missing, unknown, expired or
	// already-used state parameter, or one presented by another browser.
	ErrInvalidOAuthState = errors.New("invalid oauth state")
	// ErrOAuthSessionMismatch means an integrate callback arrived under a
	// different session than the one that started it.
	ErrOAuthSessionMismatch = errors.New("oauth state belongs to another session")
)

// GoogleOAuth starts and completes Google authorization code flows.
type GoogleOAuth struct {
	config *oauth2.Config
	states *cache.Cache[models.OAuthState]
}

// NewGoogleOAuth configures the flow. redirectURL is the absolute callback URL.
func NewGoogleOAuth(clientID, clientSecret, redirectURL string) *GoogleOAuth {
	return &GoogleOAuth{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Endpoint:     google.Endpoint,
			Scopes:       []string{"openid", "email", "profile"},
		},
		states: cache.New[models.OAuthState](oauthStateTTL),
	}
}

// SetEndpoint overrides the provider endpoints (useful for testing)
func (g *GoogleOAuth) SetEndpoint(endpoint oauth2.Endpoint) {
	g.config.Endpoint = endpoint
}

// Close releases the state cache.
func (g *GoogleOAuth) Close() {
	g.states.Close()
}

// Start records a new state for mode and returns the consent URL and the
// nonce the caller must set in the browser's nonce cookie. sessionToken is
// the bearer token of the session starting an integrate flow.
func (g *GoogleOAuth) Start(mode, returnTo, sessionToken string) (string, string) {
	state := uuid.NewString()
	verifier := oauth2.GenerateVerifier()
	nonce := oauth2.GenerateVerifier()

	st := models.OAuthState{
		Mode:         mode,
		CodeVerifier: verifier,
		ReturnTo:     SafeReturnPath(returnTo),
		Nonce:        nonce,
		CreatedAt:    time.Now(),
	}
	if mode == models.OAuthModeIntegrate {
		st.Owner = tokenDigest(sessionToken)
	}
	g.states.Set(state, st)

	consentURL := g.config.AuthCodeURL(state,
		oauth2.AccessTypeOnline,
		oauth2.S256ChallengeOption(verifier),
		oauth2.SetAuthURLParam("prompt", "select_account"),
	)
	return consentURL, nonce
}

// Consume removes state and checks it against the callback's browser: nonce
// is the value of its nonce cookie and sessionToken its current session
// token. A state can be used once, even when the checks fail.
func (g *GoogleOAuth) Consume(state, nonce, sessionToken string) (models.OAuthState, error) {
	if state == "" {
		return models.OAuthState{}, ErrInvalidOAuthState
	}
	st, ok := g.states.Take(state)
	if !ok {
		return models.OAuthState{}, ErrInvalidOAuthState
	}
	if nonce == "" || subtle.ConstantTimeCompare([]byte(st.Nonce), []byte(nonce)) != 1 {
		return models.OAuthState{}, ErrInvalidOAuthState
	}
	if st.Mode == models.OAuthModeIntegrate {
		if sessionToken == "" || subtle.ConstantTimeCompare([]byte(st.Owner), []byte(tokenDigest(sessionToken))) != 1 {
			return st, ErrOAuthSessionMismatch
		}
	}
	return st, nil
}

// Exchange trades an authorization code for Google tokens.
func (g *GoogleOAuth) Exchange(ctx context.Context, code string, st models.OAuthState) (*GoogleTokens, error) {
	if code == "" {
		return nil, errors.New("authorization code missing")
	}
	tok, err := g.config.Exchange(ctx, code, oauth2.VerifierOption(st.CodeVerifier))
	if err != nil {
		return nil, fmt.Errorf("exchanging authorization code: %w", err)
	}

	out := &GoogleTokens{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
	}
	if idToken, ok := tok.Extra("id_token").(string); ok {
		out.IDToken = idToken
	}
	if !tok.Expiry.IsZero() {
		out.ExpiresIn = int64(time.Until(tok.Expiry).Seconds())
	}
	return out, nil
}

// GoogleTokens is the token set forwarded to the upstream /sync/google call.
type GoogleTokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	IDToken      string `json:"id_token,omitempty"`
	ExpiresIn    int64  `json:"expires_in,omitempty"`
	Integrate    bool   `json:"integrate,omitempty"`
}
