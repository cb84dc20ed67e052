// ABOUTME: Fetches the signed-in user's profile from the upstream API
// ABOUTME: Coalesces concurrent fetches for the same token and decodes loose profile shapes

package services

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"golang.org/x/sync/singleflight"

	"github.com/oganilir/drive-bff/models"
)

// ProfileFetcher loads UserSummary values for session creation.
type ProfileFetcher struct {
	upstream *UpstreamClient
	group    singleflight.Group
}

func NewProfileFetcher(upstream *UpstreamClient) *ProfileFetcher {
	return &ProfileFetcher{upstream: upstream}
}

// ProfileResult carries the upstream outcome alongside the decoded user,
// so callers can tell an auth failure from a malformed profile.
type ProfileResult struct {
	Result *Result
	User   *models.UserSummary
}

// Fetch calls /getProfile with token. Concurrent calls with the same token
// share one upstream round-trip.
func (f *ProfileFetcher) Fetch(ctx context.Context, token string) (*ProfileResult, error) {
	v, err, _ := f.group.Do(tokenDigest(token), func() (interface{}, error) {
		result, err := f.upstream.Forward(ctx, Operation{
			Name:           "getProfile",
			Method:         http.MethodGet,
			Path:           "/getProfile",
			DefaultMessage: "Gagal memuat profil",
		}, token)
		if err != nil {
			return nil, err
		}

		out := &ProfileResult{Result: result}
		if !result.Success {
			return out, nil
		}

		user, err := DecodeUserSummary(result.Data)
		if err != nil {
			return nil, fmt.Errorf("getProfile: %v: %w", err, ErrInvalidUpstreamResponse)
		}
		out.User = user
		return out, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*ProfileResult), nil
}

// rawProfile accepts the field spellings the upstream API has used.
type rawProfile struct {
	ID        json.RawMessage `json:"id"`
	Fullname  string          `json:"fullname"`
	Name      string          `json:"name"`
	Firstname string          `json:"firstname"`
	Lastname  string          `json:"lastname"`
	Email     string          `json:"email"`
	Photo     string          `json:"photo"`
	Access    json.RawMessage `json:"access"`
	User      json.RawMessage `json:"user"`
}

// DecodeUserSummary builds a UserSummary from profile data, unwrapping a
// nested "user" object if present.
func DecodeUserSummary(data json.RawMessage) (*models.UserSummary, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		return nil, fmt.Errorf("profile data is not an object")
	}

	var raw rawProfile
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decoding profile: %w", err)
	}
	if len(raw.User) > 0 && raw.User[0] == '{' && len(raw.ID) == 0 {
		return DecodeUserSummary(raw.User)
	}

	id, err := looseInt(raw.ID)
	if err != nil {
		return nil, fmt.Errorf("profile id: %w", err)
	}

	user := &models.UserSummary{
		ID:        id,
		Fullname:  raw.Fullname,
		Firstname: raw.Firstname,
		Lastname:  raw.Lastname,
		Email:     raw.Email,
		Photo:     raw.Photo,
		Access:    looseBool(raw.Access),
	}
	if user.Fullname == "" {
		user.Fullname = raw.Name
	}
	if user.Fullname == "" {
		user.Fullname = strings.TrimSpace(raw.Firstname + " " + raw.Lastname)
	}
	return user, nil
}

func looseInt(raw json.RawMessage) (int64, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, fmt.Errorf("missing")
	}
	var n int64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, fmt.Errorf("unexpected value %s", raw)
	}
	return strconv.ParseInt(s, 10, 64)
}

// looseBool reads true, 1 and "1"/"true" as true; anything else is false.
func looseBool(raw json.RawMessage) bool {
	var b bool
	if json.Unmarshal(raw, &b) == nil {
		return b
	}
	var n float64
	if json.Unmarshal(raw, &n) == nil {
		return n != 0
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		v, err := strconv.ParseBool(s)
		return err == nil && v
	}
	return false
}

// tokenDigest identifies a bearer token without keeping it.
func tokenDigest(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
