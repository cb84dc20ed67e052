// ABOUTME: Input validation functions for proxied request bodies and path segments
// ABOUTME: Prevents upstream path injection via slug/ID validation and checks required fields

package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// idPattern matches numeric upstream record IDs
var idPattern = regexp.MustCompile(`^[0-9]+$`)

// sanitizeForLog removes control characters from strings to prevent log injection
// when including user input in error messages
func sanitizeForLog(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 32 || r == 127 {
			return -1 // Remove control characters
		}
		return r
	}, s)
}

// ValidateSlug checks that a slug is safe to splice into an upstream path.
// Slugs are opaque to this service; only separators, dot segments and control
// characters are rejected.
func ValidateSlug(slug string) error {
	if slug == "" {
		return fmt.Errorf("%w: empty", ErrInvalidSlug)
	}
	if len(slug) > 255 {
		return fmt.Errorf("%w: too long", ErrInvalidSlug)
	}
	if slug == "." || slug == ".." || strings.ContainsAny(slug, "/\\?#%") || sanitizeForLog(slug) != slug {
		return fmt.Errorf("%w: %s", ErrInvalidSlug, sanitizeForLog(slug))
	}
	return nil
}

// ValidateUserID checks that an admin user ID is numeric.
func ValidateUserID(id string) error {
	if !idPattern.MatchString(id) {
		return fmt.Errorf("%w: %s", ErrInvalidSlug, sanitizeForLog(id))
	}
	return nil
}

// RequireName trims name and fails when nothing is left.
func RequireName(field, name, message string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", NewValidationError(field, message)
	}
	return trimmed, nil
}

// RequireIDList checks that raw is a JSON array with at least one element.
func RequireIDList(field string, raw json.RawMessage, message string) error {
	var ids []json.RawMessage
	if len(bytes.TrimSpace(raw)) == 0 || json.Unmarshal(raw, &ids) != nil || len(ids) == 0 {
		return NewValidationError(field, message)
	}
	return nil
}

// RequirePresent checks that raw carries a value. Zero, "0" and false count as
// present; only a missing field, null or an empty string do not.
func RequirePresent(field string, raw json.RawMessage, message string) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) || bytes.Equal(trimmed, []byte(`""`)) {
		return NewValidationError(field, message)
	}
	return nil
}
