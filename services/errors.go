// ABOUTME: Error taxonomy shared by the session, upstream and handler layers
// ABOUTME: Sentinel errors for upstream failures plus a typed validation error

package services

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidUpstreamResponse means upstream answered with a non-JSON or malformed body.
	ErrInvalidUpstreamResponse = errors.New("invalid upstream response")
	// ErrUpstreamTimeout means the forwarded call hit its deadline.
	ErrUpstreamTimeout = errors.New("upstream request timed out")
	// ErrUpstreamUnavailable means upstream could not be reached at all.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	// ErrInvalidSlug means a path segment failed validation.
	ErrInvalidSlug = errors.New("invalid slug")
)

// ValidationError reports a missing or malformed request field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidationError builds a ValidationError for field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}
