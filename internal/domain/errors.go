package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInputInvalid signals an empty or unusable query.
	ErrInputInvalid = errors.New("invalid input")
	// ErrNotFound signals that the geocoder (or an archive) has no match.
	ErrNotFound = errors.New("not found")
	// ErrAuthFailed signals a rejected or under-scoped provider credential.
	ErrAuthFailed = errors.New("upstream authentication failed")
	// ErrRateLimited signals an exhausted provider quota.
	ErrRateLimited = errors.New("upstream rate limited")
	// ErrUpstreamUnavailable signals a network error or timeout talking to a provider.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	// ErrUpstreamError signals any other non-success provider response.
	ErrUpstreamError = errors.New("upstream error")
	// ErrInvalidInput signals malformed coordinate data.
	ErrInvalidInput = errors.New("invalid coordinates")
)

// UpstreamError carries the raw provider response for a failed call.
// Kind is one of ErrAuthFailed, ErrRateLimited or ErrUpstreamError.
type UpstreamError struct {
	Provider string
	Status   int
	Body     string
	Kind     error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: %s: status %d: %s", e.Provider, e.Kind.Error(), e.Status, e.Body)
}

func (e *UpstreamError) Unwrap() error { return e.Kind }

// ErrorClass returns a short stable name of err's class for metrics labels and events.
func ErrorClass(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInputInvalid):
		return "input_invalid"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrAuthFailed):
		return "auth_failed"
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, ErrUpstreamUnavailable):
		return "upstream_unavailable"
	case errors.Is(err, ErrUpstreamError):
		return "upstream_error"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_coordinates"
	default:
		return "internal"
	}
}

// NewUpstreamError classifies an HTTP status into the error taxonomy.
func NewUpstreamError(provider string, status int, body string) error {
	kind := ErrUpstreamError
	switch status {
	case 401, 403:
		kind = ErrAuthFailed
	case 429:
		kind = ErrRateLimited
	}
	return &UpstreamError{Provider: provider, Status: status, Body: body, Kind: kind}
}
