package github

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/custodia-labs/docs-agent/internal/core/domain"
)

var (
	// ErrNotRawContentURL indicates a URL that is not on raw.githubusercontent.com.
	ErrNotRawContentURL = errors.New("github: not a raw content URL")

	// ErrNotAFile indicates the requested path is a directory.
	ErrNotAFile = errors.New("github: path is a directory, not a file")
)

// RateLimitError reports an exhausted API quota. It matches
// domain.ErrRateLimited.
type RateLimitError struct {
	ResetAt   time.Time
	Remaining int
	Limit     int
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("github: rate limit of %d exhausted, resets at %s", e.Limit, e.ResetAt.Format(time.RFC3339))
}

// Is matches domain.ErrRateLimited.
func (e *RateLimitError) Is(target error) bool {
	return target == domain.ErrRateLimited
}

// APIError is a non-2xx API response. Not-found responses match
// domain.ErrNotFound and credential failures match domain.ErrAuthorization.
type APIError struct {
	StatusCode int
	Message    string
	URL        string
}

func (e *APIError) Error() string {
	if e.URL == "" {
		return fmt.Sprintf("github: status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("github: status %d: %s (%s)", e.StatusCode, e.Message, e.URL)
}

// Is maps the status code onto domain sentinels.
func (e *APIError) Is(target error) bool {
	switch target {
	case domain.ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case domain.ErrAuthorization:
		return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
	}
	return false
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// IsRateLimited reports whether err is a quota failure.
func IsRateLimited(err error) bool {
	var rateLimitErr *RateLimitError
	return errors.As(err, &rateLimitErr)
}

// IsUnauthorized reports whether the token was rejected.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized
}
