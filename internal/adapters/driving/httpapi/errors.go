// Package httpapi exposes the docs-agent services over a JSON HTTP API.
//
// Routes mirror the web frontend: document ingestion, chat queries, project
// listing and API key storage. Requests carrying an Authorization header must
// present a "Bearer sk-..." credential; it is rejected before any service runs
// and otherwise scopes the request to that provider key.
package httpapi

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/custodia-labs/docs-agent/internal/core/domain"
)

// Port validation errors.
var (
	ErrInvalidPorts          = errors.New("httpapi: invalid ports configuration")
	ErrMissingAnswerService  = errors.New("httpapi: answer service is required")
	ErrMissingIngestService  = errors.New("httpapi: ingest service is required")
	ErrMissingProjectService = errors.New("httpapi: project service is required")
)

// statusFor maps domain sentinels to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidRepoURL), errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrAuthorization):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, domain.ErrFetch):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

var errInvalidAuthHeader = fmt.Errorf(
	"%w: invalid authorization header format, must start with 'Bearer '", domain.ErrAuthorization,
)
