package domain

import "errors"

// Domain errors represent business logic failures.
// Adapters wrap these with detail using fmt.Errorf("...: %w", err).
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// Ingestion Errors.

	// ErrInvalidRepoURL indicates a repository URL that cannot be mapped
	// to raw README content.
	ErrInvalidRepoURL = errors.New("invalid repository URL")

	// ErrFetch indicates the README could not be retrieved: a transport
	// failure, a timeout, or a non-2xx response.
	ErrFetch = errors.New("fetch failed")

	// Provider Errors.

	// ErrEmbedding indicates the embedding provider failed.
	ErrEmbedding = errors.New("embedding failed")

	// ErrVectorStore indicates the vector store rejected or failed an operation.
	ErrVectorStore = errors.New("vector store failed")

	// ErrGeneration indicates the language model failed to produce an answer.
	ErrGeneration = errors.New("generation failed")

	// ErrGenerationTimeout indicates generation exceeded its deadline.
	// It matches ErrGeneration under errors.Is.
	ErrGenerationTimeout error = &timeoutError{msg: "generation timed out", kind: ErrGeneration}

	// Boundary Errors.

	// ErrAuthorization indicates a missing or malformed credential.
	// It is raised before any core operation runs.
	ErrAuthorization = errors.New("authorization failed")

	// ErrRateLimited indicates the API rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")
)

// timeoutError is a sentinel that also matches a broader error kind.
type timeoutError struct {
	msg  string
	kind error
}

func (e *timeoutError) Error() string { return e.msg }

// Is reports whether target is this sentinel or its broader kind.
func (e *timeoutError) Is(target error) bool {
	return target == e || target == e.kind
}
