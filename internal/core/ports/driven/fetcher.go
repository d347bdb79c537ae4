package driven

import "context"

// Fetcher retrieves README markdown.
type Fetcher interface {
	// Fetch performs a single GET of rawURL and returns the body.
	// Transport failures, timeouts and non-2xx responses wrap domain.ErrFetch.
	Fetch(ctx context.Context, rawURL string) ([]byte, error)
}
