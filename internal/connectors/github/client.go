package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	gh "github.com/google/go-github/v80/github"
	"golang.org/x/oauth2"

	"github.com/custodia-labs/docs-agent/internal/core/domain"
	"github.com/custodia-labs/docs-agent/internal/core/ports/driven"
)

// DefaultTimeout is the default HTTP request timeout.
const DefaultTimeout = 30 * time.Second

// Client wraps the go-github client with rate limiting.
type Client struct {
	gh          *gh.Client
	rateLimiter *RateLimiter
}

// NewClientWithToken creates a GitHub client with a static access token.
// Works for both PAT and OAuth access tokens.
func NewClientWithToken(ctx context.Context, token string, timeout time.Duration) *Client {
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: token},
	)
	tc := oauth2.NewClient(ctx, ts)
	tc.Timeout = timeout

	return NewClientWithHTTPClient(tc)
}

// NewClientWithHTTPClient creates a GitHub client with a custom http.Client.
func NewClientWithHTTPClient(httpClient *http.Client) *Client {
	return &Client{
		gh:          gh.NewClient(httpClient),
		rateLimiter: NewRateLimiter(),
	}
}

// GitHub returns the underlying go-github client.
func (c *Client) GitHub() *gh.Client {
	return c.gh
}

// RateLimiter returns the rate limiter for external access.
func (c *Client) RateLimiter() *RateLimiter {
	return c.rateLimiter
}

// GetFileContent fetches and decodes the content of a file at ref.
func (c *Client) GetFileContent(ctx context.Context, owner, repo, path, ref string) (string, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait: %w", err)
	}

	opts := &gh.RepositoryContentGetOptions{Ref: ref}
	content, _, resp, err := c.gh.Repositories.GetContents(ctx, owner, repo, path, opts)
	c.updateRateLimitFromResponse(resp)
	if err != nil {
		return "", c.wrapError(err, "get contents")
	}

	if content == nil {
		return "", ErrNotAFile
	}

	decoded, err := content.GetContent()
	if err != nil {
		return "", fmt.Errorf("decode content: %w", err)
	}
	return decoded, nil
}

func (c *Client) updateRateLimitFromResponse(resp *gh.Response) {
	if resp == nil || resp.Response == nil {
		return
	}
	c.rateLimiter.UpdateFromResponse(resp.Response)
}

// wrapError converts go-github errors to our error types.
func (c *Client) wrapError(err error, operation string) error {
	var rateLimitErr *gh.RateLimitError
	if errors.As(err, &rateLimitErr) {
		return &RateLimitError{
			ResetAt:   rateLimitErr.Rate.Reset.Time,
			Remaining: rateLimitErr.Rate.Remaining,
			Limit:     rateLimitErr.Rate.Limit,
		}
	}

	var ghErr *gh.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		apiErr := &APIError{
			StatusCode: ghErr.Response.StatusCode,
			Message:    ghErr.Message,
		}
		if ghErr.Response.Request != nil {
			apiErr.URL = ghErr.Response.Request.URL.String()
		}
		return apiErr
	}

	return fmt.Errorf("%s: %w", operation, err)
}

// Ensure ReadmeFetcher implements the interface.
var _ driven.Fetcher = (*ReadmeFetcher)(nil)

// ReadmeFetcher fetches raw content URLs through the contents API.
type ReadmeFetcher struct {
	client *Client
}

// NewReadmeFetcher creates a fetcher backed by client.
func NewReadmeFetcher(client *Client) *ReadmeFetcher {
	return &ReadmeFetcher{client: client}
}

// Fetch reads the file a raw.githubusercontent.com URL points at.
func (f *ReadmeFetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	owner, repo, ref, path, err := splitRawURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrFetch, err)
	}

	content, err := f.client.GetFileContent(ctx, owner, repo, path, ref)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrFetch, rawURL, err)
	}
	return []byte(content), nil
}

// splitRawURL parses https://raw.githubusercontent.com/<owner>/<repo>/<ref>/<path>.
func splitRawURL(rawURL string) (owner, repo, ref, path string, err error) {
	rest, found := strings.CutPrefix(rawURL, RawContentBase)
	if !found {
		return "", "", "", "", fmt.Errorf("%w: %s", ErrNotRawContentURL, rawURL)
	}
	parts := strings.Split(rest, "/")
	if len(parts) < 4 {
		return "", "", "", "", fmt.Errorf("%w: %s", ErrNotRawContentURL, rawURL)
	}
	return parts[0], parts[1], parts[2], strings.Join(parts[3:], "/"), nil
}
