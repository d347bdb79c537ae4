package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docs-agent/internal/core/domain"
)

func TestHTTPFetcher_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/acme/widgets/main/README.md", r.URL.Path)
		assert.Equal(t, "docs-agent", r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte("# Widgets\nA tool."))
	}))
	defer srv.Close()

	body, err := NewHTTPFetcher(Config{}).Fetch(context.Background(), srv.URL+"/acme/widgets/main/README.md")

	require.NoError(t, err)
	assert.Equal(t, "# Widgets\nA tool.", string(body))
}

func TestHTTPFetcher_Errors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		cfg     Config
	}{
		{
			name:    "not found",
			handler: func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNotFound) },
		},
		{
			name:    "server error",
			handler: func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusBadGateway) },
		},
		{
			name:    "timeout",
			handler: func(_ http.ResponseWriter, r *http.Request) { <-r.Context().Done() },
			cfg:     Config{Timeout: 50 * time.Millisecond},
		},
		{
			name:    "too large",
			handler: func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte(strings.Repeat("x", 64))) },
			cfg:     Config{MaxBytes: 16},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			_, err := NewHTTPFetcher(tt.cfg).Fetch(context.Background(), srv.URL+"/README.md")

			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrFetch))
		})
	}
}

func TestHTTPFetcher_SingleAttempt(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewHTTPFetcher(Config{}).Fetch(context.Background(), srv.URL)

	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestHTTPFetcher_NetworkFailure(t *testing.T) {
	_, err := NewHTTPFetcher(Config{Timeout: time.Second}).Fetch(context.Background(), "http://127.0.0.1:1/README.md")

	assert.True(t, errors.Is(err, domain.ErrFetch))
}
