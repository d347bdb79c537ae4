package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docs-agent/internal/core/domain"
)

type fixture struct {
	answer   *mockAnswerService
	ingest   *mockIngestService
	projects *mockProjectService
	settings *mockSettingsService
	server   *httptest.Server
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		answer: &mockAnswerService{result: domain.QueryResult{
			Status:   domain.QueryStatusSuccess,
			Answer:   "Widgets is a tool.",
			Sources:  []domain.Source{{Title: "Widgets", URL: "https://github.com/acme/widgets", Content: "Widgets is a tool."}},
			Metadata: domain.QueryMetadata{Model: "gpt-4", RunID: "run-1"},
		}},
		ingest:   &mockIngestService{},
		projects: &mockProjectService{},
		settings: &mockSettingsService{},
	}
	srv, err := NewServer(&Ports{
		Answer:   f.answer,
		Ingest:   f.ingest,
		Project:  f.projects,
		Settings: f.settings,
	}, Config{})
	require.NoError(t, err)

	f.server = httptest.NewServer(srv.Handler())
	t.Cleanup(f.server.Close)
	return f
}

func (f *fixture) do(t *testing.T, method, path, auth string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, f.server.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestNewServer_InvalidPorts(t *testing.T) {
	tests := []struct {
		name  string
		ports *Ports
		want  error
	}{
		{"nil", nil, ErrInvalidPorts},
		{"no answer", &Ports{Ingest: &mockIngestService{}, Project: &mockProjectService{}}, ErrMissingAnswerService},
		{"no ingest", &Ports{Answer: &mockAnswerService{}, Project: &mockProjectService{}}, ErrMissingIngestService},
		{"no project", &Ports{Answer: &mockAnswerService{}, Ingest: &mockIngestService{}}, ErrMissingProjectService},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, err := NewServer(tt.ports, Config{})
			assert.ErrorIs(t, err, tt.want)
			assert.Nil(t, srv)
		})
	}
}

func TestNewServer_Defaults(t *testing.T) {
	srv, err := NewServer(&Ports{
		Answer: &mockAnswerService{}, Ingest: &mockIngestService{}, Project: &mockProjectService{},
	}, Config{})

	require.NoError(t, err)
	assert.Equal(t, ":8000", srv.Addr())
	assert.Equal(t, []string{domain.DefaultAllowedOrigin}, srv.config.AllowedOrigins)
}

func TestConfigFromSettings(t *testing.T) {
	cfg := ConfigFromSettings(domain.ServerSettings{Port: 9000, AllowedOrigins: []string{"https://docs.example"}})

	assert.Equal(t, Config{Port: 9000, AllowedOrigins: []string{"https://docs.example"}}, cfg)
}

func TestRootAndHealth(t *testing.T) {
	f := newFixture(t)

	resp := f.do(t, http.MethodGet, "/", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, map[string]string{"message": "Welcome to Docs Agent API"}, decode[map[string]string](t, resp))

	resp = f.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, map[string]string{"status": "healthy"}, decode[map[string]string](t, resp))

	resp = f.do(t, http.MethodGet, "/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestMalformedCredentialRejectedBeforeCore(t *testing.T) {
	routes := []struct {
		method string
		path   string
		body   any
	}{
		{http.MethodPost, "/api/documents/process-github", repoRequest{RepoURL: "https://github.com/acme/widgets"}},
		{http.MethodPost, "/api/documents/process-multiple", []repoRequest{{RepoURL: "https://github.com/acme/widgets"}}},
		{http.MethodPost, "/api/chat/query", queryRequest{Query: "What is widgets?"}},
		{http.MethodGet, "/api/projects", nil},
		{http.MethodGet, "/api/v1/projects", nil},
		{http.MethodPost, "/api/v1/projects", projectRequest{ReadmeURL: "https://github.com/acme/widgets"}},
	}
	headers := map[string]string{
		"wrong scheme": "Token sk-abc",
		"wrong prefix": "Bearer pk-abc",
		"empty bearer": "Bearer ",
	}

	for _, rt := range routes {
		for name, header := range headers {
			t.Run(fmt.Sprintf("%s %s %s", rt.method, rt.path, name), func(t *testing.T) {
				f := newFixture(t)

				resp := f.do(t, rt.method, rt.path, header, rt.body)

				assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
				assert.NotEmpty(t, decode[errorResponse](t, resp).Detail)
				assert.Zero(t, f.answer.count())
				assert.Zero(t, f.ingest.count())
				assert.Zero(t, f.projects.count())
			})
		}
	}
}

func TestBearerKeyScopesRequest(t *testing.T) {
	f := newFixture(t)

	resp := f.do(t, http.MethodPost, "/api/chat/query", "Bearer sk-request", queryRequest{Query: "q"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = f.do(t, http.MethodPost, "/api/chat/query", "", queryRequest{Query: "q"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, []string{"sk-request", ""}, f.answer.keys)
}

func TestChatQuery(t *testing.T) {
	f := newFixture(t)

	resp := f.do(t, http.MethodPost, "/api/chat/query", "Bearer sk-test", queryRequest{Query: "What is widgets?"})

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	got := decode[queryResponse](t, resp)
	assert.Equal(t, domain.QueryStatusSuccess, got.Status)
	assert.Equal(t, "Widgets is a tool.", got.Data.Answer)
	require.Len(t, got.Data.Sources, 1)
	assert.Equal(t, "https://github.com/acme/widgets", got.Data.Sources[0].URL)
	assert.Equal(t, "run-1", got.Data.Metadata.RunID)
	assert.Empty(t, got.Data.Error)
}

func TestChatQuery_FailSoftIs200(t *testing.T) {
	f := newFixture(t)
	f.answer.result = domain.NewErrorResult(domain.QueryStageEmbedding, errors.New("embedding failed: 429"))

	resp := f.do(t, http.MethodPost, "/api/chat/query", "", queryRequest{Query: "q"})

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	got := decode[queryResponse](t, resp)
	assert.Equal(t, domain.QueryStatusError, got.Status)
	assert.Equal(t, domain.ApologyAnswer, got.Data.Answer)
	assert.NotNil(t, got.Data.Sources)
	assert.Empty(t, got.Data.Sources)
	assert.Contains(t, got.Data.Error, "429")
}

func TestChatQuery_BadBody(t *testing.T) {
	f := newFixture(t)

	req, err := http.NewRequest(http.MethodPost, f.server.URL+"/api/chat/query", bytes.NewBufferString("{not json"))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Zero(t, f.answer.count())
}

func TestProcessGitHub(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantBody   string
	}{
		{"success", nil, http.StatusOK, "Repository processed successfully"},
		{"invalid url", domain.ErrInvalidRepoURL, http.StatusBadRequest, "Failed to process repository"},
		{"fetch failure", fmt.Errorf("%w: status 404", domain.ErrFetch), http.StatusBadRequest, "status 404"},
		{"embedding failure", domain.ErrEmbedding, http.StatusBadRequest, "embedding failed"},
		{"not configured", domain.ErrAuthorization, http.StatusUnauthorized, "authorization failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.ingest.ingestErr = tt.err

			resp := f.do(t, http.MethodPost, "/api/documents/process-github", "",
				repoRequest{RepoURL: "https://github.com/acme/widgets", ReplaceExisting: true})

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			var body bytes.Buffer
			_, _ = body.ReadFrom(resp.Body)
			assert.Contains(t, body.String(), tt.wantBody)
			assert.Equal(t, []bool{true}, f.ingest.replace)
		})
	}
}

func TestProcessMultiple(t *testing.T) {
	f := newFixture(t)

	resp := f.do(t, http.MethodPost, "/api/documents/process-multiple", "", []repoRequest{
		{RepoURL: "https://github.com/acme/widgets"},
		{RepoURL: "bad"},
		{RepoURL: "https://github.com/acme/gadgets", ReplaceExisting: true},
	})

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	got := decode[[]processResponse](t, resp)
	require.Len(t, got, 3)
	assert.True(t, got[0].Success)
	assert.False(t, got[1].Success)
	assert.Equal(t, "invalid repository URL", got[1].Message)
	assert.True(t, got[2].Success)
	assert.Contains(t, got[2].Message, "gadgets")
	assert.Equal(t, []bool{false, false, true}, f.ingest.replace)
}

func TestProjects(t *testing.T) {
	f := newFixture(t)
	f.projects.projects = []domain.Project{{Name: "widgets", ReadmeURL: "https://github.com/acme/widgets/blob/main/README.md"}}
	f.projects.discovered = nil

	resp := f.do(t, http.MethodGet, "/api/v1/projects", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]domain.Project](t, resp), 1)

	resp = f.do(t, http.MethodGet, "/api/projects", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	got := decode[[]domain.Project](t, resp)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestAddProject(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		f := newFixture(t)

		resp := f.do(t, http.MethodPost, "/api/v1/projects", "Bearer sk-test",
			projectRequest{Name: "widgets", ReadmeURL: "https://github.com/acme/widgets"})

		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		assert.Equal(t, "widgets", decode[domain.Project](t, resp).Name)
	})

	t.Run("invalid url", func(t *testing.T) {
		f := newFixture(t)
		f.projects.addErr = fmt.Errorf("%w: please enter a valid GitHub URL", domain.ErrInvalidRepoURL)

		resp := f.do(t, http.MethodPost, "/api/v1/projects", "", projectRequest{ReadmeURL: "nope"})

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Contains(t, decode[errorResponse](t, resp).Detail, "valid GitHub URL")
	})
}

func TestStoreAPIKey(t *testing.T) {
	tests := []struct {
		name       string
		key        string
		setErr     error
		wantStatus int
	}{
		{"valid", "sk-new", nil, http.StatusOK},
		{"wrong prefix", "pk-new", nil, http.StatusBadRequest},
		{"empty", "", nil, http.StatusBadRequest},
		{"persist failure", "sk-new", errors.New("read-only"), http.StatusInternalServerError},
		{"rejected by provider", "sk-new", fmt.Errorf("%w: status 401", domain.ErrAuthorization), http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.settings.setErr = tt.setErr

			resp := f.do(t, http.MethodPost, "/api/settings/api-key", "", apiKeyRequest{APIKey: tt.key})

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, "sk-new", f.settings.key)
			}
		})
	}
}

func TestCORS(t *testing.T) {
	f := newFixture(t)

	req, err := http.NewRequest(http.MethodOptions, f.server.URL+"/api/chat/query", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", domain.DefaultAllowedOrigin)
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, domain.DefaultAllowedOrigin, resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Zero(t, f.answer.count())
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{domain.ErrInvalidRepoURL, http.StatusBadRequest},
		{domain.ErrInvalidInput, http.StatusBadRequest},
		{domain.ErrAuthorization, http.StatusUnauthorized},
		{domain.ErrAlreadyExists, http.StatusConflict},
		{domain.ErrRateLimited, http.StatusTooManyRequests},
		{fmt.Errorf("wrapped: %w", domain.ErrFetch), http.StatusBadGateway},
		{domain.ErrVectorStore, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.err))
		})
	}
}

func TestServer_RunStopsOnCancel(t *testing.T) {
	srv, err := NewServer(&Ports{
		Answer: &mockAnswerService{}, Ingest: &mockIngestService{}, Project: &mockProjectService{},
	}, Config{Port: 18765})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
