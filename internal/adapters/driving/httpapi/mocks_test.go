package httpapi

import (
	"context"
	"sync"

	"github.com/custodia-labs/docs-agent/internal/core/domain"
	"github.com/custodia-labs/docs-agent/internal/core/services"
)

// recorder counts core calls and the request key each one saw.
type recorder struct {
	mu    sync.Mutex
	calls int
	keys  []string
}

func (r *recorder) record(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	key, _ := services.APIKeyFromContext(ctx)
	r.keys = append(r.keys, key)
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

type mockAnswerService struct {
	recorder
	result domain.QueryResult
}

func (m *mockAnswerService) Answer(ctx context.Context, _ string) domain.QueryResult {
	m.record(ctx)
	return m.result
}

func (m *mockAnswerService) Search(ctx context.Context, _ string, _ int) ([]domain.ScoredRecord, error) {
	m.record(ctx)
	return nil, nil
}

type mockIngestService struct {
	recorder
	ingestErr error
	replace   []bool
}

func (m *mockIngestService) Ingest(
	ctx context.Context, repoURL string, opts domain.IngestOptions,
) (*domain.IngestReport, error) {
	m.record(ctx)
	m.replace = append(m.replace, opts.ReplaceExisting)
	if m.ingestErr != nil {
		return nil, m.ingestErr
	}
	return &domain.IngestReport{SourceURL: repoURL}, nil
}

func (m *mockIngestService) Process(ctx context.Context, repoURL string) bool {
	_, err := m.Ingest(ctx, repoURL, domain.IngestOptions{})
	return err == nil
}

func (m *mockIngestService) IngestBatch(
	ctx context.Context, repoURLs []string, opts domain.IngestOptions,
) []domain.IngestResult {
	m.record(ctx)
	out := make([]domain.IngestResult, 0, len(repoURLs))
	for _, u := range repoURLs {
		m.replace = append(m.replace, opts.ReplaceExisting)
		if u == "bad" {
			out = append(out, domain.IngestResult{URL: u, Message: "invalid repository URL"})
			continue
		}
		out = append(out, domain.IngestResult{URL: u, Success: true, Message: "Successfully processed " + u})
	}
	return out
}

type mockProjectService struct {
	recorder
	projects   []domain.Project
	discovered []domain.Project
	addErr     error
}

func (m *mockProjectService) List(ctx context.Context) ([]domain.Project, error) {
	m.record(ctx)
	return m.projects, nil
}

func (m *mockProjectService) Add(ctx context.Context, name, readmeURL, description string) (*domain.Project, error) {
	m.record(ctx)
	if m.addErr != nil {
		return nil, m.addErr
	}
	return &domain.Project{Name: name, ReadmeURL: readmeURL, Description: description}, nil
}

func (m *mockProjectService) Discover(ctx context.Context) ([]domain.Project, error) {
	m.record(ctx)
	return m.discovered, nil
}

type mockSettingsService struct {
	key    string
	setErr error
}

func (m *mockSettingsService) Get() (*domain.AppSettings, error) {
	s := domain.DefaultAppSettings()
	return &s, nil
}

func (m *mockSettingsService) SetAPIKey(key string) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.key = key
	return nil
}

func (m *mockSettingsService) SetProviderKey(domain.AIProvider, string) error { return nil }

func (m *mockSettingsService) SetLLMProvider(domain.AIProvider, string) error { return nil }

func (m *mockSettingsService) SetVectorBackend(domain.VectorBackend, string, string) error {
	return nil
}

func (m *mockSettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}
