package mcp

import (
	"context"

	"github.com/custodia-labs/docs-agent/internal/core/domain"
)

// mockAnswerService implements driving.AnswerService for testing.
type mockAnswerService struct {
	result    domain.QueryResult
	hits      []domain.ScoredRecord
	err       error
	lastLimit int
	question  string
}

func (m *mockAnswerService) Answer(_ context.Context, question string) domain.QueryResult {
	m.question = question
	return m.result
}

func (m *mockAnswerService) Search(_ context.Context, _ string, limit int) ([]domain.ScoredRecord, error) {
	m.lastLimit = limit
	if m.err != nil {
		return nil, m.err
	}
	return m.hits, nil
}

// mockIngestService implements driving.IngestService for testing.
type mockIngestService struct {
	opts domain.IngestOptions
}

func (m *mockIngestService) Ingest(_ context.Context, repoURL string, _ domain.IngestOptions) (*domain.IngestReport, error) {
	return &domain.IngestReport{SourceURL: repoURL}, nil
}

func (m *mockIngestService) Process(_ context.Context, _ string) bool {
	return true
}

func (m *mockIngestService) IngestBatch(_ context.Context, repoURLs []string, opts domain.IngestOptions) []domain.IngestResult {
	m.opts = opts
	results := make([]domain.IngestResult, len(repoURLs))
	for i, u := range repoURLs {
		results[i] = domain.IngestResult{URL: u, Success: true, Message: "Successfully processed " + u}
	}
	return results
}

// mockProjectService implements driving.ProjectService for testing.
type mockProjectService struct {
	projects   []domain.Project
	discovered []domain.Project
	err        error
}

func (m *mockProjectService) List(_ context.Context) ([]domain.Project, error) {
	return m.projects, m.err
}

func (m *mockProjectService) Add(_ context.Context, name, readmeURL, description string) (*domain.Project, error) {
	return &domain.Project{Name: name, ReadmeURL: readmeURL, Description: description}, m.err
}

func (m *mockProjectService) Discover(_ context.Context) ([]domain.Project, error) {
	return m.discovered, m.err
}
