package tui

import (
	"context"

	"github.com/custodia-labs/docs-agent/internal/core/domain"
)

// MockAnswerService implements driving.AnswerService for testing.
type MockAnswerService struct {
	AnswerFunc func(ctx context.Context, question string) domain.QueryResult
}

func (m *MockAnswerService) Answer(ctx context.Context, question string) domain.QueryResult {
	if m.AnswerFunc != nil {
		return m.AnswerFunc(ctx, question)
	}
	return domain.QueryResult{Status: domain.QueryStatusSuccess, Answer: "ok", Sources: []domain.Source{}}
}

func (m *MockAnswerService) Search(context.Context, string, int) ([]domain.ScoredRecord, error) {
	return nil, nil
}

// MockIngestService implements driving.IngestService for testing.
type MockIngestService struct{}

func (m *MockIngestService) Ingest(context.Context, string, domain.IngestOptions) (*domain.IngestReport, error) {
	return &domain.IngestReport{}, nil
}

func (m *MockIngestService) Process(context.Context, string) bool {
	return true
}

func (m *MockIngestService) IngestBatch(context.Context, []string, domain.IngestOptions) []domain.IngestResult {
	return nil
}

// MockProjectService implements driving.ProjectService for testing.
type MockProjectService struct{}

func (m *MockProjectService) List(context.Context) ([]domain.Project, error) {
	return []domain.Project{{Name: "widgets", ReadmeURL: "https://github.com/acme/widgets"}}, nil
}

func (m *MockProjectService) Add(context.Context, string, string, string) (*domain.Project, error) {
	return &domain.Project{}, nil
}

func (m *MockProjectService) Discover(context.Context) ([]domain.Project, error) {
	return nil, nil
}
