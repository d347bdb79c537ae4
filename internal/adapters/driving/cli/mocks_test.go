package cli

import (
	"context"
	"errors"

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
	return domain.QueryResult{
		Status: domain.QueryStatusSuccess,
		Answer: "Widgets renders widgets.",
		Sources: []domain.Source{
			{Title: "Widgets", URL: "https://github.com/acme/widgets/blob/main/README.md", Content: "Widgets renders widgets."},
		},
		Metadata: domain.QueryMetadata{Model: "gpt-4"},
	}
}

func (m *MockAnswerService) Search(_ context.Context, _ string, _ int) ([]domain.ScoredRecord, error) {
	return nil, nil
}

// MockIngestService implements driving.IngestService for testing.
type MockIngestService struct {
	IngestFunc func(ctx context.Context, repoURL string, opts domain.IngestOptions) (*domain.IngestReport, error)

	lastOpts domain.IngestOptions
}

func (m *MockIngestService) Ingest(
	ctx context.Context, repoURL string, opts domain.IngestOptions,
) (*domain.IngestReport, error) {
	m.lastOpts = opts
	if m.IngestFunc != nil {
		return m.IngestFunc(ctx, repoURL, opts)
	}
	return &domain.IngestReport{SourceURL: repoURL, Sections: 3, Stored: 3}, nil
}

func (m *MockIngestService) Process(ctx context.Context, repoURL string) bool {
	_, err := m.Ingest(ctx, repoURL, domain.IngestOptions{})
	return err == nil
}

func (m *MockIngestService) IngestBatch(
	ctx context.Context, repoURLs []string, opts domain.IngestOptions,
) []domain.IngestResult {
	results := make([]domain.IngestResult, 0, len(repoURLs))
	for _, u := range repoURLs {
		if _, err := m.Ingest(ctx, u, opts); err != nil {
			results = append(results, domain.IngestResult{URL: u, Message: err.Error()})
			continue
		}
		results = append(results, domain.IngestResult{URL: u, Success: true, Message: "Successfully processed " + u})
	}
	return results
}

// MockProjectService implements driving.ProjectService for testing.
type MockProjectService struct {
	Projects   []domain.Project
	Discovered []domain.Project
	AddErr     error
}

func (m *MockProjectService) List(_ context.Context) ([]domain.Project, error) {
	return m.Projects, nil
}

func (m *MockProjectService) Add(_ context.Context, name, readmeURL, description string) (*domain.Project, error) {
	if m.AddErr != nil {
		return nil, m.AddErr
	}
	if name == "" {
		name = "widgets"
	}
	return &domain.Project{Name: name, ReadmeURL: readmeURL, Description: description}, nil
}

func (m *MockProjectService) Discover(_ context.Context) ([]domain.Project, error) {
	return m.Discovered, nil
}

// MockSettingsService implements driving.SettingsService for testing.
type MockSettingsService struct {
	Settings domain.AppSettings

	StoredKeys map[domain.AIProvider]string
	LLM        domain.AIProvider
	LLMModel   string
	Backend    domain.VectorBackend
}

func NewMockSettingsService() *MockSettingsService {
	return &MockSettingsService{
		Settings:   domain.DefaultAppSettings(),
		StoredKeys: map[domain.AIProvider]string{},
	}
}

func (m *MockSettingsService) Get() (*domain.AppSettings, error) {
	s := m.Settings
	return &s, nil
}

func (m *MockSettingsService) SetAPIKey(key string) error {
	return m.SetProviderKey(domain.AIProviderOpenAI, key)
}

func (m *MockSettingsService) SetProviderKey(provider domain.AIProvider, key string) error {
	if err := domain.ValidateAPIKey(key); err != nil {
		return err
	}
	m.StoredKeys[provider] = key
	return nil
}

func (m *MockSettingsService) SetLLMProvider(provider domain.AIProvider, model string) error {
	if !provider.IsValid() {
		return errors.New("invalid LLM provider")
	}
	m.LLM = provider
	m.LLMModel = model
	return nil
}

func (m *MockSettingsService) SetVectorBackend(backend domain.VectorBackend, _, _ string) error {
	if !backend.IsValid() {
		return errors.New("invalid vector backend")
	}
	m.Backend = backend
	return nil
}

func (m *MockSettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// testServices is the set installed by setupTestServices.
type testServices struct {
	answer   *MockAnswerService
	ingest   *MockIngestService
	projects *MockProjectService
	settings *MockSettingsService
}

// setupTestServices installs mocks and returns a cleanup that restores the
// previous services and resets command flags.
func setupTestServices() (*testServices, func()) {
	oldAnswer, oldIngest, oldProject, oldSettings := answerService, ingestService, projectService, settingsService
	oldWatch := watchPrompts

	ts := &testServices{
		answer:   &MockAnswerService{},
		ingest:   &MockIngestService{},
		projects: &MockProjectService{},
		settings: NewMockSettingsService(),
	}
	SetServices(Services{
		Answer:   ts.answer,
		Ingest:   ts.ingest,
		Project:  ts.projects,
		Settings: ts.settings,
	})

	return ts, func() {
		answerService, ingestService, projectService, settingsService = oldAnswer, oldIngest, oldProject, oldSettings
		watchPrompts = oldWatch
		rootCmd.SetArgs(nil)
		askJSON = false
		ingestReplace = false
		projectName = ""
		projectDescription = ""
		settingsProvider = string(domain.AIProviderOpenAI)
		settingsURL = ""
		settingsCollection = ""
		servePort = 0
	}
}
