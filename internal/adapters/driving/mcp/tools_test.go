package mcp

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docs-agent/internal/core/domain"
)

func newTestServer(t *testing.T, ports *Ports) *Server {
	t.Helper()
	server, err := NewServer(ports)
	require.NoError(t, err)
	return server
}

func TestServer_handleAsk(t *testing.T) {
	ctx := context.Background()

	t.Run("returns answer with sources", func(t *testing.T) {
		answer := &mockAnswerService{
			result: domain.QueryResult{
				Status: domain.QueryStatusSuccess,
				Answer: "Widgets is a tool.",
				Sources: []domain.Source{{
					Title:   "Widgets",
					URL:     "https://github.com/acme/widgets/blob/main/README.md",
					Content: "Widgets\nA tool.",
				}},
				Metadata: domain.QueryMetadata{Model: "gpt-4-turbo-preview"},
			},
		}
		server := newTestServer(t, &Ports{Answer: answer})

		_, output, err := server.handleAsk(ctx, nil, AskInput{Question: "What is this project about?"})

		require.NoError(t, err)
		assert.Equal(t, "What is this project about?", answer.question)
		assert.Equal(t, "success", output.Status)
		assert.Equal(t, "Widgets is a tool.", output.Answer)
		assert.Len(t, output.Sources, 1)
		assert.Equal(t, "gpt-4-turbo-preview", output.Model)
	})

	t.Run("query failure is not a tool error", func(t *testing.T) {
		answer := &mockAnswerService{
			result: domain.NewErrorResult(domain.QueryStageEmbedding, domain.ErrEmbedding),
		}
		server := newTestServer(t, &Ports{Answer: answer})

		_, output, err := server.handleAsk(ctx, nil, AskInput{Question: "anything"})

		require.NoError(t, err)
		assert.Equal(t, "error", output.Status)
		assert.Equal(t, domain.ApologyAnswer, output.Answer)
		assert.Empty(t, output.Sources)
		assert.Equal(t, domain.ErrEmbedding.Error(), output.Error)
	})
}

func TestServer_handleSearch(t *testing.T) {
	ctx := context.Background()

	t.Run("returns search results", func(t *testing.T) {
		answer := &mockAnswerService{
			hits: []domain.ScoredRecord{{
				ID:      "rec-1",
				Content: "Install\npip install widgets",
				Metadata: domain.RecordMetadata{
					SourceURL: "https://github.com/acme/widgets/blob/main/README.md",
					Title:     "Install",
					DocType:   domain.DocTypeMarkdown,
				},
				Score: 0.95,
			}},
		}
		server := newTestServer(t, &Ports{Answer: answer})

		_, output, err := server.handleSearch(ctx, nil, SearchInput{Query: "install", Limit: 3})

		require.NoError(t, err)
		assert.Equal(t, 3, answer.lastLimit)
		assert.Equal(t, 1, output.Count)
		assert.Equal(t, "rec-1", output.Results[0].ID)
		assert.Equal(t, "Install", output.Results[0].Title)
		assert.Equal(t, "https://github.com/acme/widgets/blob/main/README.md", output.Results[0].URL)
		assert.Equal(t, 0.95, output.Results[0].Score)
		assert.Equal(t, "Install\npip install widgets", output.Results[0].Content)
	})

	t.Run("default limit is 5", func(t *testing.T) {
		answer := &mockAnswerService{}
		server := newTestServer(t, &Ports{Answer: answer})

		_, output, err := server.handleSearch(ctx, nil, SearchInput{Query: "test"})

		require.NoError(t, err)
		assert.Equal(t, 5, answer.lastLimit)
		assert.Equal(t, 0, output.Count)
	})

	t.Run("returns error on search failure", func(t *testing.T) {
		answer := &mockAnswerService{err: errors.New("search failed")}
		server := newTestServer(t, &Ports{Answer: answer})

		_, _, err := server.handleSearch(ctx, nil, SearchInput{Query: "test"})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "search failed")
	})
}

func TestServer_handleIngest(t *testing.T) {
	ctx := context.Background()
	ingest := &mockIngestService{}
	server := newTestServer(t, &Ports{Answer: &mockAnswerService{}, Ingest: ingest})

	_, output, err := server.handleIngest(ctx, nil, IngestInput{
		RepoURLs: []string{"https://github.com/acme/widgets"},
		Replace:  true,
	})

	require.NoError(t, err)
	require.Len(t, output.Results, 1)
	assert.True(t, output.Results[0].Success)
	assert.True(t, ingest.opts.ReplaceExisting)

	_, _, err = server.handleIngest(ctx, nil, IngestInput{})
	assert.Error(t, err)
}

func TestServer_handleListProjects(t *testing.T) {
	ctx := context.Background()
	projects := &mockProjectService{
		projects:   []domain.Project{{Name: "widgets"}},
		discovered: []domain.Project{{Name: "gadgets"}, {Name: "widgets"}},
	}
	server := newTestServer(t, &Ports{Answer: &mockAnswerService{}, Project: projects})

	_, output, err := server.handleListProjects(ctx, nil, ProjectsInput{})
	require.NoError(t, err)
	assert.Len(t, output.Projects, 1)

	_, output, err = server.handleListProjects(ctx, nil, ProjectsInput{Discovered: true})
	require.NoError(t, err)
	assert.Len(t, output.Projects, 2)

	projects.err = errors.New("registry unreadable")
	_, _, err = server.handleListProjects(ctx, nil, ProjectsInput{})
	assert.Error(t, err)
}

func TestServer_handleListProjectsEmpty(t *testing.T) {
	server := newTestServer(t, &Ports{Answer: &mockAnswerService{}, Project: &mockProjectService{}})

	_, output, err := server.handleListProjects(context.Background(), nil, ProjectsInput{})

	require.NoError(t, err)
	assert.NotNil(t, output.Projects)
	assert.Empty(t, output.Projects)
}
