package mcp

import (
	"context"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/docs-agent/internal/core/domain"
)

// defaultSearchLimit is used when the search tool is called without a limit.
const defaultSearchLimit = 5

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Question string `json:"question" jsonschema:"the question to answer from the ingested documentation"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Status  string          `json:"status"`
	Answer  string          `json:"answer"`
	Sources []domain.Source `json:"sources"`
	Model   string          `json:"model,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// SearchInput is the input schema for the search tool.
type SearchInput struct {
	Query string `json:"query" jsonschema:"the search query to find README sections"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of results to return (default 5)"`
}

// SearchOutput is the output schema for the search tool.
type SearchOutput struct {
	Results []SearchResultOutput `json:"results"`
	Count   int                  `json:"count"`
}

// SearchResultOutput represents a single search result.
type SearchResultOutput struct {
	ID      string  `json:"id"`
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Score   float64 `json:"score"`
	Content string  `json:"content,omitempty"`
}

// IngestInput is the input schema for the ingest tool.
type IngestInput struct {
	RepoURLs []string `json:"repo_urls" jsonschema:"GitHub repository URLs whose README should be ingested"`
	Replace  bool     `json:"replace,omitempty" jsonschema:"delete records previously ingested from the same README"`
}

// IngestOutput is the output schema for the ingest tool.
type IngestOutput struct {
	Results []domain.IngestResult `json:"results"`
}

// ProjectsInput is the input schema for the list_projects tool.
type ProjectsInput struct {
	Discovered bool `json:"discovered,omitempty" jsonschema:"list repositories found in the vector store instead of the registry"`
}

// ProjectsOutput is the output schema for the list_projects tool.
type ProjectsOutput struct {
	Projects []domain.Project `json:"projects"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask",
		Description: "Answer a question from ingested README documentation, with cited sources",
	}, s.handleAsk)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search",
		Description: "Search ingested README sections by similarity",
	}, s.handleSearch)

	if s.ports.Ingest != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "ingest",
			Description: "Fetch and index the README of one or more GitHub repositories",
		}, s.handleIngest)
	}

	if s.ports.Project != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "list_projects",
			Description: "List known documentation projects",
		}, s.handleListProjects)
	}
}

// handleAsk handles the ask tool invocation. Query failures are reported
// in the output rather than as tool errors.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	result := s.ports.Answer.Answer(ctx, input.Question)

	return nil, AskOutput{
		Status:  string(result.Status),
		Answer:  result.Answer,
		Sources: result.Sources,
		Model:   result.Metadata.Model,
		Error:   result.Error,
	}, nil
}

// handleSearch handles the search tool invocation.
func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	results, err := s.ports.Answer.Search(ctx, input.Query, limit)
	if err != nil {
		return nil, SearchOutput{}, err
	}

	output := SearchOutput{
		Results: make([]SearchResultOutput, len(results)),
		Count:   len(results),
	}

	for i := range results {
		output.Results[i] = SearchResultOutput{
			ID:      results[i].ID,
			Title:   results[i].Metadata.Title,
			URL:     results[i].Metadata.SourceURL,
			Score:   results[i].Score,
			Content: results[i].Content,
		}
	}

	return nil, output, nil
}

// handleIngest handles the ingest tool invocation.
func (s *Server) handleIngest(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input IngestInput,
) (*mcp.CallToolResult, IngestOutput, error) {
	if len(input.RepoURLs) == 0 {
		return nil, IngestOutput{}, errors.New("at least one repository URL is required")
	}

	opts := domain.IngestOptions{ReplaceExisting: input.Replace}
	results := s.ports.Ingest.IngestBatch(ctx, input.RepoURLs, opts)

	return nil, IngestOutput{Results: results}, nil
}

// handleListProjects handles the list_projects tool invocation.
func (s *Server) handleListProjects(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ProjectsInput,
) (*mcp.CallToolResult, ProjectsOutput, error) {
	var (
		projects []domain.Project
		err      error
	)
	if input.Discovered {
		projects, err = s.ports.Project.Discover(ctx)
	} else {
		projects, err = s.ports.Project.List(ctx)
	}
	if err != nil {
		return nil, ProjectsOutput{}, err
	}
	if projects == nil {
		projects = []domain.Project{}
	}

	return nil, ProjectsOutput{Projects: projects}, nil
}
