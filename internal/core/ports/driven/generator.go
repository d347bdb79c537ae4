package driven

import (
	"context"

	"github.com/custodia-labs/docs-agent/internal/core/domain"
)

// SearchFunc retrieves documents for a model-issued query.
type SearchFunc func(ctx context.Context, query string, limit int) ([]domain.Reference, error)

// Tools is the closed set of capabilities a generator may invoke while
// answering. A nil field means the tool is unavailable.
type Tools struct {
	// Search looks up more documentation in the knowledge base.
	Search SearchFunc
}

// HasSearch reports whether the search tool is available.
func (t Tools) HasSearch() bool {
	return t.Search != nil
}

// GenerateRequest is the input to a grounded generation.
type GenerateRequest struct {
	// System describes the assistant's purpose.
	System string

	// Instructions are appended to the system prompt, one per line.
	Instructions []string

	// Context holds the retrieved grounding documents.
	Context []domain.Reference

	// Question is the user's message.
	Question string

	// Tools may be called zero or more times before the final answer.
	Tools Tools

	// MaxToolRounds bounds tool invocation rounds. Zero disables tools.
	MaxToolRounds int

	// MaxTokens limits the response length. Zero uses the provider default.
	MaxTokens int
}

// Generation is the result of a grounded generation.
type Generation struct {
	// Content is the final answer text.
	Content string

	// References is the structured reference trail: grounding documents
	// plus anything retrieved through tools. Nil when the provider
	// reports none.
	References []domain.Reference

	// Model is the model that produced the answer, if reported.
	Model string

	// RunID identifies this generation.
	RunID string
}

// Generator is a chat-style language model that answers from context.
// Failures wrap domain.ErrGeneration.
type Generator interface {
	// Generate produces an answer for req.
	Generate(ctx context.Context, req GenerateRequest) (*Generation, error)

	// ModelName returns the configured model.
	ModelName() string

	// Ping checks the provider is reachable.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
