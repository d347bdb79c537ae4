package driven

import (
	"context"

	"github.com/custodia-labs/docs-agent/internal/core/domain"
)

// AIConfigValidator checks provider configurations against the live
// service before they are persisted.
type AIConfigValidator interface {
	// ValidateEmbedding pings the embedding provider described by config.
	// Returns nil when the provider is not configured.
	ValidateEmbedding(ctx context.Context, config *domain.EmbeddingSettings) error

	// ValidateLLM pings the generation provider described by config.
	// Returns nil when the provider is not configured.
	ValidateLLM(ctx context.Context, config *domain.LLMSettings) error
}
