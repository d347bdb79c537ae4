// Package ai provides factory functions that build the embedding,
// generation and vector store adapters from settings.
package ai

import (
	"fmt"
	"time"

	openaiembed "github.com/custodia-labs/docs-agent/internal/adapters/driven/embedding/openai"
	anthropicllm "github.com/custodia-labs/docs-agent/internal/adapters/driven/llm/anthropic"
	openaillm "github.com/custodia-labs/docs-agent/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/docs-agent/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/docs-agent/internal/adapters/driven/storage/mongo"
	"github.com/custodia-labs/docs-agent/internal/adapters/driven/storage/qdrant"
	"github.com/custodia-labs/docs-agent/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/docs-agent/internal/core/domain"
	"github.com/custodia-labs/docs-agent/internal/core/ports/driven"
	"github.com/custodia-labs/docs-agent/internal/logger"
)

// OpenRouterTitle is sent as X-Title so OpenRouter can attribute requests.
const OpenRouterTitle = "Docs Agent API"

// NewRuntime builds every adapter named by settings. On error, anything
// already built is closed.
func NewRuntime(settings *domain.AppSettings) (*driven.Runtime, error) {
	embedder, err := CreateEmbeddingService(&settings.Embedding, settings.Timeouts.Embed)
	if err != nil {
		return nil, err
	}

	generator, err := CreateGenerator(&settings.LLM, settings.Timeouts.Generate)
	if err != nil {
		embedder.Close()
		return nil, err
	}

	store, err := CreateVectorStore(&settings.VectorStore, settings.Timeouts.Search)
	if err != nil {
		embedder.Close()
		generator.Close()
		return nil, err
	}

	logger.Debug("runtime: embedder=%s generator=%s store=%s collection=%s",
		embedder.ModelName(), generator.ModelName(), settings.VectorStore.Backend, settings.VectorStore.Collection)

	return &driven.Runtime{
		Embedder:    embedder,
		Generator:   generator,
		VectorStore: store,
		Collection:  settings.VectorStore.Collection,
	}, nil
}

// Rebuild builds a runtime for settings that reuses the vector store of
// prev. Only the credential-bearing adapters are reconstructed.
func Rebuild(settings *domain.AppSettings, prev *driven.Runtime) (*driven.Runtime, error) {
	if prev == nil || prev.VectorStore == nil {
		return NewRuntime(settings)
	}

	embedder, err := CreateEmbeddingService(&settings.Embedding, settings.Timeouts.Embed)
	if err != nil {
		return nil, err
	}
	generator, err := CreateGenerator(&settings.LLM, settings.Timeouts.Generate)
	if err != nil {
		embedder.Close()
		return nil, err
	}

	return &driven.Runtime{
		Embedder:    embedder,
		Generator:   generator,
		VectorStore: prev.VectorStore,
		Collection:  settings.VectorStore.Collection,
	}, nil
}

// CreateEmbeddingService creates the embedding service named by settings.
func CreateEmbeddingService(settings *domain.EmbeddingSettings, timeout time.Duration) (driven.EmbeddingService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, fmt.Errorf("%w: embedding provider is not configured, set OPENAI_API_KEY", domain.ErrAuthorization)
	}

	switch settings.Provider {
	case domain.AIProviderOpenAI:
		dimensions := settings.Dimensions
		if dimensions == 0 {
			dimensions = domain.EmbeddingDimensions()[settings.Model]
		}
		return openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:     settings.APIKey,
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Timeout:    timeout,
			Dimensions: dimensions,
		})

	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", settings.Provider)
	}
}

// CreateGenerator creates the generator named by settings.
func CreateGenerator(settings *domain.LLMSettings, timeout time.Duration) (driven.Generator, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, fmt.Errorf("%w: LLM provider is not configured", domain.ErrAuthorization)
	}

	switch settings.Provider {
	case domain.AIProviderOpenAI:
		return openaillm.NewGenerator(openaillm.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
			Timeout: timeout,
		})

	case domain.AIProviderOpenRouter:
		baseURL := settings.BaseURL
		if baseURL == "" {
			baseURL = openaillm.DefaultOpenRouterBaseURL
		}
		return openaillm.NewGenerator(openaillm.Config{
			APIKey:   settings.APIKey,
			BaseURL:  baseURL,
			Model:    settings.Model,
			Timeout:  timeout,
			Provider: string(domain.AIProviderOpenRouter),
			Headers: map[string]string{
				"HTTP-Referer": settings.Referer,
				"X-Title":      OpenRouterTitle,
			},
		})

	case domain.AIProviderAnthropic:
		return anthropicllm.NewGenerator(anthropicllm.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
			Timeout: timeout,
		})

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", settings.Provider)
	}
}

// CreateVectorStore creates the vector store named by settings.
func CreateVectorStore(settings *domain.VectorStoreSettings, timeout time.Duration) (driven.VectorStore, error) {
	if settings == nil {
		return nil, fmt.Errorf("%w: vector store settings are required", domain.ErrInvalidInput)
	}

	switch settings.Backend {
	case domain.VectorBackendQdrant:
		return qdrant.NewVectorStore(qdrant.Config{
			URL:     settings.URL,
			APIKey:  settings.APIKey,
			Timeout: timeout,
		})

	case domain.VectorBackendSQLite:
		store, err := sqlite.NewStore(settings.DataDir)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrVectorStore, err)
		}
		return store.VectorStore(), nil

	case domain.VectorBackendMongo:
		return mongo.NewVectorStore(mongo.Config{
			URI:      settings.MongoURI,
			Database: settings.MongoDatabase,
			Timeout:  timeout,
		})

	case domain.VectorBackendMemory:
		return memory.NewVectorStore(), nil

	default:
		return nil, fmt.Errorf("%w: unsupported vector backend: %s", domain.ErrInvalidInput, settings.Backend)
	}
}
