package services

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/docs-agent/internal/core/domain"
	"github.com/custodia-labs/docs-agent/internal/core/ports/driven"
	"github.com/custodia-labs/docs-agent/internal/core/ports/driving"
	"github.com/custodia-labs/docs-agent/internal/logger"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyEmbedProvider    = "embedding.provider"
	keyEmbedModel       = "embedding.model"
	keyEmbedDimensions  = "embedding.dimensions"
	keyEmbedBaseURL     = "embedding.base_url"
	keyEmbedAPIKey      = "embedding.api_key"
	keyLLMProvider      = "llm.provider"
	keyLLMModel         = "llm.model"
	keyLLMBaseURL       = "llm.base_url"
	keyLLMAPIKey        = "llm.api_key"
	keyVectorBackend    = "vector.backend"
	keyVectorURL        = "vector.url"
	keyVectorAPIKey     = "vector.api_key"
	keyVectorCollection = "vector.collection"
	keyMongoURI         = "vector.mongo_uri"
	keyMongoDatabase    = "vector.mongo_database"
	keyVectorDataDir    = "vector.data_dir"
	keyTopK             = "retrieval.top_k"
	keyMaxToolRounds    = "retrieval.max_tool_rounds"
	keyTimeoutFetch     = "timeouts.fetch"
	keyTimeoutEmbed     = "timeouts.embed"
	keyTimeoutSearch    = "timeouts.search"
	keyTimeoutGenerate  = "timeouts.generate"
	keyServerPort       = "server.port"
	keyAllowedOrigins   = "server.allowed_origins"
	keyGitHubToken      = "github.token"
)

// Environment variables read on top of the defaults.
//
//nolint:gosec // G101: These are variable names, not actual credentials.
const (
	EnvOpenAIKey     = "OPENAI_API_KEY"
	EnvOpenRouterKey = "OPENROUTER_API_KEY"
	EnvAnthropicKey  = "ANTHROPIC_API_KEY"
	EnvQdrantURL     = "QDRANT_URL"
	EnvQdrantKey     = "QDRANT_API_KEY"
	EnvCollection    = "QDRANT_COLLECTION_NAME"
	EnvVectorBackend = "VECTOR_BACKEND"
	EnvMongoURI      = "MONGODB_URI"
	EnvGitHubToken   = "GITHUB_TOKEN"
	EnvLLMProvider   = "LLM_PROVIDER"
	EnvLLMModel      = "LLM_MODEL"
	EnvProjectURL    = "PROJECT_URL"
)

// SettingsService manages application settings.
//
// Effective settings are layered: defaults, then environment variables,
// then values persisted in the config store. A value written through this
// service therefore wins over the environment it was started with.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
	getenv      func(string) string

	mu        sync.RWMutex
	listeners []func(*domain.AppSettings)
}

// NewSettingsService creates a new settings service. A nil aiValidator
// stores keys without checking them; getenv defaults to os.Getenv.
func NewSettingsService(
	configStore driven.ConfigStore,
	aiValidator driven.AIConfigValidator,
	getenv func(string) string,
) *SettingsService {
	if getenv == nil {
		getenv = os.Getenv
	}
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
		getenv:      getenv,
	}
}

// OnChange registers fn to be called with the new settings after every
// successful update.
func (s *SettingsService) OnChange(fn func(*domain.AppSettings)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Get returns the effective settings.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	settings := s.fromEnv()

	settings.Embedding.Provider = s.getProvider(keyEmbedProvider, settings.Embedding.Provider)
	settings.Embedding.Model = s.getString(keyEmbedModel, settings.Embedding.Model)
	settings.Embedding.BaseURL = s.getString(keyEmbedBaseURL, settings.Embedding.BaseURL)
	settings.Embedding.APIKey = s.getString(keyEmbedAPIKey, settings.Embedding.APIKey)
	settings.Embedding.Dimensions = s.getInt(keyEmbedDimensions, s.dimensionsFor(settings.Embedding))

	settings.LLM.Provider = s.getProvider(keyLLMProvider, settings.LLM.Provider)
	settings.LLM.Model = s.getString(keyLLMModel, settings.LLM.Model)
	settings.LLM.BaseURL = s.getString(keyLLMBaseURL, settings.LLM.BaseURL)
	settings.LLM.APIKey = s.getString(keyLLMAPIKey, s.llmKeyFromEnv(settings.LLM.Provider))

	settings.VectorStore.Backend = domain.VectorBackend(s.getString(keyVectorBackend, settings.VectorStore.Backend.String()))
	settings.VectorStore.URL = s.getString(keyVectorURL, settings.VectorStore.URL)
	settings.VectorStore.APIKey = s.getString(keyVectorAPIKey, settings.VectorStore.APIKey)
	settings.VectorStore.Collection = s.getString(keyVectorCollection, settings.VectorStore.Collection)
	settings.VectorStore.MongoURI = s.getString(keyMongoURI, settings.VectorStore.MongoURI)
	settings.VectorStore.MongoDatabase = s.getString(keyMongoDatabase, settings.VectorStore.MongoDatabase)
	settings.VectorStore.DataDir = s.getString(keyVectorDataDir, settings.VectorStore.DataDir)

	settings.Retrieval.TopK = s.getInt(keyTopK, settings.Retrieval.TopK)
	settings.Retrieval.MaxToolRounds = s.getInt(keyMaxToolRounds, settings.Retrieval.MaxToolRounds)

	settings.Timeouts.Fetch = s.getDuration(keyTimeoutFetch, settings.Timeouts.Fetch)
	settings.Timeouts.Embed = s.getDuration(keyTimeoutEmbed, settings.Timeouts.Embed)
	settings.Timeouts.Search = s.getDuration(keyTimeoutSearch, settings.Timeouts.Search)
	settings.Timeouts.Generate = s.getDuration(keyTimeoutGenerate, settings.Timeouts.Generate)

	settings.Server.Port = s.getInt(keyServerPort, settings.Server.Port)
	if origins := s.configStore.GetStringSlice(keyAllowedOrigins); len(origins) > 0 {
		settings.Server.AllowedOrigins = origins
	}

	settings.GitHubToken = s.getString(keyGitHubToken, settings.GitHubToken)

	if !settings.VectorStore.Backend.IsValid() {
		return nil, fmt.Errorf("%w: unknown vector backend %q", domain.ErrInvalidInput, settings.VectorStore.Backend)
	}
	return settings, nil
}

// GetDefaults returns the built-in defaults, ignoring environment and
// config file.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// SetAPIKey validates and stores the OpenAI key. The key also serves
// generation while the LLM provider is OpenAI.
func (s *SettingsService) SetAPIKey(key string) error {
	return s.SetProviderKey(domain.AIProviderOpenAI, key)
}

// SetProviderKey validates and stores the credential for provider.
func (s *SettingsService) SetProviderKey(provider domain.AIProvider, key string) error {
	if !provider.IsValid() {
		return fmt.Errorf("%w: unknown provider %q", domain.ErrInvalidInput, provider)
	}
	key = strings.TrimSpace(key)
	if err := domain.ValidateAPIKey(key); err != nil {
		return err
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}
	if err := s.validateKey(provider, key, settings); err != nil {
		return err
	}

	if provider.SupportsEmbeddings() && settings.Embedding.Provider == provider {
		if err := s.configStore.Set(keyEmbedAPIKey, key); err != nil {
			return fmt.Errorf("save embedding api_key: %w", err)
		}
	}
	if settings.LLM.Provider == provider {
		if err := s.configStore.Set(keyLLMAPIKey, key); err != nil {
			return fmt.Errorf("save llm api_key: %w", err)
		}
	}

	logger.Info("stored %s API key %s", provider, domain.MaskAPIKey(key))
	return s.changed()
}

// validateKey pings every provider that would use key. Nothing is
// persisted when a provider rejects it.
func (s *SettingsService) validateKey(provider domain.AIProvider, key string, settings *domain.AppSettings) error {
	if s.aiValidator == nil {
		return nil
	}
	ctx := context.Background()

	if provider.SupportsEmbeddings() && settings.Embedding.Provider == provider {
		embedding := settings.Embedding
		embedding.APIKey = key
		if err := s.aiValidator.ValidateEmbedding(ctx, &embedding); err != nil {
			return fmt.Errorf("%w: %s embeddings rejected the key: %w", domain.ErrAuthorization, provider, err)
		}
	}
	if settings.LLM.Provider == provider {
		llm := settings.LLM
		llm.APIKey = key
		if err := s.aiValidator.ValidateLLM(ctx, &llm); err != nil {
			return fmt.Errorf("%w: %s generation rejected the key: %w", domain.ErrAuthorization, provider, err)
		}
	}
	return nil
}

// SetLLMProvider configures the generation provider. An empty model
// selects the provider default.
func (s *SettingsService) SetLLMProvider(provider domain.AIProvider, model string) error {
	if !provider.IsValid() {
		return fmt.Errorf("%w: invalid LLM provider: %s", domain.ErrInvalidInput, provider)
	}
	if model == "" {
		model = domain.DefaultLLMModels()[provider]
	}

	if err := s.configStore.Set(keyLLMProvider, provider.String()); err != nil {
		return fmt.Errorf("save llm provider: %w", err)
	}
	if err := s.configStore.Set(keyLLMModel, model); err != nil {
		return fmt.Errorf("save llm model: %w", err)
	}

	// A key stored for the previous provider would be sent to the new one.
	if err := s.configStore.Set(keyLLMAPIKey, ""); err != nil {
		return fmt.Errorf("save llm api_key: %w", err)
	}

	return s.changed()
}

// SetVectorBackend configures the vector store. Empty url and collection
// keep their current values.
func (s *SettingsService) SetVectorBackend(backend domain.VectorBackend, url, collection string) error {
	if !backend.IsValid() {
		return fmt.Errorf("%w: invalid vector backend: %s", domain.ErrInvalidInput, backend)
	}

	if err := s.configStore.Set(keyVectorBackend, backend.String()); err != nil {
		return fmt.Errorf("save vector backend: %w", err)
	}
	if url != "" {
		key := keyVectorURL
		if backend == domain.VectorBackendMongo {
			key = keyMongoURI
		}
		if err := s.configStore.Set(key, url); err != nil {
			return fmt.Errorf("save vector url: %w", err)
		}
	}
	if collection != "" {
		if err := s.configStore.Set(keyVectorCollection, collection); err != nil {
			return fmt.Errorf("save vector collection: %w", err)
		}
	}

	return s.changed()
}

// changed notifies listeners with freshly loaded settings.
func (s *SettingsService) changed() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	s.mu.RLock()
	listeners := append([]func(*domain.AppSettings){}, s.listeners...)
	s.mu.RUnlock()

	for _, fn := range listeners {
		fn(settings)
	}
	return nil
}

// fromEnv returns the defaults with environment variables applied.
func (s *SettingsService) fromEnv() *domain.AppSettings {
	settings := domain.DefaultAppSettings()

	settings.Embedding.APIKey = s.getenv(EnvOpenAIKey)

	if v := s.getenv(EnvLLMProvider); v != "" {
		provider := domain.AIProvider(strings.ToLower(v))
		if provider.IsValid() {
			settings.LLM.Provider = provider
			settings.LLM.Model = domain.DefaultLLMModels()[provider]
		} else {
			logger.Warn("ignoring %s=%q: unknown provider", EnvLLMProvider, v)
		}
	}
	if v := s.getenv(EnvLLMModel); v != "" {
		settings.LLM.Model = v
	}
	if v := s.getenv(EnvProjectURL); v != "" {
		settings.LLM.Referer = v
		settings.Server.AllowedOrigins = []string{v}
	}

	if v := s.getenv(EnvVectorBackend); v != "" {
		settings.VectorStore.Backend = domain.VectorBackend(strings.ToLower(v))
	}
	if v := s.getenv(EnvQdrantURL); v != "" {
		settings.VectorStore.URL = v
	}
	settings.VectorStore.APIKey = s.getenv(EnvQdrantKey)
	if v := s.getenv(EnvCollection); v != "" {
		settings.VectorStore.Collection = v
	}
	settings.VectorStore.MongoURI = s.getenv(EnvMongoURI)

	settings.GitHubToken = s.getenv(EnvGitHubToken)
	return &settings
}

// llmKeyFromEnv returns the environment credential for provider.
func (s *SettingsService) llmKeyFromEnv(provider domain.AIProvider) string {
	switch provider {
	case domain.AIProviderOpenRouter:
		return s.getenv(EnvOpenRouterKey)
	case domain.AIProviderAnthropic:
		return s.getenv(EnvAnthropicKey)
	default:
		if key := s.configStore.GetString(keyEmbedAPIKey); key != "" {
			return key
		}
		return s.getenv(EnvOpenAIKey)
	}
}

func (s *SettingsService) dimensionsFor(e domain.EmbeddingSettings) int {
	if d, ok := domain.EmbeddingDimensions()[e.Model]; ok {
		return d
	}
	return e.Dimensions
}

// Helper methods for reading config values with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	if val := s.configStore.GetString(key); val != "" {
		return val
	}
	return defaultVal
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	if val := s.configStore.GetInt(key); val != 0 {
		return val
	}
	return defaultVal
}

func (s *SettingsService) getDuration(key string, defaultVal time.Duration) time.Duration {
	val := s.configStore.GetString(key)
	if val == "" {
		if secs := s.configStore.GetInt(key); secs > 0 {
			return time.Duration(secs) * time.Second
		}
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		if secs, convErr := strconv.Atoi(val); convErr == nil {
			return time.Duration(secs) * time.Second
		}
		logger.Warn("ignoring %s=%q: %v", key, val, err)
		return defaultVal
	}
	return d
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	if val := s.configStore.GetString(key); val != "" {
		p := domain.AIProvider(val)
		if p.IsValid() {
			return p
		}
	}
	return defaultVal
}
