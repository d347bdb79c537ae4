package domain

import "time"

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or generation.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderOpenRouter is the OpenAI-compatible OpenRouter gateway.
	AIProviderOpenRouter AIProvider = "openrouter"

	// AIProviderAnthropic is Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOpenAI, AIProviderOpenRouter, AIProviderAnthropic:
		return true
	default:
		return false
	}
}

// SupportsEmbeddings returns true if the provider offers an embeddings API.
func (p AIProvider) SupportsEmbeddings() bool {
	return p == AIProviderOpenAI
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderOpenRouter:
		return "OpenRouter (cloud gateway)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	default:
		return unknownDescription
	}
}

// VectorBackend identifies a vector store implementation.
type VectorBackend string

// Available vector backends.
const (
	// VectorBackendQdrant is a Qdrant server reached over REST.
	VectorBackendQdrant VectorBackend = "qdrant"

	// VectorBackendSQLite is an embedded SQLite file with brute-force search.
	VectorBackendSQLite VectorBackend = "sqlite"

	// VectorBackendMongo is MongoDB Atlas Vector Search.
	VectorBackendMongo VectorBackend = "mongo"

	// VectorBackendMemory keeps records in process memory.
	VectorBackendMemory VectorBackend = "memory"
)

// IsValid returns true if the backend is recognised.
func (b VectorBackend) IsValid() bool {
	switch b {
	case VectorBackendQdrant, VectorBackendSQLite, VectorBackendMongo, VectorBackendMemory:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (b VectorBackend) String() string {
	return string(b)
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// Dimensions is the vector size produced by Model.
	Dimensions int

	// BaseURL overrides the provider endpoint.
	BaseURL string

	// APIKey is the provider credential.
	APIKey string
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	return e.Provider.SupportsEmbeddings() && e.APIKey != ""
}

// LLMSettings holds generation provider configuration.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider

	// Model is the LLM model name.
	Model string

	// BaseURL overrides the provider endpoint.
	BaseURL string

	// APIKey is the provider credential.
	APIKey string

	// Referer is sent to OpenRouter as the calling site.
	Referer string
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	return l.Provider.IsValid() && l.APIKey != ""
}

// VectorStoreSettings holds vector store configuration.
type VectorStoreSettings struct {
	// Backend selects the implementation.
	Backend VectorBackend

	// URL is the Qdrant endpoint.
	URL string

	// APIKey is the optional Qdrant api-key.
	APIKey string

	// Collection is the collection (or Mongo collection) name.
	Collection string

	// MongoURI is the MongoDB connection string.
	MongoURI string

	// MongoDatabase is the MongoDB database name.
	MongoDatabase string

	// DataDir holds the SQLite database file.
	DataDir string
}

// RetrievalSettings controls the answer pipeline.
type RetrievalSettings struct {
	// TopK is the number of records retrieved per query.
	TopK int

	// MaxToolRounds bounds how many times the model may call search.
	MaxToolRounds int
}

// TimeoutSettings bounds each network call.
type TimeoutSettings struct {
	Fetch    time.Duration
	Embed    time.Duration
	Search   time.Duration
	Generate time.Duration
}

// ServerSettings configures the HTTP API.
type ServerSettings struct {
	// Port is the listen port.
	Port int

	// AllowedOrigins are accepted by CORS.
	AllowedOrigins []string
}

// AppSettings holds all application settings.
type AppSettings struct {
	Embedding   EmbeddingSettings
	LLM         LLMSettings
	VectorStore VectorStoreSettings
	Retrieval   RetrievalSettings
	Timeouts    TimeoutSettings
	Server      ServerSettings

	// GitHubToken enables README fetches through the GitHub API.
	GitHubToken string

	// DataDir holds the config, prompts and project registry.
	DataDir string
}

// Defaults used when nothing is configured.
const (
	DefaultQdrantURL      = "http://localhost:6333"
	DefaultCollection     = "docs-agent"
	DefaultMongoDatabase  = "docs_agent"
	DefaultTopK           = 5
	DefaultMaxToolRounds  = 3
	DefaultServerPort     = 8000
	DefaultAllowedOrigin  = "http://localhost:3000"
	DefaultEmbeddingModel = "text-embedding-3-small"
	DefaultEmbeddingDims  = 1536
)

// DefaultAppSettings returns settings with sensible defaults.
// Credentials are left empty; they come from the environment or config file.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Embedding: EmbeddingSettings{
			Provider:   AIProviderOpenAI,
			Model:      DefaultEmbeddingModel,
			Dimensions: DefaultEmbeddingDims,
		},
		LLM: LLMSettings{
			Provider: AIProviderOpenAI,
			Model:    DefaultLLMModels()[AIProviderOpenAI],
			Referer:  DefaultAllowedOrigin,
		},
		VectorStore: VectorStoreSettings{
			Backend:       VectorBackendQdrant,
			URL:           DefaultQdrantURL,
			Collection:    DefaultCollection,
			MongoDatabase: DefaultMongoDatabase,
		},
		Retrieval: RetrievalSettings{
			TopK:          DefaultTopK,
			MaxToolRounds: DefaultMaxToolRounds,
		},
		Timeouts: TimeoutSettings{
			Fetch:    30 * time.Second,
			Embed:    60 * time.Second,
			Search:   15 * time.Second,
			Generate: 120 * time.Second,
		},
		Server: ServerSettings{
			Port:           DefaultServerPort,
			AllowedOrigins: []string{DefaultAllowedOrigin},
		},
	}
}

// AllLLMProviders returns providers that support generation.
func AllLLMProviders() []AIProvider {
	return []AIProvider{
		AIProviderOpenAI,
		AIProviderOpenRouter,
		AIProviderAnthropic,
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOpenAI:     "gpt-4-turbo-preview",
		AIProviderOpenRouter: "anthropic/claude-3-haiku",
		AIProviderAnthropic:  "claude-3-5-haiku-latest",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}
