package driving

import "github.com/custodia-labs/docs-agent/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get returns the effective settings: defaults, then environment
	// variables, then values persisted in the config file.
	Get() (*domain.AppSettings, error)

	// SetAPIKey validates and persists the OpenAI API key.
	SetAPIKey(key string) error

	// SetProviderKey validates and persists the API key for provider.
	SetProviderKey(provider domain.AIProvider, key string) error

	// SetLLMProvider configures the generation provider.
	SetLLMProvider(provider domain.AIProvider, model string) error

	// SetVectorBackend configures the vector store.
	SetVectorBackend(backend domain.VectorBackend, url, collection string) error

	// GetDefaults returns default settings.
	GetDefaults() domain.AppSettings
}
