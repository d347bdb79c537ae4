package ai

import (
	"context"
	"time"

	"github.com/custodia-labs/docs-agent/internal/core/domain"
	"github.com/custodia-labs/docs-agent/internal/core/ports/driven"
)

// Ensure ConfigValidator implements the interface.
var _ driven.AIConfigValidator = (*ConfigValidator)(nil)

// pingTimeout bounds a single provider check.
const pingTimeout = 10 * time.Second

// ConfigValidator builds a throwaway adapter for a configuration and pings it.
type ConfigValidator struct{}

// NewConfigValidator creates a new AI config validator.
func NewConfigValidator() *ConfigValidator {
	return &ConfigValidator{}
}

// ValidateEmbedding validates an embedding configuration by pinging the provider.
func (v *ConfigValidator) ValidateEmbedding(ctx context.Context, config *domain.EmbeddingSettings) error {
	if config == nil || !config.IsConfigured() {
		return nil
	}
	svc, err := CreateEmbeddingService(config, pingTimeout)
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return svc.Ping(ctx)
}

// ValidateLLM validates an LLM configuration by pinging the provider.
func (v *ConfigValidator) ValidateLLM(ctx context.Context, config *domain.LLMSettings) error {
	if config == nil || !config.IsConfigured() {
		return nil
	}
	gen, err := CreateGenerator(config, pingTimeout)
	if err != nil {
		return err
	}
	defer gen.Close()

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return gen.Ping(ctx)
}
