package driving

import (
	"context"

	"github.com/custodia-labs/docs-agent/internal/core/domain"
)

// ProjectService manages known projects.
type ProjectService interface {
	// List returns the registered projects.
	List(ctx context.Context) ([]domain.Project, error)

	// Add validates readmeURL and registers a project. An empty name is
	// derived from the URL.
	Add(ctx context.Context, name, readmeURL, description string) (*domain.Project, error)

	// Discover lists projects that have records in the vector store.
	Discover(ctx context.Context) ([]domain.Project, error)
}
