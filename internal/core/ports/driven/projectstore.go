package driven

import (
	"context"

	"github.com/custodia-labs/docs-agent/internal/core/domain"
)

// ProjectStore persists the registry of known projects.
type ProjectStore interface {
	// List returns projects in insertion order.
	List(ctx context.Context) ([]domain.Project, error)

	// Add appends a project. Returns domain.ErrAlreadyExists when a
	// project with the same README URL is registered.
	Add(ctx context.Context, project domain.Project) error
}
