package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/custodia-labs/docs-agent/internal/core/domain"
	"github.com/custodia-labs/docs-agent/internal/core/ports/driven"
)

// Ensure ProjectStore implements the interface.
var _ driven.ProjectStore = (*ProjectStore)(nil)

// ProjectStore is an in-memory implementation of driven.ProjectStore for testing.
type ProjectStore struct {
	mu       sync.RWMutex
	projects []domain.Project
}

// NewProjectStore creates a registry seeded with projects.
func NewProjectStore(projects ...domain.Project) *ProjectStore {
	return &ProjectStore{projects: append([]domain.Project(nil), projects...)}
}

// List returns a copy of the registry.
func (s *ProjectStore) List(_ context.Context) ([]domain.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Project{}, s.projects...), nil
}

// Add appends a project unless its README URL is already registered.
func (s *ProjectStore) Add(_ context.Context, project domain.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.projects {
		if p.ReadmeURL == project.ReadmeURL {
			return fmt.Errorf("%w: project %s", domain.ErrAlreadyExists, project.ReadmeURL)
		}
	}
	s.projects = append(s.projects, project)
	return nil
}
