package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/custodia-labs/docs-agent/internal/connectors/github"
	"github.com/custodia-labs/docs-agent/internal/core/domain"
	"github.com/custodia-labs/docs-agent/internal/core/ports/driven"
	"github.com/custodia-labs/docs-agent/internal/core/ports/driving"
	"github.com/custodia-labs/docs-agent/internal/logger"
)

// Ensure ProjectService implements the interface.
var _ driving.ProjectService = (*ProjectService)(nil)

// Discovery parameters.
const (
	// DiscoveryQuery is embedded to find every ingested README.
	DiscoveryQuery = "What is this project about?"

	// DiscoveryLimit caps the records scanned during discovery.
	DiscoveryLimit = 100

	discoveredDescription = "GitHub Repository: %s"
)

// ProjectService manages the project registry and discovers ingested
// repositories.
type ProjectService struct {
	store    driven.ProjectStore
	runtime  *RuntimeHolder
	timeouts domain.TimeoutSettings
}

// NewProjectService creates a new project service.
func NewProjectService(store driven.ProjectStore, runtime *RuntimeHolder, timeouts domain.TimeoutSettings) *ProjectService {
	return &ProjectService{
		store:    store,
		runtime:  runtime,
		timeouts: timeouts,
	}
}

// List returns the registered projects.
func (s *ProjectService) List(ctx context.Context) ([]domain.Project, error) {
	return s.store.List(ctx)
}

// Add registers a project after validating its README URL. An empty name
// defaults to the repository name.
func (s *ProjectService) Add(ctx context.Context, name, readmeURL, description string) (*domain.Project, error) {
	ref, err := github.ParseReadmeURL(readmeURL)
	if err != nil {
		return nil, err
	}

	name = strings.TrimSpace(name)
	if name == "" {
		name = ref.Repo
	}

	project := domain.Project{
		Name:        name,
		ReadmeURL:   ref.ReadmeURL(),
		Description: strings.TrimSpace(description),
	}
	if err := s.store.Add(ctx, project); err != nil {
		return nil, err
	}

	logger.Info("registered project %s (%s)", project.Name, project.ReadmeURL)
	return &project, nil
}

// Discover lists one project per README that has records in the vector
// store, in order of first appearance among the search hits.
func (s *ProjectService) Discover(ctx context.Context) ([]domain.Project, error) {
	rt, release, err := s.runtime.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	embedCtx, cancel := withTimeout(ctx, s.timeouts.Embed)
	vector, err := rt.Embedder.Embed(embedCtx, DiscoveryQuery)
	cancel()
	if err != nil {
		if !errors.Is(err, domain.ErrEmbedding) {
			err = fmt.Errorf("%w: %w", domain.ErrEmbedding, err)
		}
		return nil, err
	}

	searchCtx, cancel := withTimeout(ctx, s.timeouts.Search)
	hits, err := rt.VectorStore.Search(searchCtx, rt.Collection, vector, DiscoveryLimit)
	cancel()
	if errors.Is(err, domain.ErrNotFound) {
		return []domain.Project{}, nil
	}
	if err != nil {
		return nil, err
	}

	projects := []domain.Project{}
	seen := make(map[string]bool)
	for _, hit := range hits {
		source := hit.Metadata.SourceURL
		if seen[source] {
			continue
		}
		seen[source] = true

		owner, repo, ok := github.RepoFromSourceURL(source)
		if !ok {
			logger.Debug("skipping unrecognised source %q", source)
			continue
		}
		ref := github.RepoRef{Owner: owner, Repo: repo}
		projects = append(projects, domain.Project{
			Name:        repo,
			ReadmeURL:   ref.RepoURL(),
			Description: fmt.Sprintf(discoveredDescription, repo),
		})
	}

	logger.Debug("Discovered %d projects from %d records", len(projects), len(hits))
	return projects, nil
}
