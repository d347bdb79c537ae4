package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/custodia-labs/docs-agent/internal/core/domain"
	"github.com/custodia-labs/docs-agent/internal/core/ports/driven"
)

// Ensure ProjectStore implements the interface.
var _ driven.ProjectStore = (*ProjectStore)(nil)

// ProjectsFile is the registry file name.
const ProjectsFile = "projects.json"

// ProjectStore keeps the project registry as a JSON array on disk.
// The file is re-read on every List so hand edits are picked up.
type ProjectStore struct {
	mu       sync.Mutex
	filePath string
}

// NewProjectStore creates a registry in dir (default ~/.docs-agent).
func NewProjectStore(dir string) (*ProjectStore, error) {
	if dir == "" {
		d, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		dir = d
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	return &ProjectStore{filePath: filepath.Join(dir, ProjectsFile)}, nil
}

// Path returns the registry file path.
func (s *ProjectStore) Path() string {
	return s.filePath
}

// List returns the registered projects. A missing file is an empty registry.
func (s *ProjectStore) List(_ context.Context) ([]domain.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read()
}

// Add appends project and rewrites the file.
func (s *ProjectStore) Add(_ context.Context, project domain.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	projects, err := s.read()
	if err != nil {
		return err
	}
	for _, p := range projects {
		if p.ReadmeURL == project.ReadmeURL {
			return fmt.Errorf("%w: project %s", domain.ErrAlreadyExists, project.ReadmeURL)
		}
	}

	data, err := json.MarshalIndent(append(projects, project), "", "  ")
	if err != nil {
		return fmt.Errorf("encode projects: %w", err)
	}

	// Write to a temp file then rename so readers never see a partial file.
	tmp := s.filePath + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0600); err != nil {
		return fmt.Errorf("write projects: %w", err)
	}
	if err := os.Rename(tmp, s.filePath); err != nil {
		return fmt.Errorf("replace projects: %w", err)
	}
	return nil
}

func (s *ProjectStore) read() ([]domain.Project, error) {
	data, err := os.ReadFile(s.filePath)
	if os.IsNotExist(err) {
		return []domain.Project{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read projects: %w", err)
	}

	projects := []domain.Project{}
	if err := json.Unmarshal(data, &projects); err != nil {
		return nil, fmt.Errorf("parse %s: %w", s.filePath, err)
	}
	return projects, nil
}
