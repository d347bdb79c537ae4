package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/docs-agent/internal/core/domain"
)

const (
	// uriScheme is the custom URI scheme for docs-agent resources.
	uriScheme = "docs-agent://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	if s.ports.Project == nil {
		return
	}

	// Static resource for the project registry.
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "projects",
		Name:        "projects",
		Description: "Registered documentation projects",
		MIMEType:    "application/json",
	}, s.handleProjectsResource)

	// Static resource for projects found in the vector store.
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "projects/discovered",
		Name:        "discovered-projects",
		Description: "Repositories with ingested README sections",
		MIMEType:    "application/json",
	}, s.handleDiscoveredResource)
}

// handleProjectsResource returns the registered projects.
func (s *Server) handleProjectsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	projects, err := s.ports.Project.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}
	return projectsResult(req.Params.URI, projects)
}

// handleDiscoveredResource returns the repositories found in the store.
func (s *Server) handleDiscoveredResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	projects, err := s.ports.Project.Discover(ctx)
	if err != nil {
		return nil, fmt.Errorf("discovering projects: %w", err)
	}
	return projectsResult(req.Params.URI, projects)
}

func projectsResult(uri string, projects []domain.Project) (*mcp.ReadResourceResult, error) {
	if projects == nil {
		projects = []domain.Project{}
	}

	data, err := json.MarshalIndent(projects, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling projects: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}
