package mcp

import (
	"github.com/custodia-labs/docs-agent/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Answer answers and searches questions.
	Answer driving.AnswerService

	// Ingest loads repository READMEs.
	Ingest driving.IngestService

	// Project lists known projects.
	Project driving.ProjectService
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Answer == nil {
		return ErrMissingAnswerService
	}
	// Ingest and Project are optional; their tools are not registered
	return nil
}
