package httpapi

import (
	"fmt"

	"github.com/custodia-labs/docs-agent/internal/core/ports/driving"
)

// Ports holds the driving ports the API serves.
type Ports struct {
	Answer  driving.AnswerService
	Ingest  driving.IngestService
	Project driving.ProjectService

	// Settings enables the API key endpoint. Optional.
	Settings driving.SettingsService
}

// Validate checks that the required ports are set.
func (p *Ports) Validate() error {
	if p == nil {
		return ErrInvalidPorts
	}
	if p.Answer == nil {
		return fmt.Errorf("%w: %w", ErrInvalidPorts, ErrMissingAnswerService)
	}
	if p.Ingest == nil {
		return fmt.Errorf("%w: %w", ErrInvalidPorts, ErrMissingIngestService)
	}
	if p.Project == nil {
		return fmt.Errorf("%w: %w", ErrInvalidPorts, ErrMissingProjectService)
	}
	return nil
}
