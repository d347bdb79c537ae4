package tui

import (
	"fmt"

	"github.com/custodia-labs/docs-agent/internal/core/ports/driving"
)

// Ports holds the driving ports the TUI talks to.
type Ports struct {
	// Answer runs questions through the retrieval pipeline.
	Answer driving.AnswerService

	// Ingest loads READMEs into the vector store. Optional.
	Ingest driving.IngestService

	// Project lists and discovers projects. Optional.
	Project driving.ProjectService
}

// Validate checks that the required ports are set.
func (p *Ports) Validate() error {
	if p == nil {
		return ErrInvalidPorts
	}
	if p.Answer == nil {
		return fmt.Errorf("%w: %w", ErrInvalidPorts, ErrMissingAnswerService)
	}
	return nil
}
