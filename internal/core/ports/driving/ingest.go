package driving

import (
	"context"

	"github.com/custodia-labs/docs-agent/internal/core/domain"
)

// IngestService loads repository READMEs into the vector store.
type IngestService interface {
	// Ingest fetches, sections, embeds and stores one repository README.
	// Any failure propagates and aborts the remaining sections.
	Ingest(ctx context.Context, repoURL string, opts domain.IngestOptions) (*domain.IngestReport, error)

	// Process runs Ingest and reports only whether it succeeded.
	Process(ctx context.Context, repoURL string) bool

	// IngestBatch ingests each URL independently; one failure does not
	// affect the others. Results are in input order.
	IngestBatch(ctx context.Context, repoURLs []string, opts domain.IngestOptions) []domain.IngestResult
}
