package driven

import (
	"context"

	"github.com/custodia-labs/docs-agent/internal/core/domain"
)

// VectorStore persists document records and searches them by similarity.
// It exclusively owns stored records. Implementations must be safe for
// concurrent use; failures wrap domain.ErrVectorStore.
type VectorStore interface {
	// EnsureCollection creates collection with the given vector dimension
	// if it does not already exist. It is idempotent.
	EnsureCollection(ctx context.Context, collection string, dimension int) error

	// Upsert stores a record and returns the id it was assigned.
	Upsert(ctx context.Context, collection string, record domain.DocumentRecord) (string, error)

	// Search returns up to limit records ordered by descending cosine similarity.
	Search(ctx context.Context, collection string, vector []float32, limit int) ([]domain.ScoredRecord, error)

	// Count returns the number of records in collection.
	Count(ctx context.Context, collection string) (int, error)

	// DeleteBySource removes every record whose source_url equals sourceURL
	// and returns how many were removed.
	DeleteBySource(ctx context.Context, collection, sourceURL string) (int, error)

	// Close releases connections.
	Close() error
}
