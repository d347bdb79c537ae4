package driving

import (
	"context"

	"github.com/custodia-labs/docs-agent/internal/core/domain"
)

// AnswerService answers questions about ingested documentation.
type AnswerService interface {
	// Answer never fails: errors are reported inside the result with
	// Status set to domain.QueryStatusError.
	Answer(ctx context.Context, question string) domain.QueryResult

	// Search returns the records most similar to query.
	Search(ctx context.Context, query string, limit int) ([]domain.ScoredRecord, error)
}
