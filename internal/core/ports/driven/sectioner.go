package driven

import "github.com/custodia-labs/docs-agent/internal/core/domain"

// Sectioner splits markdown into titled sections in document order.
// Implementations are pure and deterministic.
type Sectioner interface {
	Section(markdown string) []domain.Section
}
