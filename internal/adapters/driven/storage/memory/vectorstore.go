package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/custodia-labs/docs-agent/internal/adapters/driven/storage/similarity"
	"github.com/custodia-labs/docs-agent/internal/core/domain"
	"github.com/custodia-labs/docs-agent/internal/core/ports/driven"
)

// Ensure VectorStore implements the interface.
var _ driven.VectorStore = (*VectorStore)(nil)

type collection struct {
	dimension int
	records   []domain.DocumentRecord
}

// VectorStore is an in-memory implementation of driven.VectorStore.
// Search is brute-force cosine similarity over every record.
type VectorStore struct {
	mu          sync.RWMutex
	collections map[string]*collection
}

// NewVectorStore creates a new in-memory vector store.
func NewVectorStore() *VectorStore {
	return &VectorStore{
		collections: make(map[string]*collection),
	}
}

// EnsureCollection creates the collection if absent.
func (s *VectorStore) EnsureCollection(_ context.Context, name string, dimension int) error {
	if dimension <= 0 {
		return fmt.Errorf("%w: invalid dimension %d", domain.ErrVectorStore, dimension)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.collections[name]; ok {
		if c.dimension != dimension {
			return fmt.Errorf("%w: collection %q has dimension %d, not %d",
				domain.ErrVectorStore, name, c.dimension, dimension)
		}
		return nil
	}
	s.collections[name] = &collection{dimension: dimension}
	return nil
}

// Upsert stores a copy of record under a fresh id.
func (s *VectorStore) Upsert(_ context.Context, name string, record domain.DocumentRecord) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.collection(name)
	if err != nil {
		return "", err
	}
	if len(record.Vector) != c.dimension {
		return "", fmt.Errorf("%w: vector has dimension %d, collection %q expects %d",
			domain.ErrVectorStore, len(record.Vector), name, c.dimension)
	}

	record.ID = uuid.New().String()
	record.Vector = append([]float32(nil), record.Vector...)
	c.records = append(c.records, record)
	return record.ID, nil
}

// Search returns the closest records by cosine similarity.
func (s *VectorStore) Search(_ context.Context, name string, vector []float32, limit int) ([]domain.ScoredRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, err := s.collection(name)
	if err != nil {
		return nil, err
	}
	if len(vector) != c.dimension {
		return nil, fmt.Errorf("%w: query has dimension %d, collection %q expects %d",
			domain.ErrVectorStore, len(vector), name, c.dimension)
	}

	scores := make([]float64, len(c.records))
	for i, r := range c.records {
		scores[i] = similarity.Cosine(vector, r.Vector)
	}

	idxs := similarity.TopK(scores, limit)
	results := make([]domain.ScoredRecord, 0, len(idxs))
	for _, i := range idxs {
		r := c.records[i]
		results = append(results, domain.ScoredRecord{
			ID:       r.ID,
			Content:  r.Content,
			Metadata: r.Metadata,
			Score:    scores[i],
		})
	}
	return results, nil
}

// Count returns the number of records in the collection.
func (s *VectorStore) Count(_ context.Context, name string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, err := s.collection(name)
	if err != nil {
		return 0, err
	}
	return len(c.records), nil
}

// DeleteBySource removes records read from sourceURL.
func (s *VectorStore) DeleteBySource(_ context.Context, name, sourceURL string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.collection(name)
	if err != nil {
		return 0, err
	}

	kept := c.records[:0]
	removed := 0
	for _, r := range c.records {
		if r.Metadata.SourceURL == sourceURL {
			removed++
			continue
		}
		kept = append(kept, r)
	}
	c.records = kept
	return removed, nil
}

// Close is a no-op for the memory store.
func (s *VectorStore) Close() error {
	return nil
}

// collection must be called with the lock held.
func (s *VectorStore) collection(name string) (*collection, error) {
	c, ok := s.collections[name]
	if !ok {
		return nil, fmt.Errorf("%w: %w: collection %q", domain.ErrVectorStore, domain.ErrNotFound, name)
	}
	return c, nil
}
