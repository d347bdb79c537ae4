package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/docs-agent/internal/connectors/github"
	"github.com/custodia-labs/docs-agent/internal/core/domain"
	"github.com/custodia-labs/docs-agent/internal/core/ports/driven"
	"github.com/custodia-labs/docs-agent/internal/core/ports/driving"
	"github.com/custodia-labs/docs-agent/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.IngestService = (*IngestService)(nil)

// msgProcessed is the batch message for a successful ingestion.
const msgProcessed = "Successfully processed %s"

// IngestService loads README sections into the vector store.
type IngestService struct {
	runtime   *RuntimeHolder
	fetcher   driven.Fetcher
	sectioner driven.Sectioner
	timeouts  domain.TimeoutSettings
}

// NewIngestService creates a new ingestion service.
func NewIngestService(
	runtime *RuntimeHolder,
	fetcher driven.Fetcher,
	sectioner driven.Sectioner,
	timeouts domain.TimeoutSettings,
) *IngestService {
	return &IngestService{
		runtime:   runtime,
		fetcher:   fetcher,
		sectioner: sectioner,
		timeouts:  timeouts,
	}
}

// Ingest fetches the README of repoURL and stores one record per section.
// Every section is embedded before the store is touched, so an embedding
// failure leaves earlier records in place. Upserts run in document order
// and the first failure aborts the rest.
func (s *IngestService) Ingest(
	ctx context.Context, repoURL string, opts domain.IngestOptions,
) (*domain.IngestReport, error) {
	logger.Section("Ingest")

	sourceURL := github.NormaliseRepoURL(repoURL)
	rawURL, err := github.RawContentURL(sourceURL)
	if err != nil {
		return nil, err
	}
	logger.Debug("Source: %s", sourceURL)
	logger.Debug("Raw: %s", rawURL)

	rt, release, err := s.runtime.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	body, err := s.fetch(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	sections := s.sectioner.Section(string(body))
	logger.Debug("Sections: %d", len(sections))

	report := &domain.IngestReport{
		SourceURL: sourceURL,
		RawURL:    rawURL,
		Sections:  len(sections),
	}
	if len(sections) == 0 {
		logger.Warn("no sections found in %s", rawURL)
		return report, nil
	}

	texts := make([]string, len(sections))
	for i, section := range sections {
		texts[i] = section.Content
	}
	vectors, err := s.embed(ctx, rt.Embedder, texts)
	if err != nil {
		return nil, err
	}

	if err := s.prepare(ctx, rt, sourceURL, len(vectors[0]), opts, report); err != nil {
		return nil, err
	}

	for i, section := range sections {
		record := domain.NewDocumentRecord(section, sourceURL, vectors[i])
		if _, err := s.upsert(ctx, rt, record); err != nil {
			return nil, fmt.Errorf("section %d %q: %w", i+1, section.Title, err)
		}
		report.Stored++
	}

	logger.Info("ingested %s: %d sections stored", sourceURL, report.Stored)
	return report, nil
}

// Process runs Ingest with default options and reports success.
func (s *IngestService) Process(ctx context.Context, repoURL string) bool {
	if _, err := s.Ingest(ctx, repoURL, domain.IngestOptions{}); err != nil {
		logger.Error("processing %s: %v", repoURL, err)
		return false
	}
	return true
}

// IngestBatch ingests every URL independently and reports each outcome.
func (s *IngestService) IngestBatch(
	ctx context.Context, repoURLs []string, opts domain.IngestOptions,
) []domain.IngestResult {
	results := make([]domain.IngestResult, 0, len(repoURLs))
	for _, u := range repoURLs {
		result := domain.IngestResult{URL: u}
		if _, err := s.Ingest(ctx, u, opts); err != nil {
			logger.Error("processing %s: %v", u, err)
			result.Message = err.Error()
		} else {
			result.Success = true
			result.Message = fmt.Sprintf(msgProcessed, u)
		}
		results = append(results, result)
	}
	return results
}

// prepare creates the collection and, when asked, clears earlier records
// of sourceURL. It runs once every section has a vector.
func (s *IngestService) prepare(
	ctx context.Context,
	rt *driven.Runtime,
	sourceURL string,
	dimension int,
	opts domain.IngestOptions,
	report *domain.IngestReport,
) error {
	ctx, cancel := withTimeout(ctx, s.timeouts.Search)
	defer cancel()

	if err := rt.VectorStore.EnsureCollection(ctx, rt.Collection, dimension); err != nil {
		return err
	}
	if !opts.ReplaceExisting {
		return nil
	}

	removed, err := rt.VectorStore.DeleteBySource(ctx, rt.Collection, sourceURL)
	if err != nil {
		return err
	}
	report.Replaced = removed
	logger.Debug("Replaced %d earlier records", removed)
	return nil
}

func (s *IngestService) fetch(ctx context.Context, rawURL string) ([]byte, error) {
	ctx, cancel := withTimeout(ctx, s.timeouts.Fetch)
	defer cancel()

	body, err := s.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		if !errors.Is(err, domain.ErrFetch) {
			err = fmt.Errorf("%w: %w", domain.ErrFetch, err)
		}
		return nil, err
	}
	return body, nil
}

func (s *IngestService) embed(ctx context.Context, embedder driven.EmbeddingService, texts []string) ([][]float32, error) {
	ctx, cancel := withTimeout(ctx, s.timeouts.Embed)
	defer cancel()

	vectors, err := embedder.EmbedBatch(ctx, texts)
	if err == nil && len(vectors) != len(texts) {
		err = fmt.Errorf("got %d vectors for %d sections", len(vectors), len(texts))
	}
	if err != nil {
		if !errors.Is(err, domain.ErrEmbedding) {
			err = fmt.Errorf("%w: %w", domain.ErrEmbedding, err)
		}
		return nil, fmt.Errorf("embedding %d sections: %w", len(texts), err)
	}
	return vectors, nil
}

func (s *IngestService) upsert(ctx context.Context, rt *driven.Runtime, record domain.DocumentRecord) (string, error) {
	ctx, cancel := withTimeout(ctx, s.timeouts.Search)
	defer cancel()

	id, err := rt.VectorStore.Upsert(ctx, rt.Collection, record)
	if err != nil {
		if !errors.Is(err, domain.ErrVectorStore) {
			err = fmt.Errorf("%w: %w", domain.ErrVectorStore, err)
		}
		return "", err
	}
	return id, nil
}

// withTimeout bounds ctx by d. A zero d leaves ctx unbounded.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
