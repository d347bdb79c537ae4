package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docs-agent/internal/core/domain"
	"github.com/custodia-labs/docs-agent/internal/normalisers/markdown"
)

func newIngestService(f *fixture) *IngestService {
	return NewIngestService(f.holder, f.fetcher, markdown.NewSectioner(), domain.DefaultAppSettings().Timeouts)
}

func TestIngestService_WidgetsScenario(t *testing.T) {
	f := newFixture(t)
	svc := newIngestService(f)

	report, err := svc.Ingest(context.Background(), widgetsRepo, domain.IngestOptions{})
	require.NoError(t, err)

	assert.Equal(t, widgetsSource, report.SourceURL)
	assert.Equal(t, widgetsRaw, report.RawURL)
	assert.Equal(t, 2, report.Sections)
	assert.Equal(t, 2, report.Stored)
	assert.Equal(t, []string{widgetsRaw}, f.fetcher.calls)
	assert.Equal(t, 2, f.count(t))

	vec, err := f.embedder.Embed(context.Background(), "Install\npip install widgets")
	require.NoError(t, err)
	hits, err := f.store.Search(context.Background(), domain.DefaultCollection, vec, 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)

	assert.Equal(t, "Install", hits[0].Metadata.Title)
	assert.Equal(t, "Install\npip install widgets", hits[0].Content)
	assert.Equal(t, widgetsSource, hits[0].Metadata.SourceURL)
	assert.Equal(t, domain.DocTypeMarkdown, hits[0].Metadata.DocType)
	assert.GreaterOrEqual(t, hits[0].Score, 0.0)
	assert.Equal(t, "Widgets", hits[1].Metadata.Title)
	assert.Equal(t, "Widgets\nA tool.", hits[1].Content)
}

func TestIngestService_ReingestDuplicates(t *testing.T) {
	f := newFixture(t)
	svc := newIngestService(f)
	ctx := context.Background()

	_, err := svc.Ingest(ctx, widgetsRepo, domain.IngestOptions{})
	require.NoError(t, err)
	first := f.count(t)

	_, err = svc.Ingest(ctx, widgetsRepo+"/", domain.IngestOptions{})
	require.NoError(t, err)

	assert.Greater(t, f.count(t), first)
	assert.Equal(t, 2*first, f.count(t))
}

func TestIngestService_ReplaceExisting(t *testing.T) {
	f := newFixture(t)
	svc := newIngestService(f)
	ctx := context.Background()

	_, err := svc.Ingest(ctx, widgetsRepo, domain.IngestOptions{})
	require.NoError(t, err)

	report, err := svc.Ingest(ctx, widgetsRepo, domain.IngestOptions{ReplaceExisting: true})
	require.NoError(t, err)

	assert.Equal(t, 2, report.Replaced)
	assert.Equal(t, 2, f.count(t))
}

func TestIngestService_ReplaceKeepsRecordsOnEmbedFailure(t *testing.T) {
	f := newFixture(t)
	svc := newIngestService(f)
	ctx := context.Background()

	_, err := svc.Ingest(ctx, widgetsRepo, domain.IngestOptions{})
	require.NoError(t, err)
	require.Equal(t, 2, f.count(t))

	f.embedder.failOn = "pip install"
	_, err = svc.Ingest(ctx, widgetsRepo, domain.IngestOptions{ReplaceExisting: true})
	require.ErrorIs(t, err, domain.ErrEmbedding)

	assert.Equal(t, 2, f.count(t))
}

func TestIngestService_EmbedsDocumentInOneBatch(t *testing.T) {
	f := newFixture(t)
	svc := newIngestService(f)

	_, err := svc.Ingest(context.Background(), widgetsRepo, domain.IngestOptions{})
	require.NoError(t, err)

	assert.Equal(t, 1, f.embedder.batchCount())
	assert.Equal(t, 2, f.embedder.callCount())
}

func TestIngestService_Errors(t *testing.T) {
	tests := []struct {
		name    string
		repoURL string
		setup   func(f *fixture)
		wantErr error
	}{
		{
			name:    "url without github segment",
			repoURL: "https://gitlab.com/acme/widgets",
			wantErr: domain.ErrInvalidRepoURL,
		},
		{
			name:    "readme not found",
			repoURL: "https://github.com/acme/missing",
			wantErr: domain.ErrFetch,
		},
		{
			name:    "transport failure is a fetch error",
			repoURL: widgetsRepo,
			setup: func(f *fixture) {
				f.fetcher.err = errors.New("connection refused")
			},
			wantErr: domain.ErrFetch,
		},
		{
			name:    "embedding failure",
			repoURL: widgetsRepo,
			setup: func(f *fixture) {
				f.embedder.err = fmt.Errorf("%w: status 401", domain.ErrEmbedding)
			},
			wantErr: domain.ErrEmbedding,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			if tt.setup != nil {
				tt.setup(f)
			}
			svc := newIngestService(f)

			_, err := svc.Ingest(context.Background(), tt.repoURL, domain.IngestOptions{})
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestIngestService_AbortsOnFirstFailure(t *testing.T) {
	t.Run("embedding", func(t *testing.T) {
		f := newFixture(t)
		f.embedder.failOn = "pip install"
		svc := newIngestService(f)

		_, err := svc.Ingest(context.Background(), widgetsRepo, domain.IngestOptions{})
		require.ErrorIs(t, err, domain.ErrEmbedding)
		assert.Contains(t, err.Error(), "embedding 2 sections")
		assert.Equal(t, 0, f.count(t))
	})

	t.Run("upsert", func(t *testing.T) {
		f := newFixture(t)
		store := &failingStore{
			VectorStore: f.store,
			upsertErr:   errors.New("disk full"),
		}
		f.runtime.VectorStore = store
		svc := newIngestService(f)

		_, err := svc.Ingest(context.Background(), widgetsRepo, domain.IngestOptions{})
		require.ErrorIs(t, err, domain.ErrVectorStore)
		assert.Equal(t, 1, store.upserts)
	})
}

func TestIngestService_NoHeadings(t *testing.T) {
	f := newFixture(t)
	f.fetcher.bodies[widgetsRaw] = "just a paragraph\n\nand another"
	svc := newIngestService(f)

	report, err := svc.Ingest(context.Background(), widgetsRepo, domain.IngestOptions{})
	require.NoError(t, err)

	assert.Equal(t, 0, report.Sections)
	assert.Equal(t, 0, f.embedder.callCount())
}

func TestIngestService_NotConfigured(t *testing.T) {
	f := newFixture(t)
	svc := NewIngestService(NewRuntimeHolder(nil, ""), f.fetcher, markdown.NewSectioner(), domain.TimeoutSettings{})

	_, err := svc.Ingest(context.Background(), widgetsRepo, domain.IngestOptions{})
	assert.ErrorIs(t, err, domain.ErrAuthorization)
	assert.Empty(t, f.fetcher.calls)
}

func TestIngestService_Process(t *testing.T) {
	f := newFixture(t)
	svc := newIngestService(f)

	assert.True(t, svc.Process(context.Background(), widgetsRepo))
	assert.False(t, svc.Process(context.Background(), "not a url"))
}

func TestIngestService_IngestBatch(t *testing.T) {
	f := newFixture(t)
	svc := newIngestService(f)

	urls := []string{
		widgetsRepo,
		"https://example.com/nope",
		"https://github.com/acme/missing",
		widgetsSource,
	}
	results := svc.IngestBatch(context.Background(), urls, domain.IngestOptions{})
	require.Len(t, results, 4)

	for i, u := range urls {
		assert.Equal(t, u, results[i].URL)
	}
	assert.True(t, results[0].Success)
	assert.Equal(t, "Successfully processed "+widgetsRepo, results[0].Message)
	assert.False(t, results[1].Success)
	assert.Contains(t, results[1].Message, domain.ErrInvalidRepoURL.Error())
	assert.False(t, results[2].Success)
	assert.Contains(t, results[2].Message, domain.ErrFetch.Error())
	assert.True(t, results[3].Success)

	assert.Equal(t, 4, f.count(t))
}
