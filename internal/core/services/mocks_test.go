package services

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"strings"
	"sync"
	"testing"

	"github.com/custodia-labs/docs-agent/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/docs-agent/internal/core/domain"
	"github.com/custodia-labs/docs-agent/internal/core/ports/driven"
)

// --- Mock implementations ---

const mockDimensions = 16

// mockFetcher serves bodies keyed by raw URL.
type mockFetcher struct {
	mu     sync.Mutex
	bodies map[string]string
	err    error
	calls  []string
}

func (m *mockFetcher) Fetch(_ context.Context, rawURL string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, rawURL)
	if m.err != nil {
		return nil, m.err
	}
	body, ok := m.bodies[rawURL]
	if !ok {
		return nil, fmt.Errorf("%w: GET %s: status 404", domain.ErrFetch, rawURL)
	}
	return []byte(body), nil
}

// mockEmbedder hashes words into a fixed-size bag-of-words vector, so
// texts sharing words score higher than unrelated ones.
type mockEmbedder struct {
	mu     sync.Mutex
	err    error
	failOn  string
	calls   int
	batches int
	closed  bool
}

func (m *mockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	if m.failOn != "" && strings.Contains(text, m.failOn) {
		return nil, fmt.Errorf("%w: status 500", domain.ErrEmbedding)
	}

	vec := make([]float32, mockDimensions)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(strings.Trim(word, ".,?!")))
		vec[h.Sum32()%mockDimensions]++
	}
	vec[0] += 0.01
	return vec, nil
}

func (m *mockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	m.batches++
	m.mu.Unlock()

	out := make([][]float32, 0, len(texts))
	for _, t := range texts {
		v, err := m.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (m *mockEmbedder) Dimensions() int              { return mockDimensions }
func (m *mockEmbedder) ModelName() string            { return "mock-embed" }
func (m *mockEmbedder) Ping(_ context.Context) error { return nil }

func (m *mockEmbedder) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *mockEmbedder) batchCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.batches
}

func (m *mockEmbedder) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// mockGenerator echoes its grounding context back as the reference
// trail. With searchQuery set it calls the search tool once first.
type mockGenerator struct {
	mu          sync.Mutex
	err         error
	block       bool
	searchQuery string
	noRefs      bool
	requests    []driven.GenerateRequest
	calls       int
}

func (m *mockGenerator) Generate(ctx context.Context, req driven.GenerateRequest) (*driven.Generation, error) {
	m.mu.Lock()
	m.calls++
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	if m.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if m.err != nil {
		return nil, m.err
	}

	refs := append([]domain.Reference{}, req.Context...)
	if m.searchQuery != "" && req.Tools.HasSearch() && req.MaxToolRounds > 0 {
		found, err := req.Tools.Search(ctx, m.searchQuery, 2)
		if err != nil {
			return nil, err
		}
		refs = append(refs, found...)
	}
	if m.noRefs {
		refs = nil
	}

	return &driven.Generation{
		Content:    "Widgets is a tool.",
		References: refs,
		Model:      "mock-model",
		RunID:      "run-1",
	}, nil
}

func (m *mockGenerator) ModelName() string            { return "mock-model" }
func (m *mockGenerator) Ping(_ context.Context) error { return nil }
func (m *mockGenerator) Close() error                 { return nil }

func (m *mockGenerator) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *mockGenerator) lastRequest() driven.GenerateRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.requests[len(m.requests)-1]
}

// mockPrompts serves fixed prompts.
type mockPrompts struct {
	err error
}

func (m *mockPrompts) Load(name string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	switch name {
	case driven.PromptAnswerSystem:
		return "You are a documentation assistant.", nil
	case driven.PromptAnswerInstructions:
		return "Cite sources.\n\n  Use markdown.  \n", nil
	default:
		return "", errors.New("unknown prompt")
	}
}

func (m *mockPrompts) Reload() {}

// failingStore wraps a vector store and fails selected operations.
type failingStore struct {
	driven.VectorStore
	upsertErr error
	searchErr error
	upserts   int
	failAfter int
}

func (f *failingStore) Upsert(ctx context.Context, collection string, record domain.DocumentRecord) (string, error) {
	f.upserts++
	if f.upsertErr != nil && f.upserts > f.failAfter {
		return "", f.upsertErr
	}
	return f.VectorStore.Upsert(ctx, collection, record)
}

func (f *failingStore) Search(ctx context.Context, collection string, vector []float32, limit int) ([]domain.ScoredRecord, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.VectorStore.Search(ctx, collection, vector, limit)
}

// --- Fixtures ---

const (
	widgetsRepo   = "https://github.com/acme/widgets"
	widgetsRaw    = "https://raw.githubusercontent.com/acme/widgets/main/README.md"
	widgetsSource = "https://github.com/acme/widgets/blob/main/README.md"
	widgetsReadme = "# Widgets\nA tool.\n## Install\npip install widgets"
	testKey       = "sk-test"
)

// fixture wires services against in-memory adapters.
type fixture struct {
	fetcher   *mockFetcher
	embedder  *mockEmbedder
	generator *mockGenerator
	store     *memory.VectorStore
	runtime   *driven.Runtime
	holder    *RuntimeHolder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		fetcher:   &mockFetcher{bodies: map[string]string{widgetsRaw: widgetsReadme}},
		embedder:  &mockEmbedder{},
		generator: &mockGenerator{},
		store:     memory.NewVectorStore(),
	}
	f.runtime = &driven.Runtime{
		Embedder:    f.embedder,
		Generator:   f.generator,
		VectorStore: f.store,
		Collection:  domain.DefaultCollection,
	}
	f.holder = NewRuntimeHolder(f.runtime, testKey)
	return f
}

func (f *fixture) count(t *testing.T) int {
	t.Helper()
	n, err := f.store.Count(context.Background(), domain.DefaultCollection)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}
