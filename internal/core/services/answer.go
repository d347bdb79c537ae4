package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/custodia-labs/docs-agent/internal/core/domain"
	"github.com/custodia-labs/docs-agent/internal/core/ports/driven"
	"github.com/custodia-labs/docs-agent/internal/core/ports/driving"
	"github.com/custodia-labs/docs-agent/internal/logger"
)

// Ensure AnswerService implements the interface.
var _ driving.AnswerService = (*AnswerService)(nil)

// AnswerService answers questions from ingested documentation.
type AnswerService struct {
	runtime   *RuntimeHolder
	prompts   driven.PromptStore
	retrieval domain.RetrievalSettings
	timeouts  domain.TimeoutSettings
}

// NewAnswerService creates a new answer service.
func NewAnswerService(
	runtime *RuntimeHolder,
	prompts driven.PromptStore,
	retrieval domain.RetrievalSettings,
	timeouts domain.TimeoutSettings,
) *AnswerService {
	if retrieval.TopK <= 0 {
		retrieval.TopK = domain.DefaultTopK
	}
	if retrieval.MaxToolRounds < 0 {
		retrieval.MaxToolRounds = 0
	}
	return &AnswerService{
		runtime:   runtime,
		prompts:   prompts,
		retrieval: retrieval,
		timeouts:  timeouts,
	}
}

// query tracks one question through its stages.
type query struct {
	question string
	stage    domain.QueryStage
}

func (q *query) advance(stage domain.QueryStage) {
	logger.Debug("Stage: %s -> %s", q.stage, stage)
	q.stage = stage
}

// Answer embeds the question, retrieves the closest sections and asks the
// generator for a cited answer. Failures are returned inside the result.
func (s *AnswerService) Answer(ctx context.Context, question string) domain.QueryResult {
	logger.Section("Answer")
	logger.Debug("Question: %q", question)

	q := &query{question: strings.TrimSpace(question), stage: domain.QueryStageReceived}

	result, err := s.answer(ctx, q)
	if err != nil {
		failed := q.stage
		q.advance(domain.QueryStageErroring)
		logger.Error("query failed while %s: %v", failed, err)
		result = domain.NewErrorResult(failed, err)
	}

	q.advance(domain.QueryStageResponded)
	return result
}

func (s *AnswerService) answer(ctx context.Context, q *query) (domain.QueryResult, error) {
	if q.question == "" {
		return domain.QueryResult{}, fmt.Errorf("%w: question is required", domain.ErrInvalidInput)
	}

	rt, release, err := s.runtime.Acquire(ctx)
	if err != nil {
		return domain.QueryResult{}, err
	}
	defer release()

	q.advance(domain.QueryStageEmbedding)
	vector, err := s.embed(ctx, rt.Embedder, q.question)
	if err != nil {
		return domain.QueryResult{}, err
	}

	q.advance(domain.QueryStageRetrieving)
	hits, err := s.search(ctx, rt, vector, s.retrieval.TopK)
	if err != nil {
		return domain.QueryResult{}, err
	}
	logger.Debug("Retrieved %d records", len(hits))

	req, err := s.request(rt, q.question, hits)
	if err != nil {
		return domain.QueryResult{}, err
	}

	q.advance(domain.QueryStageGenerating)
	gen, err := s.generate(ctx, rt.Generator, req)
	if err != nil {
		return domain.QueryResult{}, err
	}

	q.advance(domain.QueryStageCiting)
	sources := make([]domain.Source, 0, len(gen.References))
	for _, ref := range gen.References {
		sources = append(sources, ref.Source())
	}

	model := gen.Model
	if model == "" {
		model = rt.Generator.ModelName()
	}

	return domain.QueryResult{
		Status:  domain.QueryStatusSuccess,
		Answer:  gen.Content,
		Sources: sources,
		Metadata: domain.QueryMetadata{
			Model: model,
			RunID: gen.RunID,
		},
	}, nil
}

// Search returns the records closest to query.
func (s *AnswerService) Search(ctx context.Context, query string, limit int) ([]domain.ScoredRecord, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []domain.ScoredRecord{}, nil
	}
	if limit <= 0 {
		limit = s.retrieval.TopK
	}

	rt, release, err := s.runtime.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	vector, err := s.embed(ctx, rt.Embedder, query)
	if err != nil {
		return nil, err
	}
	return s.search(ctx, rt, vector, limit)
}

// request assembles the generation input from the stored prompts.
func (s *AnswerService) request(rt *driven.Runtime, question string, hits []domain.ScoredRecord) (driven.GenerateRequest, error) {
	system, err := s.prompts.Load(driven.PromptAnswerSystem)
	if err != nil {
		return driven.GenerateRequest{}, fmt.Errorf("loading system prompt: %w", err)
	}
	instructions, err := s.prompts.Load(driven.PromptAnswerInstructions)
	if err != nil {
		return driven.GenerateRequest{}, fmt.Errorf("loading instructions: %w", err)
	}

	refs := make([]domain.Reference, 0, len(hits))
	for _, hit := range hits {
		refs = append(refs, hit.Reference())
	}

	req := driven.GenerateRequest{
		System:        strings.TrimSpace(system),
		Instructions:  splitLines(instructions),
		Context:       refs,
		Question:      question,
		MaxToolRounds: s.retrieval.MaxToolRounds,
	}
	if s.retrieval.MaxToolRounds > 0 {
		req.Tools = driven.Tools{Search: s.searchTool(rt)}
	}
	return req, nil
}

// searchTool lets the generator query the knowledge base mid-answer.
func (s *AnswerService) searchTool(rt *driven.Runtime) driven.SearchFunc {
	return func(ctx context.Context, query string, limit int) ([]domain.Reference, error) {
		logger.Debug("Tool search: %q (limit %d)", query, limit)
		if limit <= 0 {
			limit = s.retrieval.TopK
		}

		vector, err := s.embed(ctx, rt.Embedder, query)
		if err != nil {
			return nil, err
		}
		hits, err := s.search(ctx, rt, vector, limit)
		if err != nil {
			return nil, err
		}

		refs := make([]domain.Reference, 0, len(hits))
		for _, hit := range hits {
			refs = append(refs, hit.Reference())
		}
		return refs, nil
	}
}

func (s *AnswerService) embed(ctx context.Context, embedder driven.EmbeddingService, text string) ([]float32, error) {
	ctx, cancel := withTimeout(ctx, s.timeouts.Embed)
	defer cancel()

	vector, err := embedder.Embed(ctx, text)
	if err != nil {
		if !errors.Is(err, domain.ErrEmbedding) {
			err = fmt.Errorf("%w: %w", domain.ErrEmbedding, err)
		}
		return nil, err
	}
	return vector, nil
}

// search treats a collection that does not exist yet as empty.
func (s *AnswerService) search(
	ctx context.Context, rt *driven.Runtime, vector []float32, limit int,
) ([]domain.ScoredRecord, error) {
	ctx, cancel := withTimeout(ctx, s.timeouts.Search)
	defer cancel()

	hits, err := rt.VectorStore.Search(ctx, rt.Collection, vector, limit)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		logger.Debug("Collection %q does not exist yet", rt.Collection)
		return []domain.ScoredRecord{}, nil
	case err != nil:
		if !errors.Is(err, domain.ErrVectorStore) {
			err = fmt.Errorf("%w: %w", domain.ErrVectorStore, err)
		}
		return nil, err
	}
	return hits, nil
}

func (s *AnswerService) generate(
	ctx context.Context, generator driven.Generator, req driven.GenerateRequest,
) (*driven.Generation, error) {
	ctx, cancel := withTimeout(ctx, s.timeouts.Generate)
	defer cancel()

	gen, err := generator.Generate(ctx, req)
	switch {
	case err == nil:
		return gen, nil
	case errors.Is(err, domain.ErrGeneration):
		return nil, err
	case errors.Is(err, context.DeadlineExceeded):
		return nil, fmt.Errorf("%w: %w", domain.ErrGenerationTimeout, err)
	default:
		return nil, fmt.Errorf("%w: %w", domain.ErrGeneration, err)
	}
}

// splitLines returns the non-blank lines of text, trimmed.
func splitLines(text string) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
