// Package qdrant provides a vector store adapter for the Qdrant REST API.
package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/docs-agent/internal/core/domain"
	"github.com/custodia-labs/docs-agent/internal/core/ports/driven"
)

// Ensure VectorStore implements the interface.
var _ driven.VectorStore = (*VectorStore)(nil)

// Default configuration values.
const (
	DefaultURL     = domain.DefaultQdrantURL
	DefaultTimeout = 15 * time.Second
)

// Payload keys stored on every point.
const (
	payloadContent   = "content"
	payloadSourceURL = "source_url"
	payloadTitle     = "title"
	payloadDocType   = "doc_type"
)

// errCollectionMissing marks a 404 from a collection endpoint.
var errCollectionMissing = errors.New("collection does not exist")

// Config holds configuration for the Qdrant adapter.
type Config struct {
	// URL is the Qdrant REST endpoint (default: http://localhost:6333).
	URL string

	// APIKey is sent as the api-key header when set.
	APIKey string

	// Timeout is the per-request timeout (default: 15s).
	Timeout time.Duration

	// HTTPClient overrides the client built from Timeout.
	HTTPClient *http.Client
}

// VectorStore stores README sections as Qdrant points with cosine distance.
// It is safe for concurrent use.
type VectorStore struct {
	client *http.Client
	url    string
	apiKey string
}

type point struct {
	ID      string         `json:"id"`
	Vector  []float32      `json:"vector"`
	Payload map[string]any `json:"payload"`
}

type scoredPoint struct {
	ID      any            `json:"id"`
	Score   float64        `json:"score"`
	Payload map[string]any `json:"payload"`
}

type fieldMatch struct {
	Key   string `json:"key"`
	Match struct {
		Value string `json:"value"`
	} `json:"match"`
}

type filter struct {
	Must []fieldMatch `json:"must"`
}

// NewVectorStore creates a new Qdrant vector store.
func NewVectorStore(cfg Config) (*VectorStore, error) {
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if _, err := url.ParseRequestURI(cfg.URL); err != nil {
		return nil, fmt.Errorf("qdrant: invalid URL %q: %w", cfg.URL, err)
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}

	return &VectorStore{
		client: client,
		url:    strings.TrimSuffix(cfg.URL, "/"),
		apiKey: cfg.APIKey,
	}, nil
}

// EnsureCollection creates the collection unless it already exists.
func (s *VectorStore) EnsureCollection(ctx context.Context, collection string, dimension int) error {
	if dimension <= 0 {
		return fmt.Errorf("%w: invalid dimension %d", domain.ErrVectorStore, dimension)
	}

	err := s.do(ctx, http.MethodGet, s.collectionPath(collection), nil, nil)
	if err == nil {
		return nil
	}
	if !errors.Is(err, errCollectionMissing) {
		return fmt.Errorf("%w: checking collection: %w", domain.ErrVectorStore, err)
	}

	body := map[string]any{
		"vectors": map[string]any{
			"size":     dimension,
			"distance": "Cosine",
		},
	}
	if err := s.do(ctx, http.MethodPut, s.collectionPath(collection), body, nil); err != nil {
		return fmt.Errorf("%w: creating collection: %w", domain.ErrVectorStore, err)
	}
	return nil
}

// Upsert writes one point and waits for it to be indexed.
func (s *VectorStore) Upsert(ctx context.Context, collection string, record domain.DocumentRecord) (string, error) {
	id := uuid.New().String()
	body := map[string]any{
		"points": []point{{
			ID:     id,
			Vector: record.Vector,
			Payload: map[string]any{
				payloadContent:   record.Content,
				payloadSourceURL: record.Metadata.SourceURL,
				payloadTitle:     record.Metadata.Title,
				payloadDocType:   record.Metadata.DocType,
			},
		}},
	}
	if err := s.do(ctx, http.MethodPut, s.collectionPath(collection)+"/points?wait=true", body, nil); err != nil {
		return "", s.wrap("upserting point", err)
	}
	return id, nil
}

// Search runs a nearest-neighbour query with payloads.
func (s *VectorStore) Search(ctx context.Context, collection string, vector []float32, limit int) ([]domain.ScoredRecord, error) {
	if limit <= 0 {
		return []domain.ScoredRecord{}, nil
	}

	body := map[string]any{
		"vector":       vector,
		"limit":        limit,
		"with_payload": true,
	}
	var resp struct {
		Result []scoredPoint `json:"result"`
	}
	if err := s.do(ctx, http.MethodPost, s.collectionPath(collection)+"/points/search", body, &resp); err != nil {
		return nil, s.wrap("searching", err)
	}

	results := make([]domain.ScoredRecord, 0, len(resp.Result))
	for _, p := range resp.Result {
		results = append(results, domain.ScoredRecord{
			ID:      fmt.Sprint(p.ID),
			Content: payloadString(p.Payload, payloadContent),
			Metadata: domain.RecordMetadata{
				SourceURL: payloadString(p.Payload, payloadSourceURL),
				Title:     payloadString(p.Payload, payloadTitle),
				DocType:   payloadString(p.Payload, payloadDocType),
			},
			Score: p.Score,
		})
	}
	return results, nil
}

// Count returns the exact number of points in the collection.
func (s *VectorStore) Count(ctx context.Context, collection string) (int, error) {
	var resp struct {
		Result struct {
			Count int `json:"count"`
		} `json:"result"`
	}
	body := map[string]any{"exact": true}
	if err := s.do(ctx, http.MethodPost, s.collectionPath(collection)+"/points/count", body, &resp); err != nil {
		return 0, s.wrap("counting points", err)
	}
	return resp.Result.Count, nil
}

// DeleteBySource deletes points whose source_url payload matches.
// Qdrant does not report deletions, so the count is taken before and after.
func (s *VectorStore) DeleteBySource(ctx context.Context, collection, sourceURL string) (int, error) {
	before, err := s.Count(ctx, collection)
	if err != nil {
		return 0, err
	}

	match := fieldMatch{Key: payloadSourceURL}
	match.Match.Value = sourceURL
	body := map[string]any{"filter": filter{Must: []fieldMatch{match}}}
	if err := s.do(ctx, http.MethodPost, s.collectionPath(collection)+"/points/delete?wait=true", body, nil); err != nil {
		return 0, s.wrap("deleting points", err)
	}

	after, err := s.Count(ctx, collection)
	if err != nil {
		return 0, err
	}
	return max(before-after, 0), nil
}

// Close releases idle connections.
func (s *VectorStore) Close() error {
	s.client.CloseIdleConnections()
	return nil
}

func (s *VectorStore) collectionPath(collection string) string {
	return s.url + "/collections/" + url.PathEscape(collection)
}

func (s *VectorStore) wrap(op string, err error) error {
	if errors.Is(err, errCollectionMissing) {
		return fmt.Errorf("%w: %s: %w", domain.ErrVectorStore, op, domain.ErrNotFound)
	}
	return fmt.Errorf("%w: %s: %w", domain.ErrVectorStore, op, err)
}

// do sends a JSON request and decodes the response into out when non-nil.
func (s *VectorStore) do(ctx context.Context, method, endpoint string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshalling request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return errCollectionMissing
	}
	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s %s failed: %s: %s", method, endpoint, resp.Status, strings.TrimSpace(string(msg)))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

func payloadString(payload map[string]any, key string) string {
	s, _ := payload[key].(string)
	return s
}
