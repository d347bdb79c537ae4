// Package mongo provides a vector store adapter backed by MongoDB Atlas
// Vector Search.
//
// Each logical collection maps to a MongoDB collection holding one document
// per README section plus a vectorSearch index over the "vector" field.
// Collection dimensions are tracked in a metadata collection so idempotent
// creation can detect mismatches.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/custodia-labs/docs-agent/internal/core/domain"
	"github.com/custodia-labs/docs-agent/internal/core/ports/driven"
	"github.com/custodia-labs/docs-agent/internal/logger"
)

// Ensure VectorStore implements the interface.
var _ driven.VectorStore = (*VectorStore)(nil)

// Default configuration values.
const (
	DefaultDatabase      = domain.DefaultMongoDatabase
	DefaultIndexName     = "vector_index"
	DefaultTimeout       = 15 * time.Second
	MetadataCollection   = "collections_meta"
	minNumCandidates     = 100
	candidatesPerResult  = 10
	indexAlreadyExistsEC = 68
)

// Config holds configuration for the MongoDB adapter.
type Config struct {
	// URI is the MongoDB connection string (required).
	URI string

	// Database is the database name (default: docs_agent).
	Database string

	// IndexName is the Atlas vector search index (default: vector_index).
	IndexName string

	// Timeout bounds server selection and connection (default: 15s).
	Timeout time.Duration
}

// VectorStore stores README sections in MongoDB.
// It is safe for concurrent use.
type VectorStore struct {
	client    *mongo.Client
	db        *mongo.Database
	indexName string

	mu   sync.RWMutex
	dims map[string]int
}

// recordDocument is the stored shape of a record.
type recordDocument struct {
	ID        string    `bson:"_id"`
	Content   string    `bson:"content"`
	SourceURL string    `bson:"source_url"`
	Title     string    `bson:"title"`
	DocType   string    `bson:"doc_type"`
	Vector    []float32 `bson:"vector,omitempty"`
	Score     float64   `bson:"score,omitempty"`
	CreatedAt time.Time `bson:"created_at,omitempty"`
}

type metaDocument struct {
	Name      string `bson:"_id"`
	Dimension int    `bson:"dimension"`
}

// NewVectorStore connects lazily to MongoDB; no round trip is made
// until the first operation.
func NewVectorStore(cfg Config) (*VectorStore, error) {
	if cfg.URI == "" {
		return nil, fmt.Errorf("mongo: URI is required")
	}
	if cfg.Database == "" {
		cfg.Database = DefaultDatabase
	}
	if cfg.IndexName == "" {
		cfg.IndexName = DefaultIndexName
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	opts := options.Client().
		ApplyURI(cfg.URI).
		SetServerSelectionTimeout(cfg.Timeout).
		SetConnectTimeout(cfg.Timeout)
	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, fmt.Errorf("mongo: connecting: %w", err)
	}

	return &VectorStore{
		client:    client,
		db:        client.Database(cfg.Database),
		indexName: cfg.IndexName,
		dims:      make(map[string]int),
	}, nil
}

// EnsureCollection records the collection dimension and creates its
// vector search index if absent.
func (s *VectorStore) EnsureCollection(ctx context.Context, collection string, dimension int) error {
	if dimension <= 0 {
		return fmt.Errorf("%w: invalid dimension %d", domain.ErrVectorStore, dimension)
	}

	existing, err := s.dimension(ctx, collection)
	switch {
	case err == nil:
		if existing != dimension {
			return fmt.Errorf("%w: collection %q has dimension %d, not %d",
				domain.ErrVectorStore, collection, existing, dimension)
		}
		return nil
	case !errors.Is(err, domain.ErrNotFound):
		return err
	}

	meta := metaDocument{Name: collection, Dimension: dimension}
	if _, err := s.db.Collection(MetadataCollection).InsertOne(ctx, meta); err != nil && !mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: saving collection metadata: %w", domain.ErrVectorStore, err)
	}

	model := mongo.SearchIndexModel{
		Definition: searchIndexDefinition(dimension),
		Options:    options.SearchIndexes().SetName(s.indexName).SetType("vectorSearch"),
	}
	if _, err := s.db.Collection(collection).SearchIndexes().CreateOne(ctx, model); err != nil {
		var se mongo.ServerError
		if !errors.As(err, &se) || !se.HasErrorCode(indexAlreadyExistsEC) {
			return fmt.Errorf("%w: creating search index: %w", domain.ErrVectorStore, err)
		}
	}
	logger.Debug("mongo: created collection %s (dim=%d)", collection, dimension)

	s.mu.Lock()
	s.dims[collection] = dimension
	s.mu.Unlock()
	return nil
}

// Upsert inserts record under a fresh id.
func (s *VectorStore) Upsert(ctx context.Context, collection string, record domain.DocumentRecord) (string, error) {
	dim, err := s.dimension(ctx, collection)
	if err != nil {
		return "", err
	}
	if len(record.Vector) != dim {
		return "", fmt.Errorf("%w: vector has dimension %d, collection %q expects %d",
			domain.ErrVectorStore, len(record.Vector), collection, dim)
	}

	doc := toDocument(record)
	doc.ID = uuid.New().String()
	doc.CreatedAt = time.Now().UTC()
	if _, err := s.db.Collection(collection).InsertOne(ctx, doc); err != nil {
		return "", fmt.Errorf("%w: inserting record: %w", domain.ErrVectorStore, err)
	}
	return doc.ID, nil
}

// Search runs a $vectorSearch aggregation.
func (s *VectorStore) Search(ctx context.Context, collection string, vector []float32, limit int) ([]domain.ScoredRecord, error) {
	if _, err := s.dimension(ctx, collection); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return []domain.ScoredRecord{}, nil
	}

	cursor, err := s.db.Collection(collection).Aggregate(ctx, searchPipeline(s.indexName, vector, limit))
	if err != nil {
		return nil, fmt.Errorf("%w: vector search: %w", domain.ErrVectorStore, err)
	}
	var docs []recordDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("%w: reading results: %w", domain.ErrVectorStore, err)
	}

	results := make([]domain.ScoredRecord, 0, len(docs))
	for _, doc := range docs {
		results = append(results, doc.scored())
	}
	return results, nil
}

// Count returns the number of records in the collection.
func (s *VectorStore) Count(ctx context.Context, collection string) (int, error) {
	if _, err := s.dimension(ctx, collection); err != nil {
		return 0, err
	}
	n, err := s.db.Collection(collection).CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, fmt.Errorf("%w: counting records: %w", domain.ErrVectorStore, err)
	}
	return int(n), nil
}

// DeleteBySource removes every record read from sourceURL.
func (s *VectorStore) DeleteBySource(ctx context.Context, collection, sourceURL string) (int, error) {
	res, err := s.db.Collection(collection).DeleteMany(ctx, bson.D{{Key: "source_url", Value: sourceURL}})
	if err != nil {
		return 0, fmt.Errorf("%w: deleting records: %w", domain.ErrVectorStore, err)
	}
	return int(res.DeletedCount), nil
}

// Close disconnects the client.
func (s *VectorStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// dimension returns the cached or stored dimension of collection.
func (s *VectorStore) dimension(ctx context.Context, collection string) (int, error) {
	s.mu.RLock()
	dim, ok := s.dims[collection]
	s.mu.RUnlock()
	if ok {
		return dim, nil
	}

	var meta metaDocument
	err := s.db.Collection(MetadataCollection).
		FindOne(ctx, bson.D{{Key: "_id", Value: collection}}).
		Decode(&meta)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, fmt.Errorf("%w: %w: collection %q", domain.ErrVectorStore, domain.ErrNotFound, collection)
	}
	if err != nil {
		return 0, fmt.Errorf("%w: reading collection metadata: %w", domain.ErrVectorStore, err)
	}

	s.mu.Lock()
	s.dims[collection] = meta.Dimension
	s.mu.Unlock()
	return meta.Dimension, nil
}

func searchIndexDefinition(dimension int) bson.D {
	return bson.D{{Key: "fields", Value: bson.A{
		bson.D{
			{Key: "type", Value: "vector"},
			{Key: "path", Value: "vector"},
			{Key: "numDimensions", Value: dimension},
			{Key: "similarity", Value: "cosine"},
		},
		bson.D{
			{Key: "type", Value: "filter"},
			{Key: "path", Value: "source_url"},
		},
	}}}
}

func searchPipeline(indexName string, vector []float32, limit int) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$vectorSearch", Value: bson.D{
			{Key: "index", Value: indexName},
			{Key: "path", Value: "vector"},
			{Key: "queryVector", Value: vector},
			{Key: "numCandidates", Value: max(minNumCandidates, limit*candidatesPerResult)},
			{Key: "limit", Value: limit},
		}}},
		{{Key: "$project", Value: bson.D{
			{Key: "content", Value: 1},
			{Key: "source_url", Value: 1},
			{Key: "title", Value: 1},
			{Key: "doc_type", Value: 1},
			{Key: "score", Value: bson.D{{Key: "$meta", Value: "vectorSearchScore"}}},
		}}},
	}
}

func toDocument(record domain.DocumentRecord) recordDocument {
	return recordDocument{
		ID:        record.ID,
		Content:   record.Content,
		SourceURL: record.Metadata.SourceURL,
		Title:     record.Metadata.Title,
		DocType:   record.Metadata.DocType,
		Vector:    record.Vector,
	}
}

func (d recordDocument) scored() domain.ScoredRecord {
	return domain.ScoredRecord{
		ID:      d.ID,
		Content: d.Content,
		Metadata: domain.RecordMetadata{
			SourceURL: d.SourceURL,
			Title:     d.Title,
			DocType:   d.DocType,
		},
		Score: d.Score,
	}
}
