package driven

import "context"

// EmbeddingService generates vector embeddings for text.
// Implementations must be safe for concurrent use.
type EmbeddingService interface {
	// Embed generates an embedding for a single text.
	// Failures wrap domain.ErrEmbedding.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts, in input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector size.
	Dimensions() int

	// ModelName returns the model in use.
	ModelName() string

	// Ping checks the provider is reachable and the credential is accepted.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
