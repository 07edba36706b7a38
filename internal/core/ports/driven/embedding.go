package driven

import "context"

// EmbeddingService generates vector embeddings from text.
// Query-time embeddings must live in the same space as the precomputed
// chunk embeddings. This is an optional service - when nil, semantic
// retrieval is disabled and the pipeline degrades to lexical-only.
//
// Implementations may include:
//   - OpenAI (text-embedding-3-small, text-embedding-3-large)
//   - Local inference servers exposing a compatible API
type EmbeddingService interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts efficiently.
	// Used at index-build time to embed the whole corpus.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector size (e.g., 384, 1536).
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Ping validates the service is reachable.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
