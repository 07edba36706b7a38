package driven

import "context"

// LexicalIndex provides term-frequency keyword search over chunk text.
// Backed by an in-process BM25 index built from the corpus at startup.
type LexicalIndex interface {
	// Search scores the query against the corpus and returns up to limit
	// chunks with nonzero term overlap, best first. A query matching
	// nothing returns an empty slice, not an error.
	Search(ctx context.Context, query string, limit int) ([]LexicalHit, error)
}

// LexicalHit is one keyword search result.
type LexicalHit struct {
	// ChunkID is the matched chunk.
	ChunkID string

	// Score is the BM25 relevance score.
	Score float64
}

// VectorIndex provides semantic similarity search over precomputed
// chunk embeddings.
type VectorIndex interface {
	// Search finds the k most similar chunks to the query vector.
	// An empty corpus returns an empty slice.
	Search(ctx context.Context, query []float32, k int) ([]VectorHit, error)
}

// VectorHit is one similarity search result.
type VectorHit struct {
	// ChunkID is the matched chunk.
	ChunkID string

	// Similarity is the cosine similarity score.
	Similarity float64
}
