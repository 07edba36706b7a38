package driven

import "context"

// Reranker scores (query, passage) pairs jointly with a cross-encoder
// model. More precise than the independent retrieval scores, and its
// order is authoritative downstream. This is an optional service - on
// failure or timeout the pipeline falls back to the fused order.
type Reranker interface {
	// Rerank scores each candidate against the query and returns one
	// score per candidate, aligned by index with the input.
	Rerank(ctx context.Context, query string, candidates []RerankCandidate) ([]RerankScore, error)

	// ModelName returns the model identifier for logging.
	ModelName() string
}

// RerankCandidate is one passage to be scored against the query.
type RerankCandidate struct {
	// ChunkID identifies the chunk (used to map results back).
	ChunkID string

	// Text is the passage text scored against the query.
	Text string
}

// RerankScore is the cross-encoder relevance for one candidate.
type RerankScore struct {
	// ChunkID matches the candidate.
	ChunkID string

	// Score is the pairwise relevance, higher is better.
	Score float64
}
