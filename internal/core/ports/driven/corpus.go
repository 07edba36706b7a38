package driven

import (
	"context"

	"github.com/pranavagrawaI/ShakespeareBot/internal/core/domain"
)

// CorpusStore provides read access to the chunked corpus.
// The store is populated once at index-build time; at query time it is
// read-only and safe for unsynchronized concurrent reads.
type CorpusStore interface {
	// GetChunk returns the chunk with the given id.
	// Returns domain.ErrNotFound if no such chunk exists.
	GetChunk(ctx context.Context, chunkID string) (*domain.Chunk, error)

	// AllChunks returns every chunk in corpus order.
	AllChunks(ctx context.Context) ([]domain.Chunk, error)

	// Count returns the number of chunks in the corpus.
	Count(ctx context.Context) (int, error)

	// Close releases resources.
	Close() error
}

// CorpusWriter is the build-time half of corpus storage. Only the
// index command uses it; the query pipeline never writes.
type CorpusWriter interface {
	// PutChunks inserts or replaces a batch of chunks.
	PutChunks(ctx context.Context, chunks []domain.Chunk) error
}
