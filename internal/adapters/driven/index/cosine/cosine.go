// Package cosine provides a brute-force vector index over precomputed
// chunk embeddings. Vectors are L2-normalised at build time so the dot
// product equals cosine similarity. Exhaustive scan is fine at this
// corpus scale (a few thousand chunks) and keeps the build cgo-free.
package cosine

import (
	"context"
	"math"
	"sort"

	"github.com/pranavagrawaI/ShakespeareBot/internal/core/domain"
	"github.com/pranavagrawaI/ShakespeareBot/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// Index holds the id-aligned embedding matrix.
type Index struct {
	ids  []string
	vecs [][]float32
}

// New builds the index from chunks that carry embeddings; chunks
// without a vector are skipped.
func New(chunks []domain.Chunk) *Index {
	idx := &Index{}
	for _, chunk := range chunks {
		if len(chunk.Embedding) == 0 {
			continue
		}
		idx.ids = append(idx.ids, chunk.ID)
		idx.vecs = append(idx.vecs, normalise(chunk.Embedding))
	}
	return idx
}

// Search returns the k nearest chunks by cosine similarity, ties broken
// by chunk id. An empty index yields an empty slice, not an error.
func (idx *Index) Search(_ context.Context, query []float32, k int) ([]driven.VectorHit, error) {
	if len(idx.ids) == 0 || len(query) == 0 || k <= 0 {
		return []driven.VectorHit{}, nil
	}

	q := normalise(query)

	hits := make([]driven.VectorHit, 0, len(idx.ids))
	for i, vec := range idx.vecs {
		if len(vec) != len(q) {
			continue // dimension mismatch, embedding model changed
		}
		var dot float64
		for j := range vec {
			dot += float64(vec[j]) * float64(q[j])
		}
		hits = append(hits, driven.VectorHit{ChunkID: idx.ids[i], Similarity: dot})
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Similarity != hits[j].Similarity {
			return hits[i].Similarity > hits[j].Similarity
		}
		return hits[i].ChunkID < hits[j].ChunkID
	})

	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

func normalise(vec []float32) []float32 {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return vec
	}
	inv := 1 / math.Sqrt(sum)
	out := make([]float32, len(vec))
	for i, v := range vec {
		out[i] = float32(float64(v) * inv)
	}
	return out
}
