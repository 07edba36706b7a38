package domain

// ScoredCandidate tracks a chunk as it moves through the retrieval
// pipeline. Each stage fills in or overwrites one score field.
// Candidates are owned by a single query invocation and never shared.
type ScoredCandidate struct {
	// ChunkID identifies the candidate chunk.
	ChunkID string

	// Lexical is the raw BM25 score; zero when the lexical
	// retriever did not surface this chunk.
	Lexical float64

	// Semantic is the raw cosine similarity; zero when the semantic
	// retriever did not surface this chunk.
	Semantic float64

	// Fused is the weighted combination of the normalised lexical
	// and semantic scores, plus any exact-phrase boost.
	Fused float64

	// Rerank is the cross-encoder relevance score. When the reranker
	// is unavailable this mirrors Fused (degraded mode).
	Rerank float64
}

// Evidence is one selected passage, tagged with the source id the
// generator is instructed to cite ("S1", "S2", ...).
type Evidence struct {
	// SID is the positional source tag, assigned after diversity
	// selection: the first selected chunk is "S1".
	SID string

	// Chunk is the full passage record.
	Chunk Chunk

	// Score is the relevance score that selected this passage
	// (rerank score, or fused score in degraded mode).
	Score float64
}

// EvidenceSet is the ordered sequence of passages selected to ground
// one answer. Immutable once produced; at most Query.K members.
type EvidenceSet []Evidence

// BySID returns the evidence with the given source tag, or nil.
func (es EvidenceSet) BySID(sid string) *Evidence {
	for i := range es {
		if es[i].SID == sid {
			return &es[i]
		}
	}
	return nil
}

// ContainsChunk reports whether a chunk id is a member of the set.
func (es EvidenceSet) ContainsChunk(chunkID string) bool {
	for i := range es {
		if es[i].Chunk.ID == chunkID {
			return true
		}
	}
	return false
}

// ChunkIDs returns the member chunk ids in selection order.
func (es EvidenceSet) ChunkIDs() []string {
	ids := make([]string, len(es))
	for i := range es {
		ids[i] = es[i].Chunk.ID
	}
	return ids
}
