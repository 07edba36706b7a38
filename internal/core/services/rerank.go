package services

import (
	"context"
	"sort"

	"github.com/pranavagrawaI/ShakespeareBot/internal/core/domain"
	"github.com/pranavagrawaI/ShakespeareBot/internal/core/ports/driven"
	"github.com/pranavagrawaI/ShakespeareBot/internal/logger"
)

// rerank sends the top fused candidates to the cross-encoder and
// reorders them by its pairwise score. The reranker is expected to
// disagree with the fused order; its order is authoritative downstream.
//
// If the reranker is nil, errors, or exceeds its timeout, the fused
// order is kept unchanged with Rerank mirroring Fused (degraded mode,
// not a fatal error).
func (s *AskService) rerank(ctx context.Context, query string, candidates []domain.ScoredCandidate) []domain.ScoredCandidate {
	out := make([]domain.ScoredCandidate, len(candidates))
	copy(out, candidates)

	// Degraded path keeps fused scores authoritative.
	fallback := func() []domain.ScoredCandidate {
		for i := range out {
			out[i].Rerank = out[i].Fused
		}
		return out
	}

	if s.reranker == nil {
		logger.Debug("Reranker not configured, keeping fused order")
		return fallback()
	}

	depth := s.cfg.Rerank.Depth
	if depth > len(out) {
		depth = len(out)
	}

	head := make([]driven.RerankCandidate, 0, depth)
	for _, c := range out[:depth] {
		chunk := s.chunkByID(c.ChunkID)
		if chunk == nil {
			continue
		}
		head = append(head, driven.RerankCandidate{ChunkID: c.ChunkID, Text: chunk.Text})
	}

	rctx, cancel := context.WithTimeout(ctx, s.cfg.Rerank.Timeout)
	defer cancel()

	scores, err := s.reranker.Rerank(rctx, query, head)
	if err != nil {
		logger.Warn("Reranker failed, falling back to fused order: %v", err)
		return fallback()
	}
	logger.Debug("Reranked %d candidates with %s", len(scores), s.reranker.ModelName())

	byID := make(map[string]float64, len(scores))
	for _, sc := range scores {
		byID[sc.ChunkID] = sc.Score
	}

	for i := range out {
		if i < depth {
			if score, ok := byID[out[i].ChunkID]; ok {
				out[i].Rerank = score
				continue
			}
		}
		// Beyond the rerank depth (or missing from the response) the
		// fused score stands in so downstream ordering stays total.
		out[i].Rerank = out[i].Fused
	}

	reranked := out[:depth]
	sort.SliceStable(reranked, func(i, j int) bool {
		if reranked[i].Rerank != reranked[j].Rerank {
			return reranked[i].Rerank > reranked[j].Rerank
		}
		return reranked[i].ChunkID < reranked[j].ChunkID
	})

	return out
}
