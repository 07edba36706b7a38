package services

import (
	"fmt"
	"strings"

	"github.com/pranavagrawaI/ShakespeareBot/internal/core/domain"
	"github.com/pranavagrawaI/ShakespeareBot/internal/logger"
)

// selectEvidence greedily picks the final evidence set from the
// reranked candidates using maximal marginal relevance:
//
//	argmax( relevance - lambda * maxSimilarityToSelected )
//
// Similarity is computed over chunk embeddings when present, token
// Jaccard overlap otherwise. A per-scene cap prevents one scene from
// dominating the set regardless of lambda. Ties break by relevance
// then chunk id, so selection is reproducible bit-for-bit.
//
// Callers must pass candidates whose Rerank scores share one scale;
// Ask passes only the reranked head.
func (s *AskService) selectEvidence(candidates []domain.ScoredCandidate, k int) domain.EvidenceSet {
	if k <= 0 || len(candidates) == 0 {
		return domain.EvidenceSet{}
	}

	lambda := s.cfg.Diversity.Lambda
	maxPerScene := s.cfg.Diversity.MaxPerScene

	pool := make([]pick, 0, len(candidates))
	for _, c := range candidates {
		if chunk := s.chunkByID(c.ChunkID); chunk != nil {
			pool = append(pool, pick{cand: c, chunk: chunk})
		}
	}

	selected := make([]pick, 0, k)
	sceneCounts := make(map[string]int)

	for len(selected) < k && len(pool) > 0 {
		bestIdx := -1
		var bestMMR float64

		for i, p := range pool {
			if sceneCounts[p.chunk.SceneKey()] >= maxPerScene {
				continue
			}

			mmr := p.cand.Rerank
			if lambda > 0 && len(selected) > 0 {
				maxSim := 0.0
				for _, sel := range selected {
					if sim := chunkSimilarity(p.chunk, sel.chunk); sim > maxSim {
						maxSim = sim
					}
				}
				mmr -= lambda * maxSim
			}

			if bestIdx < 0 || mmr > bestMMR ||
				(mmr == bestMMR && betterTie(p, pool[bestIdx])) {
				bestIdx = i
				bestMMR = mmr
			}
		}

		if bestIdx < 0 {
			break // everything left is scene-capped
		}

		chosen := pool[bestIdx]
		selected = append(selected, chosen)
		sceneCounts[chosen.chunk.SceneKey()]++
		pool = append(pool[:bestIdx], pool[bestIdx+1:]...)
	}

	evidence := make(domain.EvidenceSet, len(selected))
	for i, p := range selected {
		evidence[i] = domain.Evidence{
			SID:   fmt.Sprintf("S%d", i+1),
			Chunk: *p.chunk,
			Score: p.cand.Rerank,
		}
	}

	logger.Debug("Diversity filter: selected %d/%d (lambda=%.2f)", len(evidence), len(candidates), lambda)
	return evidence
}

// pick pairs a candidate with its resolved chunk during selection.
type pick struct {
	cand  domain.ScoredCandidate
	chunk *domain.Chunk
}

// betterTie orders equal-MMR picks by relevance then chunk id.
func betterTie(a, b pick) bool {
	if a.cand.Rerank != b.cand.Rerank {
		return a.cand.Rerank > b.cand.Rerank
	}
	return a.cand.ChunkID < b.cand.ChunkID
}

// chunkSimilarity measures redundancy between two chunks. Embedding
// dot product when both vectors exist (they are L2-normalised, so this
// is cosine similarity); token Jaccard overlap as the fallback.
func chunkSimilarity(a, b *domain.Chunk) float64 {
	if len(a.Embedding) > 0 && len(a.Embedding) == len(b.Embedding) {
		var dot float64
		for i := range a.Embedding {
			dot += float64(a.Embedding[i]) * float64(b.Embedding[i])
		}
		return dot
	}
	return tokenJaccard(a.Text, b.Text)
}

// tokenJaccard is |A∩B| / |A∪B| over lowercased word sets.
func tokenJaccard(a, b string) float64 {
	setA := tokenSet(a)
	setB := tokenSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}

	intersect := 0
	for tok := range setA {
		if setB[tok] {
			intersect++
		}
	}
	union := len(setA) + len(setB) - intersect
	return float64(intersect) / float64(union)
}

func tokenSet(text string) map[string]bool {
	out := make(map[string]bool)
	for _, tok := range strings.Fields(stripPunct(text)) {
		out[tok] = true
	}
	return out
}
