package services

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/pranavagrawaI/ShakespeareBot/internal/core/domain"
	"github.com/pranavagrawaI/ShakespeareBot/internal/logger"
)

// retrieve runs lexical and semantic retrieval concurrently, fuses the
// two rankings, and applies the exact-phrase boost. The result is
// ordered by fused score descending.
func (s *AskService) retrieve(ctx context.Context, q domain.Query) []domain.ScoredCandidate {
	var lexScores, semScores map[string]float64

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		lexScores = s.lexicalSearch(ctx, q.Text)
	}()

	go func() {
		defer wg.Done()
		semScores = s.semanticSearch(ctx, q.Text)
	}()

	wg.Wait()

	return s.fuse(q, lexScores, semScores)
}

// lexicalSearch returns raw BM25 scores keyed by chunk id.
func (s *AskService) lexicalSearch(ctx context.Context, query string) map[string]float64 {
	hits, err := s.lexical.Search(ctx, query, s.cfg.Retrieval.LexicalDepth)
	if err != nil {
		logger.Warn("Lexical search failed: %v", err)
		return nil
	}
	logger.Debug("Lexical search: %d hits", len(hits))

	scores := make(map[string]float64, len(hits))
	for _, h := range hits {
		scores[h.ChunkID] = h.Score
	}
	return scores
}

// semanticSearch embeds the query and returns raw cosine similarities
// keyed by chunk id. Embedding or index failures degrade to an empty
// result rather than failing the query.
func (s *AskService) semanticSearch(ctx context.Context, query string) map[string]float64 {
	if s.vectors == nil || s.embedder == nil {
		logger.Debug("Semantic search disabled (no vector index or embedder)")
		return nil
	}

	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		logger.Warn("Query embedding failed, degrading to lexical-only: %v", err)
		return nil
	}

	hits, err := s.vectors.Search(ctx, vec, s.cfg.Retrieval.SemanticDepth)
	if err != nil {
		logger.Warn("Vector search failed, degrading to lexical-only: %v", err)
		return nil
	}
	logger.Debug("Semantic search: %d hits", len(hits))

	scores := make(map[string]float64, len(hits))
	for _, h := range hits {
		scores[h.ChunkID] = h.Similarity
	}
	return scores
}

// fuse produces one ranking over the union of the two candidate sets.
//
// Scores are filled with 0 for the missing component, min-max normalised
// over the candidate union, and combined with the configured weights.
// Chunks containing an exact phrase match receive an additional boost;
// that scan covers the whole (play-filtered) corpus, since a quote made
// of stopwords may not surface in either retriever's top candidates.
func (s *AskService) fuse(q domain.Query, lexScores, semScores map[string]float64) []domain.ScoredCandidate {
	inPlay := playMatcher(q.PlayFilter)

	union := make(map[string]bool, len(lexScores)+len(semScores))
	for id := range lexScores {
		union[id] = true
	}
	for id := range semScores {
		union[id] = true
	}

	// The play filter excludes candidates before fusion, not after.
	for id := range union {
		chunk := s.chunkByID(id)
		if chunk == nil || !inPlay(chunk) {
			delete(union, id)
		}
	}

	lexFilled := make(map[string]float64, len(union))
	semFilled := make(map[string]float64, len(union))
	for id := range union {
		lexFilled[id] = lexScores[id]
		semFilled[id] = semScores[id]
	}

	lexNorm := minMaxNormalise(lexFilled)
	semNorm := minMaxNormalise(semFilled)

	fused := make(map[string]float64, len(union))
	for id := range union {
		fused[id] = s.cfg.Retrieval.LexicalWeight*lexNorm[id] +
			s.cfg.Retrieval.SemanticWeight*semNorm[id]
	}

	// Exact-phrase boost over the full corpus.
	for id, boost := range s.phraseBoosts(q, inPlay) {
		fused[id] += boost
		union[id] = true
	}

	candidates := make([]domain.ScoredCandidate, 0, len(union))
	for id := range union {
		candidates = append(candidates, domain.ScoredCandidate{
			ChunkID:  id,
			Lexical:  lexScores[id],
			Semantic: semScores[id],
			Fused:    fused[id],
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Fused != b.Fused {
			return a.Fused > b.Fused
		}
		// Ties broken by the higher of the two raw scores, then chunk id.
		if ra, rb := maxRaw(a), maxRaw(b); ra != rb {
			return ra > rb
		}
		return a.ChunkID < b.ChunkID
	})

	return candidates
}

func maxRaw(c domain.ScoredCandidate) float64 {
	if c.Lexical > c.Semantic {
		return c.Lexical
	}
	return c.Semantic
}

// minMaxNormalise maps the values to [0,1]. A set with a single
// distinct nonzero value maps to a constant 1.0 to avoid division by
// zero; an all-zero list (a retriever that contributed nothing) stays
// zero so it cannot lift every candidate through the zero-fill.
func minMaxNormalise(scores map[string]float64) map[string]float64 {
	if len(scores) == 0 {
		return map[string]float64{}
	}

	first := true
	var lo, hi float64
	for _, v := range scores {
		if first {
			lo, hi = v, v
			first = false
			continue
		}
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}

	out := make(map[string]float64, len(scores))
	if hi == lo {
		norm := 1.0
		if hi == 0 {
			norm = 0.0
		}
		for id := range scores {
			out[id] = norm
		}
		return out
	}
	for id, v := range scores {
		out[id] = (v - lo) / (hi - lo)
	}
	return out
}

// playMatcher returns a predicate implementing the optional play filter:
// case-insensitive substring match on the play title.
func playMatcher(filter string) func(*domain.Chunk) bool {
	filter = strings.ToLower(strings.TrimSpace(filter))
	if filter == "" {
		return func(*domain.Chunk) bool { return true }
	}
	return func(c *domain.Chunk) bool {
		return strings.Contains(strings.ToLower(c.Play), filter)
	}
}

// --- Exact-phrase boost ---

var quotedPhraseRe = regexp.MustCompile(`['"“”](.+?)['"“”]`)

// extractPhrase pulls a quoted phrase out of the query; a short query
// (<= 10 words) is treated as a phrase itself, since quote lookups are
// often typed without quotation marks.
func extractPhrase(query string) string {
	if m := quotedPhraseRe.FindStringSubmatch(query); m != nil {
		return m[1]
	}
	if len(strings.Fields(query)) <= 10 {
		return query
	}
	return ""
}

var punctRe = regexp.MustCompile(`[^a-z0-9]+`)

// stripPunct lowercases and folds every run of punctuation or whitespace
// to a single space, so that "to be or not to be" matches
// "To be, or not to be—" and verse line breaks stay word boundaries.
func stripPunct(text string) string {
	return strings.TrimSpace(punctRe.ReplaceAllString(strings.ToLower(text), " "))
}

// phraseBoosts returns {chunkID: boost} for chunks whose text contains
// the query phrase after punctuation stripping.
func (s *AskService) phraseBoosts(q domain.Query, inPlay func(*domain.Chunk) bool) map[string]float64 {
	phrase := extractPhrase(q.Text)
	if phrase == "" {
		return nil
	}

	needle := stripPunct(phrase)
	if len(needle) < s.cfg.Retrieval.MinPhraseLen {
		return nil
	}

	boosts := make(map[string]float64)
	for i := range s.chunks {
		chunk := &s.chunks[i]
		if !inPlay(chunk) {
			continue
		}
		if strings.Contains(stripPunct(chunk.Text), needle) {
			boosts[chunk.ID] = s.cfg.Retrieval.PhraseBoost
		}
	}
	if len(boosts) > 0 {
		logger.Debug("Phrase boost: %d chunks match %q", len(boosts), phrase)
	}
	return boosts
}
