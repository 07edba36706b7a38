// Package bm25 provides an in-process Okapi BM25 lexical index over the
// chunk corpus. The index is built once at startup from the loaded
// corpus and is read-only afterwards, so concurrent searches need no
// locking.
package bm25

import (
	"context"
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/pranavagrawaI/ShakespeareBot/internal/core/domain"
	"github.com/pranavagrawaI/ShakespeareBot/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.LexicalIndex = (*Index)(nil)

// Okapi BM25 parameters.
const (
	k1 = 1.5
	b  = 0.75
)

var tokenRe = regexp.MustCompile(`[^a-z0-9']+`)

// Tokenize lowercases, keeps letters, digits and apostrophes, and
// splits on everything else. Shared with the index build so query and
// corpus tokens agree.
func Tokenize(text string) []string {
	return strings.Fields(tokenRe.ReplaceAllString(strings.ToLower(text), " "))
}

// Index is a BM25 index over chunk texts.
type Index struct {
	ids       []string
	docFreqs  []map[string]int // term -> occurrences within doc i
	docLens   []int
	avgDocLen float64
	idf       map[string]float64
}

// New builds the index from the corpus. Chunk order is preserved so
// equal-score ties resolve deterministically.
func New(chunks []domain.Chunk) *Index {
	idx := &Index{
		ids:      make([]string, len(chunks)),
		docFreqs: make([]map[string]int, len(chunks)),
		docLens:  make([]int, len(chunks)),
		idf:      make(map[string]float64),
	}

	termDocs := make(map[string]int) // term -> number of docs containing it
	totalLen := 0

	for i, chunk := range chunks {
		idx.ids[i] = chunk.ID
		tokens := Tokenize(chunk.Text)
		idx.docLens[i] = len(tokens)
		totalLen += len(tokens)

		freqs := make(map[string]int, len(tokens))
		for _, tok := range tokens {
			freqs[tok]++
		}
		idx.docFreqs[i] = freqs

		for term := range freqs {
			termDocs[term]++
		}
	}

	if len(chunks) > 0 {
		idx.avgDocLen = float64(totalLen) / float64(len(chunks))
	}

	n := float64(len(chunks))
	for term, df := range termDocs {
		idx.idf[term] = math.Log((n-float64(df)+0.5)/(float64(df)+0.5) + 1)
	}

	return idx
}

// Search scores the query against every chunk and returns up to limit
// hits with nonzero term overlap, best first. Ties break by chunk id
// for determinism. A query matching nothing yields an empty slice.
func (idx *Index) Search(_ context.Context, query string, limit int) ([]driven.LexicalHit, error) {
	queryTokens := Tokenize(query)
	if len(queryTokens) == 0 || len(idx.ids) == 0 {
		return []driven.LexicalHit{}, nil
	}

	hits := make([]driven.LexicalHit, 0, limit)
	for i := range idx.ids {
		score := idx.score(queryTokens, i)
		if score > 0 {
			hits = append(hits, driven.LexicalHit{ChunkID: idx.ids[i], Score: score})
		}
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].ChunkID < hits[j].ChunkID
	})

	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

func (idx *Index) score(queryTokens []string, doc int) float64 {
	freqs := idx.docFreqs[doc]
	docLen := float64(idx.docLens[doc])

	var score float64
	for _, term := range queryTokens {
		tf := float64(freqs[term])
		if tf == 0 {
			continue
		}
		norm := tf * (k1 + 1) / (tf + k1*(1-b+b*docLen/idx.avgDocLen))
		score += idx.idf[term] * norm
	}
	return score
}
