package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pranavagrawaI/ShakespeareBot/internal/config"
	"github.com/pranavagrawaI/ShakespeareBot/internal/core/domain"
)

func fusedCandidates() []domain.ScoredCandidate {
	return []domain.ScoredCandidate{
		{ChunkID: "ham-3.1-a", Fused: 0.9},
		{ChunkID: "ham-3.1-b", Fused: 0.8},
		{ChunkID: "ham-1.2-a", Fused: 0.7},
	}
}

func TestRerank_NilRerankerKeepsFusedOrder(t *testing.T) {
	svc := newTestService(t, &mockLexicalIndex{}, nil, nil, nil, &mockGenerator{}, config.Default())

	out := svc.rerank(context.Background(), "question", fusedCandidates())

	require.Len(t, out, 3)
	for i, c := range out {
		assert.Equal(t, fusedCandidates()[i].ChunkID, c.ChunkID)
		assert.Equal(t, c.Fused, c.Rerank, "degraded mode mirrors fused into rerank")
	}
}

func TestRerank_ErrorFallsBackToFusedOrder(t *testing.T) {
	reranker := &mockReranker{rerankErr: errors.New("model overloaded")}
	svc := newTestService(t, &mockLexicalIndex{}, nil, nil, reranker, &mockGenerator{}, config.Default())

	out := svc.rerank(context.Background(), "question", fusedCandidates())

	require.Len(t, out, 3)
	assert.Equal(t, "ham-3.1-a", out[0].ChunkID)
	assert.Equal(t, out[0].Fused, out[0].Rerank)
	assert.Equal(t, 1, reranker.calls)
}

func TestRerank_OrderIsAuthoritative(t *testing.T) {
	reranker := &mockReranker{scores: map[string]float64{
		"ham-3.1-a": 0.1,
		"ham-3.1-b": 0.95,
		"ham-1.2-a": 0.5,
	}}
	svc := newTestService(t, &mockLexicalIndex{}, nil, nil, reranker, &mockGenerator{}, config.Default())

	out := svc.rerank(context.Background(), "question", fusedCandidates())

	require.Len(t, out, 3)
	assert.Equal(t, "ham-3.1-b", out[0].ChunkID)
	assert.Equal(t, "ham-1.2-a", out[1].ChunkID)
	assert.Equal(t, "ham-3.1-a", out[2].ChunkID)
	assert.Equal(t, 0.95, out[0].Rerank)
	// Fused scores survive the reorder for inspection.
	assert.Equal(t, 0.8, out[0].Fused)
}

func TestRerank_TailBeyondDepthKeepsFusedOrder(t *testing.T) {
	reranker := &mockReranker{scores: map[string]float64{
		"ham-3.1-a": 0.2,
		"ham-3.1-b": 0.6,
	}}

	cfg := config.Default()
	cfg.Rerank.Depth = 2
	svc := newTestService(t, &mockLexicalIndex{}, nil, nil, reranker, &mockGenerator{}, cfg)

	out := svc.rerank(context.Background(), "question", fusedCandidates())

	require.Len(t, out, 3)
	// Head reordered by cross-encoder score.
	assert.Equal(t, "ham-3.1-b", out[0].ChunkID)
	assert.Equal(t, "ham-3.1-a", out[1].ChunkID)
	// Tail untouched, rerank mirrors fused.
	assert.Equal(t, "ham-1.2-a", out[2].ChunkID)
	assert.Equal(t, 0.7, out[2].Rerank)
}

func TestRerank_InputSliceNotMutated(t *testing.T) {
	reranker := &mockReranker{scores: map[string]float64{
		"ham-3.1-a": 0.1,
		"ham-3.1-b": 0.95,
		"ham-1.2-a": 0.5,
	}}
	svc := newTestService(t, &mockLexicalIndex{}, nil, nil, reranker, &mockGenerator{}, config.Default())

	in := fusedCandidates()
	_ = svc.rerank(context.Background(), "question", in)

	assert.Equal(t, "ham-3.1-a", in[0].ChunkID)
	assert.Zero(t, in[0].Rerank)
}
