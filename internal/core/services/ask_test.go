package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pranavagrawaI/ShakespeareBot/internal/adapters/driven/storage/memory"
	"github.com/pranavagrawaI/ShakespeareBot/internal/config"
	"github.com/pranavagrawaI/ShakespeareBot/internal/core/domain"
	"github.com/pranavagrawaI/ShakespeareBot/internal/core/ports/driven"
	"github.com/pranavagrawaI/ShakespeareBot/internal/core/ports/driving"
)

// --- Mock implementations ---

// mockLexicalIndex implements driven.LexicalIndex for testing.
type mockLexicalIndex struct {
	hits      []driven.LexicalHit
	searchErr error
}

func (m *mockLexicalIndex) Search(_ context.Context, _ string, limit int) ([]driven.LexicalHit, error) {
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	if limit > len(m.hits) {
		return m.hits, nil
	}
	return m.hits[:limit], nil
}

// mockVectorIndex implements driven.VectorIndex for testing.
type mockVectorIndex struct {
	hits      []driven.VectorHit
	searchErr error
}

func (m *mockVectorIndex) Search(_ context.Context, _ []float32, k int) ([]driven.VectorHit, error) {
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	if k > len(m.hits) {
		return m.hits, nil
	}
	return m.hits[:k], nil
}

// mockEmbeddingService implements driven.EmbeddingService for testing.
type mockEmbeddingService struct {
	embedding []float32
	embedErr  error
}

func (m *mockEmbeddingService) Embed(_ context.Context, _ string) ([]float32, error) {
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	return m.embedding, nil
}

func (m *mockEmbeddingService) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	result := make([][]float32, len(texts))
	for i := range texts {
		result[i] = m.embedding
	}
	return result, nil
}

func (m *mockEmbeddingService) Dimensions() int { return 4 }

func (m *mockEmbeddingService) ModelName() string { return "mock-embed" }

func (m *mockEmbeddingService) Ping(_ context.Context) error { return nil }

func (m *mockEmbeddingService) Close() error { return nil }

// mockReranker implements driven.Reranker for testing.
type mockReranker struct {
	scores    map[string]float64
	rerankErr error
	calls     int
}

func (m *mockReranker) Rerank(_ context.Context, _ string, candidates []driven.RerankCandidate) ([]driven.RerankScore, error) {
	m.calls++
	if m.rerankErr != nil {
		return nil, m.rerankErr
	}
	out := make([]driven.RerankScore, len(candidates))
	for i, c := range candidates {
		out[i] = driven.RerankScore{ChunkID: c.ChunkID, Score: m.scores[c.ChunkID]}
	}
	return out, nil
}

func (m *mockReranker) ModelName() string { return "mock-rerank" }

// mockGenerator implements driven.Generator for testing. It returns the
// queued responses in order, repeating the last one when exhausted.
type mockGenerator struct {
	responses []string
	genErr    error
	calls     int
}

func (m *mockGenerator) Generate(_ context.Context, _, _ string) (string, error) {
	m.calls++
	if m.genErr != nil {
		return "", m.genErr
	}
	if len(m.responses) == 0 {
		return "", errors.New("no responses queued")
	}
	i := m.calls - 1
	if i >= len(m.responses) {
		i = len(m.responses) - 1
	}
	return m.responses[i], nil
}

func (m *mockGenerator) ModelName() string { return "mock-gen" }

func (m *mockGenerator) Close() error { return nil }

// --- Test helpers ---

func testChunks() []domain.Chunk {
	return []domain.Chunk{
		{
			ID: "ham-3.1-a", Play: "Hamlet", Act: 3, Scene: 1, Speaker: "HAMLET",
			LineStart: 1748, LineEnd: 1758,
			Text: "To be, or not to be, that is the question:\nWhether 'tis nobler in the mind to suffer\nThe slings and arrows of outrageous fortune,",
		},
		{
			ID: "ham-3.1-b", Play: "Hamlet", Act: 3, Scene: 1, Speaker: "HAMLET",
			LineStart: 1759, LineEnd: 1769,
			Text: "Or to take arms against a sea of troubles\nAnd by opposing end them. To die: to sleep;\nNo more; and by a sleep to say we end",
		},
		{
			ID: "ham-1.2-a", Play: "Hamlet", Act: 1, Scene: 2, Speaker: "HAMLET",
			LineStart: 333, LineEnd: 343,
			Text: "O, that this too too solid flesh would melt,\nThaw and resolve itself into a dew!",
		},
		{
			ID: "mac-5.5-a", Play: "Macbeth", Act: 5, Scene: 5, Speaker: "MACBETH",
			LineStart: 2338, LineEnd: 2348,
			Text: "Out, out, brief candle!\nLife's but a walking shadow, a poor player\nThat struts and frets his hour upon the stage",
		},
	}
}

// fastConfig disables retry backoff so failure tests run instantly.
func fastConfig() config.Config {
	cfg := config.Default()
	cfg.Generator.MaxRetries = 0
	cfg.Generator.InitialBackoff = time.Millisecond
	cfg.Generator.MaxBackoff = time.Millisecond
	return cfg
}

func newTestService(t *testing.T, lexical driven.LexicalIndex, vectors driven.VectorIndex,
	embedder driven.EmbeddingService, reranker driven.Reranker, generator driven.Generator,
	cfg config.Config) *AskService {
	t.Helper()

	store := memory.NewStore(testChunks())
	svc, err := NewAskService(context.Background(), store, lexical, vectors, embedder, reranker, generator, cfg)
	require.NoError(t, err)
	return svc
}

func hamletHits() []driven.LexicalHit {
	return []driven.LexicalHit{
		{ChunkID: "ham-3.1-a", Score: 12.5},
		{ChunkID: "ham-3.1-b", Score: 9.1},
		{ChunkID: "ham-1.2-a", Score: 4.2},
	}
}

// --- Tests ---

func TestNewAskService_RequiresCorpusAndLexical(t *testing.T) {
	ctx := context.Background()
	gen := &mockGenerator{}

	_, err := NewAskService(ctx, nil, &mockLexicalIndex{}, nil, nil, nil, gen, config.Default())
	assert.Error(t, err)

	_, err = NewAskService(ctx, memory.NewStore(testChunks()), nil, nil, nil, nil, gen, config.Default())
	assert.Error(t, err)
}

func TestNewAskService_RejectsInvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Retrieval.LexicalWeight = 0.9 // weights no longer sum to 1

	store := memory.NewStore(testChunks())
	_, err := NewAskService(context.Background(), store, &mockLexicalIndex{}, nil, nil, nil, &mockGenerator{}, cfg)

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
}

func TestAsk_EmptyQuestion(t *testing.T) {
	svc := newTestService(t, &mockLexicalIndex{}, nil, nil, nil, &mockGenerator{}, config.Default())

	_, err := svc.Ask(context.Background(), "   \t ", driving.AskOptions{})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestAsk_EmptyRetrievalRefusesWithoutGeneratorCall(t *testing.T) {
	gen := &mockGenerator{responses: []string{"should never be used [S1]"}}
	svc := newTestService(t, &mockLexicalIndex{}, nil, nil, nil, gen, config.Default())

	// A long query avoids the phrase-boost corpus scan surfacing chunks.
	answer, err := svc.Ask(context.Background(),
		"what does the ghost of king hamlet reveal about the circumstances of his own death in the garden",
		driving.AskOptions{})

	require.NoError(t, err)
	assert.Equal(t, domain.StateRefused, answer.State)
	assert.Equal(t, refusalMessage, answer.Text)
	assert.Zero(t, gen.calls, "refusal must not consume a generator call")
}

func TestAsk_PlayFilterEmptyingCandidatesRefuses(t *testing.T) {
	lexical := &mockLexicalIndex{hits: hamletHits()}
	gen := &mockGenerator{responses: []string{"should never be used [S1]"}}
	svc := newTestService(t, lexical, nil, nil, nil, gen, config.Default())

	answer, err := svc.Ask(context.Background(),
		"tell me everything that happens across the five acts of the scottish play in detail",
		driving.AskOptions{PlayFilter: "The Tempest"})

	require.NoError(t, err)
	assert.Equal(t, domain.StateRefused, answer.State)
	assert.Zero(t, gen.calls)
}

func TestAsk_ValidatedAnswer(t *testing.T) {
	lexical := &mockLexicalIndex{hits: hamletHits()}
	gen := &mockGenerator{responses: []string{
		`Hamlet weighs whether life is worth living [S1]. He frames death as a kind of sleep [S2].`,
	}}
	svc := newTestService(t, lexical, nil, nil, nil, gen, config.Default())

	answer, err := svc.Ask(context.Background(), "What is Hamlet's soliloquy about?",
		driving.AskOptions{K: 3, IncludeEvidence: true})

	require.NoError(t, err)
	assert.Equal(t, domain.StateValidated, answer.State)
	assert.Len(t, answer.Citations, 2)
	assert.Equal(t, "S1", answer.Citations[0].SID)
	assert.Equal(t, "S2", answer.Citations[1].SID)
	assert.Len(t, answer.Evidence, 3)
	assert.Equal(t, 1, gen.calls)
}

func TestAsk_EvidenceOmittedByDefault(t *testing.T) {
	lexical := &mockLexicalIndex{hits: hamletHits()}
	gen := &mockGenerator{responses: []string{"Hamlet contemplates death [S1]."}}
	svc := newTestService(t, lexical, nil, nil, nil, gen, config.Default())

	answer, err := svc.Ask(context.Background(), "What is Hamlet's soliloquy about?", driving.AskOptions{K: 3})

	require.NoError(t, err)
	assert.Equal(t, domain.StateValidated, answer.State)
	assert.Nil(t, answer.Evidence)
}

func TestAsk_RegenerateThenValidated(t *testing.T) {
	lexical := &mockLexicalIndex{hits: hamletHits()}
	gen := &mockGenerator{responses: []string{
		"Hamlet contemplates death and what may come after it.", // no citations
		"Hamlet contemplates death and what may come after it [S1].",
	}}
	svc := newTestService(t, lexical, nil, nil, nil, gen, config.Default())

	answer, err := svc.Ask(context.Background(), "What is Hamlet's soliloquy about?",
		driving.AskOptions{K: 3})

	require.NoError(t, err)
	assert.Equal(t, domain.StateValidated, answer.State)
	assert.Equal(t, 2, gen.calls, "one regeneration expected")
}

func TestAsk_RegenerationExhaustedRefuses(t *testing.T) {
	lexical := &mockLexicalIndex{hits: hamletHits()}
	gen := &mockGenerator{responses: []string{
		"An answer with no citations at all.",
	}}
	svc := newTestService(t, lexical, nil, nil, nil, gen, config.Default())

	answer, err := svc.Ask(context.Background(), "What is Hamlet's soliloquy about?",
		driving.AskOptions{K: 3})

	require.NoError(t, err)
	assert.Equal(t, domain.StateRefused, answer.State)
	assert.Equal(t, refusalMessage, answer.Text)
	assert.Contains(t, answer.RefusalReason, "citation check failed")
	assert.Equal(t, 2, gen.calls, "initial attempt plus one regeneration")
}

func TestAsk_UnsupportedCitationRefuses(t *testing.T) {
	lexical := &mockLexicalIndex{hits: hamletHits()}
	gen := &mockGenerator{responses: []string{
		"Hamlet speaks of death [S9].", // S9 is not in the evidence set
	}}
	svc := newTestService(t, lexical, nil, nil, nil, gen, config.Default())

	answer, err := svc.Ask(context.Background(), "What is Hamlet's soliloquy about?",
		driving.AskOptions{K: 3})

	require.NoError(t, err)
	assert.Equal(t, domain.StateRefused, answer.State)
}

func TestAsk_GeneratorUnavailable(t *testing.T) {
	lexical := &mockLexicalIndex{hits: hamletHits()}
	gen := &mockGenerator{genErr: errors.New("connection refused")}
	svc := newTestService(t, lexical, nil, nil, nil, gen, fastConfig())

	_, err := svc.Ask(context.Background(), "What is Hamlet's soliloquy about?",
		driving.AskOptions{K: 3})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrGeneratorUnavailable)
}

func TestAsk_PlayFilterExcludesOtherPlays(t *testing.T) {
	lexical := &mockLexicalIndex{hits: []driven.LexicalHit{
		{ChunkID: "ham-3.1-a", Score: 10.0},
		{ChunkID: "mac-5.5-a", Score: 8.0},
	}}
	gen := &mockGenerator{responses: []string{"Macbeth calls life a walking shadow [S1]."}}
	svc := newTestService(t, lexical, nil, nil, nil, gen, config.Default())

	answer, err := svc.Ask(context.Background(), "walking shadow meaning in context please explain the metaphor",
		driving.AskOptions{K: 3, PlayFilter: "macbeth", IncludeEvidence: true})

	require.NoError(t, err)
	require.Len(t, answer.Evidence, 1)
	assert.Equal(t, "mac-5.5-a", answer.Evidence[0].Chunk.ID)
}

func TestAsk_SemanticDegradationStillAnswers(t *testing.T) {
	lexical := &mockLexicalIndex{hits: hamletHits()}
	embedder := &mockEmbeddingService{embedErr: errors.New("embedding service down")}
	vectors := &mockVectorIndex{hits: []driven.VectorHit{{ChunkID: "ham-1.2-a", Similarity: 0.9}}}
	gen := &mockGenerator{responses: []string{"Hamlet contemplates death [S1]."}}
	svc := newTestService(t, lexical, vectors, embedder, nil, gen, config.Default())

	answer, err := svc.Ask(context.Background(), "What is Hamlet's soliloquy about?",
		driving.AskOptions{K: 3})

	require.NoError(t, err)
	assert.Equal(t, domain.StateValidated, answer.State)
}

func TestAsk_RerankerOrderWins(t *testing.T) {
	lexical := &mockLexicalIndex{hits: hamletHits()}
	// Reverse the lexical preference: the weakest BM25 hit is the most
	// relevant to the cross-encoder.
	reranker := &mockReranker{scores: map[string]float64{
		"ham-3.1-a": 0.1,
		"ham-3.1-b": 0.2,
		"ham-1.2-a": 0.9,
	}}
	gen := &mockGenerator{responses: []string{"Hamlet wishes his flesh would melt [S1]."}}
	svc := newTestService(t, lexical, nil, nil, reranker, gen, config.Default())

	answer, err := svc.Ask(context.Background(), "What does Hamlet wish for?",
		driving.AskOptions{K: 1, IncludeEvidence: true})

	require.NoError(t, err)
	require.Len(t, answer.Evidence, 1)
	assert.Equal(t, "ham-1.2-a", answer.Evidence[0].Chunk.ID)
	assert.Equal(t, 1, reranker.calls)
}

func TestAsk_EvidencePoolLimitedToRerankDepth(t *testing.T) {
	lexical := &mockLexicalIndex{hits: []driven.LexicalHit{
		{ChunkID: "ham-3.1-a", Score: 10},
		{ChunkID: "ham-3.1-b", Score: 8},
		{ChunkID: "ham-1.2-a", Score: 7},
		{ChunkID: "mac-5.5-a", Score: 1},
	}}
	// The cross-encoder scores its head below the fused scores of
	// candidates beyond its depth; those must not contest evidence.
	reranker := &mockReranker{scores: map[string]float64{
		"ham-3.1-a": 0.05,
		"ham-3.1-b": 0.02,
	}}
	gen := &mockGenerator{responses: []string{"Hamlet weighs whether to go on living [S1]."}}

	cfg := config.Default()
	cfg.Rerank.Depth = 2
	svc := newTestService(t, lexical, nil, nil, reranker, gen, cfg)

	answer, err := svc.Ask(context.Background(),
		"What does Hamlet say about living on in the famous third act soliloquy?",
		driving.AskOptions{K: 1, IncludeEvidence: true})

	require.NoError(t, err)
	require.Len(t, answer.Evidence, 1)
	assert.Equal(t, "ham-3.1-a", answer.Evidence[0].Chunk.ID)
}
