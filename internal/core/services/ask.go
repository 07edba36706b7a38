package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/pranavagrawaI/ShakespeareBot/internal/config"
	"github.com/pranavagrawaI/ShakespeareBot/internal/core/domain"
	"github.com/pranavagrawaI/ShakespeareBot/internal/core/ports/driven"
	"github.com/pranavagrawaI/ShakespeareBot/internal/core/ports/driving"
	"github.com/pranavagrawaI/ShakespeareBot/internal/logger"
	"github.com/pranavagrawaI/ShakespeareBot/internal/resilience"
)

// Ensure AskService implements the interface.
var _ driving.AskService = (*AskService)(nil)

// refusalMessage is the fixed text returned whenever the pipeline
// declines to answer. It cites no evidence.
const refusalMessage = "This information was not found in the provided text."

// AskService runs the hybrid retrieval, reranking, diversity-selection,
// and citation-enforcement pipeline for one question at a time.
//
// The corpus snapshot is taken once at construction and shared read-only
// across all concurrent queries.
type AskService struct {
	chunks []domain.Chunk
	byID   map[string]*domain.Chunk

	lexical   driven.LexicalIndex
	vectors   driven.VectorIndex
	embedder  driven.EmbeddingService
	reranker  driven.Reranker
	generator driven.Generator

	exec      *resilience.Executor
	validator *Validator
	cfg       config.Config
}

// NewAskService builds the pipeline over a loaded corpus.
// The embedder and reranker are optional (may be nil); the pipeline
// degrades per stage when they are absent. The generator is required.
func NewAskService(
	ctx context.Context,
	corpus driven.CorpusStore,
	lexical driven.LexicalIndex,
	vectors driven.VectorIndex,
	embedder driven.EmbeddingService,
	reranker driven.Reranker,
	generator driven.Generator,
	cfg config.Config,
) (*AskService, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if corpus == nil {
		return nil, fmt.Errorf("new ask service: corpus store is required")
	}
	if lexical == nil {
		return nil, fmt.Errorf("new ask service: lexical index is required")
	}

	chunks, err := corpus.AllChunks(ctx)
	if err != nil {
		return nil, fmt.Errorf("load corpus: %w", err)
	}

	byID := make(map[string]*domain.Chunk, len(chunks))
	for i := range chunks {
		byID[chunks[i].ID] = &chunks[i]
	}

	return &AskService{
		chunks:    chunks,
		byID:      byID,
		lexical:   lexical,
		vectors:   vectors,
		embedder:  embedder,
		reranker:  reranker,
		generator: generator,
		exec: resilience.NewExecutor(resilience.Config{
			MaxAttempts:    cfg.Generator.MaxRetries + 1,
			InitialBackoff: cfg.Generator.InitialBackoff,
			MaxBackoff:     cfg.Generator.MaxBackoff,
			Multiplier:     2.0,
			BreakerEnabled: true,
		}),
		validator: NewValidator(nil),
		cfg:       cfg,
	}, nil
}

// SetQuoteNormalizer overrides the normalization applied before
// verbatim-quote matching. Useful for corpora with archaic spelling.
func (s *AskService) SetQuoteNormalizer(n QuoteNormalizer) {
	s.validator = NewValidator(n)
}

// Ask answers a natural-language question about the corpus.
//
// The returned answer is always one of: a validated answer whose
// citations all resolve, or an explicit refusal. Generator transport
// exhaustion is returned as an error wrapping ErrGeneratorUnavailable.
func (s *AskService) Ask(ctx context.Context, question string, opts driving.AskOptions) (*domain.Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("ask: %w: empty question", domain.ErrInvalidInput)
	}

	k := opts.K
	if k <= 0 {
		k = s.cfg.Diversity.K
	}

	q := domain.Query{
		ID:         uuid.NewString(),
		Text:       question,
		K:          k,
		PlayFilter: opts.PlayFilter,
	}

	logger.Section("Ask Pipeline")
	logger.Debug("Query %s: %q (k=%d, play=%q)", q.ID, q.Text, q.K, q.PlayFilter)

	// Stage 1-3: hybrid retrieval and score fusion.
	candidates := s.retrieve(ctx, q)
	logger.Debug("Fused candidates: %d", len(candidates))

	if len(candidates) == 0 {
		logger.Info("Retrieval empty, refusing without generator call")
		return s.refusal(q, opts, nil, "no evidence retrieved for the query"), nil
	}

	// Stage 4: cross-encoder reranking (authoritative order downstream).
	candidates = s.rerank(ctx, q.Text, candidates)

	// Stage 5: diversity selection. Only the reranked head competes
	// for evidence; tail scores are on the fused scale, not the
	// cross-encoder's.
	pool := candidates
	if depth := s.cfg.Rerank.Depth; len(pool) > depth {
		pool = pool[:depth]
	}
	evidence := s.selectEvidence(pool, q.K)
	logger.Debug("Evidence set: %v", evidence.ChunkIDs())

	if len(evidence) == 0 {
		logger.Info("Empty evidence set, refusing without generator call")
		return s.refusal(q, opts, nil, "no evidence retrieved for the query"), nil
	}

	// Stage 6-7: synthesis and citation validation.
	answer, err := s.synthesize(ctx, q, evidence)
	if err != nil {
		return nil, err
	}

	if opts.IncludeEvidence {
		answer.Evidence = evidence
	}
	return answer, nil
}

// refusal builds a finalized refused answer.
func (s *AskService) refusal(q domain.Query, opts driving.AskOptions, evidence domain.EvidenceSet, reason string) *domain.Answer {
	a := &domain.Answer{
		QueryID:       q.ID,
		Text:          refusalMessage,
		State:         domain.StateRefused,
		RefusalReason: reason,
	}
	if opts.IncludeEvidence {
		a.Evidence = evidence
	}
	return a
}

// chunkByID resolves a candidate's chunk from the corpus snapshot.
func (s *AskService) chunkByID(id string) *domain.Chunk {
	return s.byID[id]
}
