package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidConfig indicates the configuration failed validation
	// (weights not summing to 1, k <= 0, ...). Fatal to the call.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrNoEvidence indicates retrieval produced no candidate chunks for
	// the query and filter. The pipeline refuses without calling the
	// generator.
	ErrNoEvidence = errors.New("no evidence retrieved")

	// ErrEmbeddingUnavailable indicates the embedding service is not
	// configured or failed. Semantic retrieval degrades to lexical-only.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrRerankerUnavailable indicates the cross-encoder reranker failed
	// or timed out. The pipeline falls back to the fused order.
	ErrRerankerUnavailable = errors.New("reranker unavailable")

	// ErrGeneratorUnavailable indicates the generator call exhausted its
	// retries. Surfaced to the caller as a transport failure, distinct
	// from a content refusal.
	ErrGeneratorUnavailable = errors.New("generator unavailable")

	// ErrUnsupportedCitation indicates an answer cited a chunk that is
	// not a member of the evidence set.
	ErrUnsupportedCitation = errors.New("unsupported citation")

	// ErrQuoteNotGrounded indicates a quoted span does not appear in the
	// cited chunk's text under normalization.
	ErrQuoteNotGrounded = errors.New("quote not grounded")

	// ErrMissingCitations indicates an answer carried no citations while
	// the evidence set was non-empty.
	ErrMissingCitations = errors.New("answer has no citations")
)
