// Package driving provides interfaces for application entry points
// (primary/inbound ports).
package driving

import (
	"context"

	"github.com/pranavagrawaI/ShakespeareBot/internal/core/domain"
)

// AskOptions configures one question.
type AskOptions struct {
	// K is the requested evidence count. Zero means the configured default.
	K int

	// PlayFilter restricts retrieval to a named play when non-empty.
	PlayFilter string

	// IncludeEvidence attaches the selected EvidenceSet to the Answer
	// for display.
	IncludeEvidence bool
}

// AskService answers natural-language questions about the corpus.
// Every returned answer is one of: a validated answer whose citations
// all resolve to retrieved passages, or an explicit refusal. Transport
// exhaustion surfaces as an error wrapping domain.ErrGeneratorUnavailable.
type AskService interface {
	// Ask runs the full retrieval, synthesis, and validation pipeline.
	Ask(ctx context.Context, question string, opts AskOptions) (*domain.Answer, error)
}
