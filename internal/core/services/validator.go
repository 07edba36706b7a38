package services

import (
	"fmt"
	"strings"

	"github.com/pranavagrawaI/ShakespeareBot/internal/core/domain"
)

// Validator checks a synthesized answer's citations against the
// evidence set that produced it. It is stateless and safe for
// concurrent use.
type Validator struct {
	normalize QuoteNormalizer
}

// NewValidator creates a validator. A nil normalizer selects
// DefaultQuoteNormalizer.
func NewValidator(normalize QuoteNormalizer) *Validator {
	if normalize == nil {
		normalize = DefaultQuoteNormalizer
	}
	return &Validator{normalize: normalize}
}

// Check verifies every extracted citation and reports the first
// violation:
//
//   - a cited source tag that is not a member of the evidence set
//     (unsupported citation);
//   - a quoted span that does not appear verbatim, under normalization,
//     in the cited chunk's text (quote not grounded);
//   - zero citations while the evidence set is non-empty (claims
//     require citations whenever evidence exists).
//
// On success, each citation's ChunkID is filled in from the evidence
// set and nil is returned.
func (v *Validator) Check(citations []domain.Citation, evidence domain.EvidenceSet) error {
	if len(evidence) > 0 && len(citations) == 0 {
		return fmt.Errorf("%w while %d evidence passages were supplied",
			domain.ErrMissingCitations, len(evidence))
	}

	for i := range citations {
		c := &citations[i]

		ev := evidence.BySID(c.SID)
		if ev == nil {
			return fmt.Errorf("%w: [%s] does not refer to a supplied source",
				domain.ErrUnsupportedCitation, c.SID)
		}
		c.ChunkID = ev.Chunk.ID

		if c.Quote == "" {
			continue
		}
		needle := v.normalize(c.Quote)
		if needle == "" {
			continue
		}
		if !strings.Contains(v.normalize(ev.Chunk.Text), needle) {
			return fmt.Errorf("%w: %q is not verbatim text of [%s] (%s)",
				domain.ErrQuoteNotGrounded, c.Quote, c.SID, ev.Chunk.ID)
		}
	}

	return nil
}
