package domain

// ValidationState tracks an answer through the citation-check loop.
type ValidationState int

const (
	// StatePending means the answer has been synthesized but not yet checked.
	StatePending ValidationState = iota

	// StateValidated means every citation resolved and every quote grounded.
	StateValidated

	// StateRegenerate means the first validation failed and one retry of
	// synthesis is in flight with an amended instruction.
	StateRegenerate

	// StateRefused means validation failed twice; the answer is replaced
	// with a fixed refusal citing no evidence.
	StateRefused
)

// String returns the state name for logging.
func (s ValidationState) String() string {
	switch s {
	case StatePending:
		return "PENDING"
	case StateValidated:
		return "VALIDATED"
	case StateRegenerate:
		return "REGENERATE"
	case StateRefused:
		return "REFUSED"
	default:
		return "UNKNOWN"
	}
}

// Citation is one [S#] marker extracted from a synthesized answer,
// optionally carrying a quoted span the answer attributes to that source.
type Citation struct {
	// SID is the source tag as written in the answer, e.g. "S1".
	SID string

	// ChunkID is the chunk the tag resolved to, empty when the tag
	// does not resolve to a member of the evidence set.
	ChunkID string

	// Quote is the quoted span attached to this citation, if any.
	Quote string
}

// Answer is the finalized output of the pipeline.
type Answer struct {
	// QueryID links back to the query that produced this answer.
	QueryID string

	// Text is the answer body with inline [S#] citations.
	// For refused answers this is the fixed refusal message.
	Text string

	// Citations are the markers extracted from Text, in order.
	Citations []Citation

	// State is StateValidated or StateRefused on a finalized answer.
	State ValidationState

	// RefusalReason explains a refusal ("no evidence retrieved",
	// "citation check failed twice", ...). Empty when validated.
	RefusalReason string

	// Evidence is the set that grounded the answer. Populated only
	// when the caller asked for it.
	Evidence EvidenceSet
}

// Refused reports whether the pipeline declined to answer.
func (a Answer) Refused() bool {
	return a.State == StateRefused
}
