package driven

import "context"

// Generator produces answer text from a prompt. It is a black box with
// network dependencies and nondeterministic output; the validator and
// regeneration loop are tested against deterministic stubs of this
// interface. Citation extraction from the returned text is the core's
// responsibility, not the generator's.
type Generator interface {
	// Generate returns raw answer text for the given system contract
	// and user message. Transport failures should be surfaced as errors;
	// retry policy lives with the caller.
	Generate(ctx context.Context, system, user string) (string, error)

	// ModelName returns the name of the generation model being used.
	ModelName() string

	// Close releases resources.
	Close() error
}
