package domain

import "fmt"

// Chunk represents a citeable passage of a play.
// Chunks are produced once at index-build time and never mutated;
// the retrieval pipeline only ever reads them.
type Chunk struct {
	// ID is the unique stable identifier, e.g. "HAMLET_3_1_0005".
	ID string

	// Play is the display title, e.g. "Hamlet".
	Play string

	// Act and Scene locate the chunk within the play.
	Act   int
	Scene int

	// Speaker names who delivers the passage. Multi-speaker chunks
	// carry a comma-joined list; may be empty for stage directions.
	Speaker string

	// LineStart and LineEnd are global line numbers within the play.
	// LineStart <= LineEnd; zero when line numbers are unknown.
	LineStart int
	LineEnd   int

	// Text is the exact source text including original line breaks.
	// Used both for display and for verbatim-quote matching.
	Text string

	// Embedding is the precomputed vector representation, L2-normalised.
	// May be nil if the embedding index was built without vectors.
	Embedding []float32
}

// Locator returns the human-readable structural locator,
// e.g. "Hamlet 3.1 — HAMLET (lines 1748-1758)".
func (c Chunk) Locator() string {
	loc := fmt.Sprintf("%s %d.%d", c.Play, c.Act, c.Scene)
	if c.Speaker != "" {
		loc += " — " + c.Speaker
	}
	if c.LineStart > 0 {
		loc += fmt.Sprintf(" (lines %d-%d)", c.LineStart, c.LineEnd)
	}
	return loc
}

// SceneKey identifies the (play, act, scene) a chunk belongs to.
// Used by the diversity filter to cap repeats from one scene.
func (c Chunk) SceneKey() string {
	return fmt.Sprintf("%s|%d|%d", c.Play, c.Act, c.Scene)
}

// Query is a natural-language question plus retrieval options.
// Created per request and discarded once the answer is returned.
type Query struct {
	// ID is a per-request trace identifier.
	ID string

	// Text is the user's question.
	Text string

	// K is the requested evidence count. Zero means the configured default.
	K int

	// PlayFilter restricts retrieval to a named play when non-empty.
	// Matching is case-insensitive substring on the play title.
	PlayFilter string
}
