// Package domain defines the core business entities for ShakespeareBot.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Chunk: A citeable passage of a play with a structural locator
//   - Query: A natural-language question with retrieval options
//   - ScoredCandidate: A chunk moving through the retrieval pipeline
//   - EvidenceSet: The passages selected to ground one answer
//   - Answer: A synthesized, citation-checked response
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
