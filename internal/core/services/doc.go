// Package services implements the driving port interfaces.
// It contains the retrieval, fusion, reranking, diversity-selection,
// and citation-validation logic, orchestrating calls to driven ports
// (corpus store, indexes, model collaborators).
//
// Services hold no cross-query mutable state: the corpus snapshot and
// configuration are read-only after construction, so concurrent queries
// need no locking.
package services
