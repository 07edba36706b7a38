// Package driven provides interfaces for infrastructure adapters
// (secondary/outbound ports): the corpus store, the lexical and vector
// indexes, and the model collaborators (embedding, reranking, generation).
package driven
