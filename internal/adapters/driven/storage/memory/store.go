// Package memory provides an in-memory corpus store. Used by tests and
// by the index command while it stages chunks loaded from JSONL before
// writing them to the SQLite store.
package memory

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/pranavagrawaI/ShakespeareBot/internal/core/domain"
	"github.com/pranavagrawaI/ShakespeareBot/internal/core/ports/driven"
)

// Ensure Store implements the interfaces.
var (
	_ driven.CorpusStore  = (*Store)(nil)
	_ driven.CorpusWriter = (*Store)(nil)
)

// Store holds chunks in corpus order. After loading it is read-only
// and safe for unsynchronized concurrent reads.
type Store struct {
	chunks []domain.Chunk
	byID   map[string]int
}

// NewStore creates a store over the given chunks.
func NewStore(chunks []domain.Chunk) *Store {
	s := &Store{
		chunks: make([]domain.Chunk, len(chunks)),
		byID:   make(map[string]int, len(chunks)),
	}
	copy(s.chunks, chunks)
	for i := range s.chunks {
		s.byID[s.chunks[i].ID] = i
	}
	return s
}

// chunkRecord is the JSONL line format emitted by the chunking
// pipeline (one chunk object per line).
type chunkRecord struct {
	ChunkID   string `json:"chunk_id"`
	Play      string `json:"play"`
	Act       int    `json:"act"`
	Scene     int    `json:"scene"`
	Speaker   string `json:"speaker"`
	LineStart int    `json:"line_start"`
	LineEnd   int    `json:"line_end"`
	Text      string `json:"text"`
}

// LoadJSONL reads a chunks.jsonl file into a store.
func LoadJSONL(path string) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open chunks file: %w", err)
	}
	defer f.Close()

	var chunks []domain.Chunk

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec chunkRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			return nil, fmt.Errorf("parse chunk line %d: %w", lineNum, err)
		}
		chunks = append(chunks, domain.Chunk{
			ID:        rec.ChunkID,
			Play:      rec.Play,
			Act:       rec.Act,
			Scene:     rec.Scene,
			Speaker:   rec.Speaker,
			LineStart: rec.LineStart,
			LineEnd:   rec.LineEnd,
			Text:      rec.Text,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read chunks file: %w", err)
	}

	return NewStore(chunks), nil
}

// GetChunk returns the chunk with the given id.
func (s *Store) GetChunk(_ context.Context, chunkID string) (*domain.Chunk, error) {
	i, ok := s.byID[chunkID]
	if !ok {
		return nil, fmt.Errorf("chunk %s: %w", chunkID, domain.ErrNotFound)
	}
	chunk := s.chunks[i]
	return &chunk, nil
}

// AllChunks returns every chunk in corpus order.
func (s *Store) AllChunks(_ context.Context) ([]domain.Chunk, error) {
	out := make([]domain.Chunk, len(s.chunks))
	copy(out, s.chunks)
	return out, nil
}

// Count returns the number of chunks.
func (s *Store) Count(_ context.Context) (int, error) {
	return len(s.chunks), nil
}

// PutChunks inserts or replaces a batch of chunks.
func (s *Store) PutChunks(_ context.Context, chunks []domain.Chunk) error {
	for _, chunk := range chunks {
		if i, ok := s.byID[chunk.ID]; ok {
			s.chunks[i] = chunk
			continue
		}
		s.byID[chunk.ID] = len(s.chunks)
		s.chunks = append(s.chunks, chunk)
	}
	return nil
}

// Close releases resources.
func (s *Store) Close() error {
	return nil
}
