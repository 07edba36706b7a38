// Package sqlite provides the persistent corpus store. Chunks and
// their embeddings are written once by the index command and read once
// at startup by the query pipeline.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/pranavagrawaI/ShakespeareBot/internal/core/domain"
	"github.com/pranavagrawaI/ShakespeareBot/internal/core/ports/driven"
)

// Ensure Store implements the interfaces.
var (
	_ driven.CorpusStore  = (*Store)(nil)
	_ driven.CorpusWriter = (*Store)(nil)
)

const schema = `
CREATE TABLE IF NOT EXISTS chunks (
	id         TEXT PRIMARY KEY,
	play       TEXT NOT NULL,
	act        INTEGER NOT NULL,
	scene      INTEGER NOT NULL,
	speaker    TEXT NOT NULL DEFAULT '',
	line_start INTEGER NOT NULL DEFAULT 0,
	line_end   INTEGER NOT NULL DEFAULT 0,
	text       TEXT NOT NULL,
	embedding  BLOB
);
CREATE INDEX IF NOT EXISTS idx_chunks_play ON chunks(play);
`

// Store is a SQLite-backed corpus store.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens (creating if needed) the corpus database at the given
// path. An empty path defaults to ~/.shakespearebot/corpus.db.
func NewStore(dbPath string) (*Store, error) {
	if dbPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dbPath = filepath.Join(home, ".shakespearebot", "corpus.db")
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Store{db: db, path: dbPath}, nil
}

// GetChunk returns the chunk with the given id.
func (s *Store) GetChunk(ctx context.Context, chunkID string) (*domain.Chunk, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, play, act, scene, speaker, line_start, line_end, text, embedding
		FROM chunks WHERE id = ?`, chunkID)

	chunk, err := scanChunk(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("chunk %s: %w", chunkID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get chunk %s: %w", chunkID, err)
	}
	return chunk, nil
}

// AllChunks returns every chunk in id order.
func (s *Store) AllChunks(ctx context.Context) ([]domain.Chunk, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, play, act, scene, speaker, line_start, line_end, text, embedding
		FROM chunks ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query chunks: %w", err)
	}
	defer rows.Close()

	var chunks []domain.Chunk
	for rows.Next() {
		chunk, err := scanChunk(rows)
		if err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		chunks = append(chunks, *chunk)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chunks: %w", err)
	}
	return chunks, nil
}

// Count returns the number of chunks stored.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunks`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count chunks: %w", err)
	}
	return n, nil
}

// PutChunks inserts or replaces a batch of chunks in one transaction.
func (s *Store) PutChunks(ctx context.Context, chunks []domain.Chunk) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO chunks
			(id, play, act, scene, speaker, line_start, line_end, text, embedding)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, chunk := range chunks {
		var blob []byte
		if len(chunk.Embedding) > 0 {
			blob = float32SliceToBytes(chunk.Embedding)
		}
		if _, err := stmt.ExecContext(ctx,
			chunk.ID, chunk.Play, chunk.Act, chunk.Scene, chunk.Speaker,
			chunk.LineStart, chunk.LineEnd, chunk.Text, blob,
		); err != nil {
			return fmt.Errorf("insert chunk %s: %w", chunk.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// scanner abstracts *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanChunk(row scanner) (*domain.Chunk, error) {
	var chunk domain.Chunk
	var blob []byte
	if err := row.Scan(
		&chunk.ID, &chunk.Play, &chunk.Act, &chunk.Scene, &chunk.Speaker,
		&chunk.LineStart, &chunk.LineEnd, &chunk.Text, &blob,
	); err != nil {
		return nil, err
	}
	if len(blob) > 0 {
		chunk.Embedding = bytesToFloat32Slice(blob)
	}
	return &chunk, nil
}

// float32SliceToBytes encodes a vector as little-endian float32 bits.
func float32SliceToBytes(floats []float32) []byte {
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}
