package memory

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pranavagrawaI/ShakespeareBot/internal/core/domain"
)

func sampleChunks() []domain.Chunk {
	return []domain.Chunk{
		{ID: "ham-1", Play: "Hamlet", Act: 3, Scene: 1, Text: "To be, or not to be"},
		{ID: "mac-1", Play: "Macbeth", Act: 5, Scene: 5, Text: "Out, out, brief candle!"},
	}
}

func TestGetChunk(t *testing.T) {
	store := NewStore(sampleChunks())
	ctx := context.Background()

	chunk, err := store.GetChunk(ctx, "ham-1")
	require.NoError(t, err)
	assert.Equal(t, "Hamlet", chunk.Play)

	_, err = store.GetChunk(ctx, "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAllChunksAndCount(t *testing.T) {
	store := NewStore(sampleChunks())
	ctx := context.Background()

	chunks, err := store.AllChunks(ctx)
	require.NoError(t, err)
	assert.Len(t, chunks, 2)
	assert.Equal(t, "ham-1", chunks[0].ID, "corpus order preserved")

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestPutChunks_InsertAndReplace(t *testing.T) {
	store := NewStore(sampleChunks())
	ctx := context.Background()

	err := store.PutChunks(ctx, []domain.Chunk{
		{ID: "ham-1", Play: "Hamlet", Text: "updated text"},
		{ID: "lear-1", Play: "King Lear", Text: "Blow, winds, and crack your cheeks!"},
	})
	require.NoError(t, err)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	chunk, err := store.GetChunk(ctx, "ham-1")
	require.NoError(t, err)
	assert.Equal(t, "updated text", chunk.Text)
}

func TestLoadJSONL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chunks.jsonl")
	data := `{"chunk_id":"HAMLET_3_1_0001","play":"Hamlet","act":3,"scene":1,"speaker":"HAMLET","line_start":1748,"line_end":1758,"text":"To be, or not to be"}

{"chunk_id":"MACBETH_5_5_0001","play":"Macbeth","act":5,"scene":5,"speaker":"MACBETH","line_start":2338,"line_end":2348,"text":"Out, out, brief candle!"}
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	store, err := LoadJSONL(path)
	require.NoError(t, err)

	count, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, count, "blank lines skipped")

	chunk, err := store.GetChunk(context.Background(), "HAMLET_3_1_0001")
	require.NoError(t, err)
	assert.Equal(t, 3, chunk.Act)
	assert.Equal(t, "HAMLET", chunk.Speaker)
	assert.Equal(t, 1748, chunk.LineStart)
}

func TestLoadJSONL_Errors(t *testing.T) {
	_, err := LoadJSONL(filepath.Join(t.TempDir(), "does-not-exist.jsonl"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.jsonl")
	require.NoError(t, os.WriteFile(bad, []byte("{not json}\n"), 0o644))
	_, err = LoadJSONL(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 1")
}
