package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pranavagrawaI/ShakespeareBot/internal/adapters/driven/storage/memory"
	"github.com/pranavagrawaI/ShakespeareBot/internal/adapters/driven/storage/sqlite"
	"github.com/pranavagrawaI/ShakespeareBot/internal/logger"
)

var (
	indexBatchSize      int
	indexSkipEmbeddings bool
)

var indexCmd = &cobra.Command{
	Use:   "index [chunks.jsonl]",
	Short: "Build the corpus database from a chunk file",
	Long: `Loads scene chunks from a JSONL file, computes embeddings for each
chunk, and writes the result to the corpus database. Re-running the
command replaces existing chunks with the same id.`,
	Args: cobra.ExactArgs(1),
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().IntVar(&indexBatchSize, "batch-size", 64, "embedding batch size")
	indexCmd.Flags().BoolVar(&indexSkipEmbeddings, "skip-embeddings", false, "index without embeddings (lexical retrieval only)")
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	src, err := memory.LoadJSONL(args[0])
	if err != nil {
		return fmt.Errorf("load chunks: %w", err)
	}
	chunks, err := src.AllChunks(ctx)
	if err != nil {
		return fmt.Errorf("load chunks: %w", err)
	}
	if len(chunks) == 0 {
		return fmt.Errorf("no chunks found in %s", args[0])
	}
	cmd.Printf("Loaded %d chunks from %s\n", len(chunks), args[0])

	if !indexSkipEmbeddings {
		embedder, err := newEmbedder()
		if err != nil {
			return fmt.Errorf("create embedder: %w", err)
		}
		if embedder == nil {
			return fmt.Errorf("%s is not set; use --skip-embeddings to index without embeddings", envAPIKey)
		}
		defer embedder.Close()

		if err := embedder.Ping(ctx); err != nil {
			return fmt.Errorf("embedding service unavailable: %w", err)
		}

		for start := 0; start < len(chunks); start += indexBatchSize {
			end := start + indexBatchSize
			if end > len(chunks) {
				end = len(chunks)
			}

			texts := make([]string, end-start)
			for i := start; i < end; i++ {
				texts[i-start] = chunks[i].Text
			}

			vecs, err := embedder.EmbedBatch(ctx, texts)
			if err != nil {
				return fmt.Errorf("embed batch at %d: %w", start, err)
			}
			for i := range vecs {
				chunks[start+i].Embedding = vecs[i]
			}
			logger.Debug("Embedded chunks %d-%d of %d", start, end-1, len(chunks))
		}
		cmd.Printf("Embedded %d chunks with %s\n", len(chunks), embedder.ModelName())
	}

	store, err := sqlite.NewStore(dbPath)
	if err != nil {
		return fmt.Errorf("open corpus store: %w", err)
	}
	defer store.Close()

	if err := store.PutChunks(ctx, chunks); err != nil {
		return fmt.Errorf("write chunks: %w", err)
	}

	count, err := store.Count(ctx)
	if err != nil {
		return fmt.Errorf("count chunks: %w", err)
	}
	cmd.Printf("Corpus database now holds %d chunks\n", count)
	return nil
}
