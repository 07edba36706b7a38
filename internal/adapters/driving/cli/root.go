// Package cli provides the command-line interface.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pranavagrawaI/ShakespeareBot/internal/adapters/driven/embedding/openai"
	genopenai "github.com/pranavagrawaI/ShakespeareBot/internal/adapters/driven/generator/openai"
	"github.com/pranavagrawaI/ShakespeareBot/internal/adapters/driven/index/bm25"
	"github.com/pranavagrawaI/ShakespeareBot/internal/adapters/driven/index/cosine"
	"github.com/pranavagrawaI/ShakespeareBot/internal/adapters/driven/reranker/tei"
	"github.com/pranavagrawaI/ShakespeareBot/internal/adapters/driven/storage/sqlite"
	"github.com/pranavagrawaI/ShakespeareBot/internal/config"
	"github.com/pranavagrawaI/ShakespeareBot/internal/core/ports/driven"
	"github.com/pranavagrawaI/ShakespeareBot/internal/core/services"
	"github.com/pranavagrawaI/ShakespeareBot/internal/logger"
)

// version is set at build time via ldflags.
var version = "dev"

// Environment variables consulted for adapter wiring. The API key is
// required for commands that call out to models; the rest are optional
// overrides.
const (
	envAPIKey       = "OPENAI_API_KEY"
	envEmbedBaseURL = "SHAKESPEAREBOT_EMBED_BASE_URL"
	envEmbedModel   = "SHAKESPEAREBOT_EMBED_MODEL"
	envRerankURL    = "SHAKESPEAREBOT_RERANK_URL"
	envGenModel     = "SHAKESPEAREBOT_GEN_MODEL"
	envGenBaseURL   = "SHAKESPEAREBOT_GEN_BASE_URL"
)

var (
	cfgPath string
	verbose bool
	dbPath  string
)

var rootCmd = &cobra.Command{
	Use:   "shakespearebot",
	Short: "Ask questions about the Shakespeare corpus",
	Long: `ShakespeareBot answers natural-language questions about Shakespeare's
plays using hybrid retrieval over an indexed corpus. Every answer cites
the passages it draws on; answers whose citations cannot be verified
against the corpus are refused.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "path to config file (TOML)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "path to the corpus database")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// loadConfig reads the pipeline configuration, falling back to defaults
// when no file is given or present.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// newEmbedder builds the embedding adapter, or returns nil when no API
// key is configured. A nil embedder degrades retrieval to lexical-only.
func newEmbedder() (*openai.EmbeddingService, error) {
	apiKey := os.Getenv(envAPIKey)
	if apiKey == "" {
		return nil, nil
	}
	return openai.NewEmbeddingService(openai.Config{
		APIKey:  apiKey,
		BaseURL: os.Getenv(envEmbedBaseURL),
		Model:   os.Getenv(envEmbedModel),
	})
}

// buildAskService wires the full pipeline: corpus store, in-process
// indexes, and the model adapters.
func buildAskService(ctx context.Context, cfg config.Config) (*services.AskService, func(), error) {
	apiKey := os.Getenv(envAPIKey)
	if apiKey == "" {
		return nil, nil, fmt.Errorf("%s is not set; it is required to generate answers", envAPIKey)
	}

	store, err := sqlite.NewStore(dbPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open corpus store: %w", err)
	}

	chunks, err := store.AllChunks(ctx)
	if err != nil {
		store.Close()
		return nil, nil, fmt.Errorf("load corpus: %w", err)
	}
	if len(chunks) == 0 {
		store.Close()
		return nil, nil, fmt.Errorf("corpus is empty; run 'shakespearebot index' first")
	}
	logger.Debug("Loaded %d chunks from corpus store", len(chunks))

	lexical := bm25.New(chunks)
	vectors := cosine.New(chunks)

	embedder, err := newEmbedder()
	if err != nil {
		store.Close()
		return nil, nil, fmt.Errorf("create embedder: %w", err)
	}

	generator, err := genopenai.NewGenerator(genopenai.Config{
		APIKey:  apiKey,
		BaseURL: os.Getenv(envGenBaseURL),
		Model:   os.Getenv(envGenModel),
		Timeout: cfg.Generator.Timeout,
	})
	if err != nil {
		store.Close()
		return nil, nil, fmt.Errorf("create generator: %w", err)
	}

	// Optional ports are passed as untyped nils so the service's nil
	// checks see them as absent.
	var embPort driven.EmbeddingService
	if embedder != nil {
		embPort = embedder
	}

	var rerankPort driven.Reranker
	if url := os.Getenv(envRerankURL); url != "" {
		r, rerr := tei.NewReranker(tei.Config{BaseURL: url})
		if rerr != nil {
			store.Close()
			return nil, nil, fmt.Errorf("create reranker: %w", rerr)
		}
		rerankPort = r
	}

	svc, err := services.NewAskService(ctx, store, lexical, vectors, embPort, rerankPort, generator, cfg)
	if err != nil {
		store.Close()
		return nil, nil, err
	}

	cleanup := func() {
		if embedder != nil {
			embedder.Close()
		}
		generator.Close()
		store.Close()
	}
	return svc, cleanup, nil
}
