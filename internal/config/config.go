// Package config defines the explicit configuration structure for the
// retrieval and validation pipeline. All tunables (fusion weights,
// candidate caps, diversity penalty, retry limits) live here; nothing
// is read from implicit globals.
package config

import (
	"fmt"
	"math"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/pranavagrawaI/ShakespeareBot/internal/core/domain"
)

// Config is the full pipeline configuration.
type Config struct {
	Retrieval  Retrieval  `toml:"retrieval"`
	Rerank     Rerank     `toml:"rerank"`
	Diversity  Diversity  `toml:"diversity"`
	Generator  Generator  `toml:"generator"`
	Validation Validation `toml:"validation"`
}

// Retrieval configures the lexical/semantic retrievers and score fusion.
type Retrieval struct {
	// LexicalDepth is the BM25 candidate pool size.
	LexicalDepth int `toml:"lexical_depth"`

	// SemanticDepth caps the vector search candidate pool.
	SemanticDepth int `toml:"semantic_depth"`

	// LexicalWeight and SemanticWeight combine the normalised scores.
	// Must sum to 1.
	LexicalWeight  float64 `toml:"lexical_weight"`
	SemanticWeight float64 `toml:"semantic_weight"`

	// PhraseBoost is added to the fused score of chunks containing an
	// exact phrase match for quote-style queries.
	PhraseBoost float64 `toml:"phrase_boost"`

	// MinPhraseLen is the minimum length, after punctuation stripping,
	// for a phrase to qualify for the boost.
	MinPhraseLen int `toml:"min_phrase_len"`
}

// Rerank configures the cross-encoder stage.
type Rerank struct {
	// Depth is the number of fused candidates sent to the reranker.
	Depth int `toml:"depth"`

	// Timeout bounds one rerank call; on expiry the pipeline falls
	// back to the fused order.
	Timeout time.Duration `toml:"timeout"`
}

// Diversity configures evidence selection.
type Diversity struct {
	// K is the default final evidence count.
	K int `toml:"k"`

	// Lambda is the redundancy penalty in the greedy
	// maximal-marginal-relevance selection. Zero disables the penalty.
	Lambda float64 `toml:"lambda"`

	// MaxPerScene caps how many chunks from one (play, act, scene)
	// may be selected.
	MaxPerScene int `toml:"max_per_scene"`
}

// Generator configures the synthesis call and its retry policy.
type Generator struct {
	// Timeout bounds one generation call.
	Timeout time.Duration `toml:"timeout"`

	// MaxRetries bounds transport-failure retries per call.
	MaxRetries int `toml:"max_retries"`

	// InitialBackoff is the first retry delay; it doubles per attempt.
	InitialBackoff time.Duration `toml:"initial_backoff"`

	// MaxBackoff caps the retry delay.
	MaxBackoff time.Duration `toml:"max_backoff"`
}

// Validation configures citation checking.
type Validation struct {
	// MaxRegenerations is how many times synthesis is retried after a
	// citation failure before refusing. The state machine supports 1.
	MaxRegenerations int `toml:"max_regenerations"`
}

// Default returns the configuration matching the shipped defaults.
func Default() Config {
	return Config{
		Retrieval: Retrieval{
			LexicalDepth:   50,
			SemanticDepth:  50,
			LexicalWeight:  0.4,
			SemanticWeight: 0.6,
			PhraseBoost:    1.0,
			MinPhraseLen:   6,
		},
		Rerank: Rerank{
			Depth:   30,
			Timeout: 10 * time.Second,
		},
		Diversity: Diversity{
			K:           8,
			Lambda:      0.3,
			MaxPerScene: 3,
		},
		Generator: Generator{
			Timeout:        120 * time.Second,
			MaxRetries:     3,
			InitialBackoff: 2 * time.Second,
			MaxBackoff:     16 * time.Second,
		},
		Validation: Validation{
			MaxRegenerations: 1,
		},
	}
}

// Load reads a TOML config file over the defaults. A missing file is
// not an error; the defaults are returned unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate rejects configurations the pipeline cannot run with.
func (c Config) Validate() error {
	if c.Retrieval.LexicalDepth <= 0 || c.Retrieval.SemanticDepth <= 0 {
		return fmt.Errorf("%w: retrieval depths must be positive", domain.ErrInvalidConfig)
	}
	if c.Retrieval.LexicalWeight < 0 || c.Retrieval.SemanticWeight < 0 {
		return fmt.Errorf("%w: fusion weights must be non-negative", domain.ErrInvalidConfig)
	}
	if sum := c.Retrieval.LexicalWeight + c.Retrieval.SemanticWeight; math.Abs(sum-1.0) > 1e-9 {
		return fmt.Errorf("%w: fusion weights must sum to 1, got %.4f", domain.ErrInvalidConfig, sum)
	}
	if c.Rerank.Depth <= 0 {
		return fmt.Errorf("%w: rerank depth must be positive", domain.ErrInvalidConfig)
	}
	if c.Diversity.K <= 0 {
		return fmt.Errorf("%w: k must be positive", domain.ErrInvalidConfig)
	}
	if c.Diversity.Lambda < 0 {
		return fmt.Errorf("%w: lambda must be non-negative", domain.ErrInvalidConfig)
	}
	if c.Diversity.MaxPerScene <= 0 {
		return fmt.Errorf("%w: max_per_scene must be positive", domain.ErrInvalidConfig)
	}
	if c.Generator.MaxRetries < 0 {
		return fmt.Errorf("%w: max_retries must be non-negative", domain.ErrInvalidConfig)
	}
	if c.Validation.MaxRegenerations < 0 {
		return fmt.Errorf("%w: max_regenerations must be non-negative", domain.ErrInvalidConfig)
	}
	return nil
}
