// Package tei provides a cross-encoder reranker adapter for servers
// exposing the text-embeddings-inference /rerank API (commonly hosting
// ms-marco style cross-encoder models).
package tei

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pranavagrawaI/ShakespeareBot/internal/core/ports/driven"
)

// Ensure Reranker implements the interface.
var _ driven.Reranker = (*Reranker)(nil)

// Default configuration values.
const (
	DefaultModel   = "cross-encoder/ms-marco-MiniLM-L-6-v2"
	DefaultTimeout = 15 * time.Second
)

// Config holds configuration for the reranker adapter.
type Config struct {
	// BaseURL is the server base URL (required), e.g. "http://localhost:8080".
	BaseURL string

	// Model names the hosted cross-encoder, for logging only; the
	// server decides what it runs.
	Model string

	// Timeout is the request timeout.
	Timeout time.Duration
}

// Reranker scores (query, passage) pairs over HTTP.
type Reranker struct {
	client  *http.Client
	baseURL string
	model   string
}

type rerankRequest struct {
	Query string   `json:"query"`
	Texts []string `json:"texts"`
}

type rerankResult struct {
	Index int     `json:"index"`
	Score float64 `json:"score"`
}

// NewReranker creates a new reranker adapter.
func NewReranker(cfg Config) (*Reranker, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("tei: base URL is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Reranker{
		client:  &http.Client{Timeout: cfg.Timeout},
		baseURL: cfg.BaseURL,
		model:   cfg.Model,
	}, nil
}

// Rerank scores each candidate against the query. The response carries
// (index, score) pairs which are mapped back to chunk ids; candidates
// the server omits keep a zero score.
func (r *Reranker) Rerank(ctx context.Context, query string, candidates []driven.RerankCandidate) ([]driven.RerankScore, error) {
	if len(candidates) == 0 {
		return []driven.RerankScore{}, nil
	}

	texts := make([]string, len(candidates))
	for i, c := range candidates {
		texts[i] = c.Text
	}

	jsonBody, err := json.Marshal(rerankRequest{Query: query, Texts: texts})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, r.baseURL+"/rerank", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tei error (status %d): %s", resp.StatusCode, string(body))
	}

	var results []rerankResult
	if err := json.Unmarshal(body, &results); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	scores := make([]driven.RerankScore, len(candidates))
	for i, c := range candidates {
		scores[i] = driven.RerankScore{ChunkID: c.ChunkID}
	}
	for _, res := range results {
		if res.Index >= 0 && res.Index < len(scores) {
			scores[res.Index].Score = res.Score
		}
	}
	return scores, nil
}

// ModelName returns the model identifier for logging.
func (r *Reranker) ModelName() string {
	return r.model
}
