package crossencoder

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/medrag/knowledge-engine/internal/core/domain"
)

// Client scores query/passage pairs against an external cross-encoder
// service. When the service cannot be reached at construction time the
// client stays in passthrough mode and Rerank returns its input unchanged.
type Client struct {
	baseURL    string
	model      string
	httpClient *http.Client
	logger     *slog.Logger

	// The scoring endpoint runs a single model instance; concurrent
	// requests are serialized so they cannot interleave on it.
	mu        sync.Mutex
	available bool
}

func New(baseURL, model string, logger *slog.Logger) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
	}
	c.available = c.probe()
	if !c.available {
		logger.Warn("reranker unavailable, search runs in passthrough mode", "url", baseURL)
	}
	return c
}

func (c *Client) Available() bool {
	return c.available
}

// probe checks the service health endpoint with a short deadline so a
// missing reranker does not stall startup.
func (c *Client) probe() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode < 300
}

type rerankRequest struct {
	Model     string   `json:"model"`
	Query     string   `json:"query"`
	Documents []string `json:"documents"`
}

type rerankResponse struct {
	Scores []float64 `json:"scores"`
}

// Rerank reorders candidates by pairwise relevance to the query. The
// returned slice holds the same chunks with replaced scores. Any scoring
// failure degrades that call to passthrough instead of failing the search.
func (c *Client) Rerank(ctx context.Context, query string, candidates []domain.ScoredChunk) []domain.ScoredChunk {
	if !c.available || len(candidates) == 0 {
		return candidates
	}

	scores, err := c.score(ctx, query, candidates)
	if err != nil {
		c.logger.Warn("rerank failed, returning candidates unranked", "error", err)
		return candidates
	}

	reranked := make([]domain.ScoredChunk, len(candidates))
	copy(reranked, candidates)
	// Cross-encoder models emit raw logits, routinely outside [0,1]. The
	// ordering must come from the raw scores; clamping happens only for the
	// stored score field, after sorting, or distinct logits on the same side
	// of the clamp range would collapse into ties.
	sortByRawScoreDesc(reranked, scores)
	for i := range reranked {
		reranked[i].Score = domain.ClampScore(scores[i])
	}
	return reranked
}

func (c *Client) score(ctx context.Context, query string, candidates []domain.ScoredChunk) ([]float64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	documents := make([]string, len(candidates))
	for i, candidate := range candidates {
		documents[i] = candidate.Content
	}

	var response rerankResponse
	if err := c.postJSON(ctx, "/rerank", rerankRequest{Model: c.model, Query: query, Documents: documents}, &response, "rerank"); err != nil {
		return nil, err
	}
	if len(response.Scores) != len(candidates) {
		return nil, fmt.Errorf("score count mismatch: sent %d documents, got %d scores", len(candidates), len(response.Scores))
	}
	return response.Scores, nil
}

// sortByRawScoreDesc is a stable insertion sort over the parallel raw-score
// slice; candidate sets are small and ties must keep their incoming order.
func sortByRawScoreDesc(chunks []domain.ScoredChunk, scores []float64) {
	for i := 1; i < len(chunks); i++ {
		for j := i; j > 0 && scores[j] > scores[j-1]; j-- {
			scores[j], scores[j-1] = scores[j-1], scores[j]
			chunks[j], chunks[j-1] = chunks[j-1], chunks[j]
		}
	}
}
