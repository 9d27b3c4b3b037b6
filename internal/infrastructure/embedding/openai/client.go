package openai

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/medrag/knowledge-engine/internal/infrastructure/resilience"
)

// maxBatchSize caps how many inputs go into a single embeddings request.
// The OpenAI-compatible endpoints reject oversized batches with a 400.
const maxBatchSize = 96

type Client struct {
	baseURL    string
	apiKey     string
	model      string
	dimensions int
	httpClient *http.Client
	exec       *resilience.Executor
}

func New(baseURL, apiKey, model string, dimensions int) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		model:      model,
		dimensions: dimensions,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		exec:       resilience.NewExecutor(resilience.DefaultConfig()),
	}
}

type embeddingsRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingsResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

func (c *Client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += maxBatchSize {
		end := start + maxBatchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch, err := c.embedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		vectors = append(vectors, batch...)
	}
	return vectors, nil
}

func (c *Client) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := c.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("empty embedding result")
	}
	return vectors[0], nil
}

func (c *Client) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	request := embeddingsRequest{Model: c.model, Input: texts}

	var response embeddingsResponse
	err := c.exec.Execute(ctx, "embed", func(ctx context.Context) error {
		return c.postJSON(ctx, "/embeddings", request, &response, "embed")
	}, classifyEmbeddingError)
	if err != nil {
		return nil, wrapTemporaryIfNeeded("embed", err)
	}

	if len(response.Data) != len(texts) {
		return nil, fmt.Errorf("embedding count mismatch: sent %d inputs, got %d vectors", len(texts), len(response.Data))
	}

	// The API may return items out of order; the index field is authoritative.
	sort.Slice(response.Data, func(i, j int) bool {
		return response.Data[i].Index < response.Data[j].Index
	})

	vectors := make([][]float32, len(response.Data))
	for i, item := range response.Data {
		if c.dimensions > 0 && len(item.Embedding) != c.dimensions {
			return nil, fmt.Errorf("embedding dimension mismatch: expected %d, got %d", c.dimensions, len(item.Embedding))
		}
		vectors[i] = item.Embedding
	}
	return vectors, nil
}
