package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/medrag/knowledge-engine/internal/core/domain"
	"github.com/medrag/knowledge-engine/internal/core/ports"
	"github.com/medrag/knowledge-engine/internal/observability/metrics"
)

const (
	defaultFinalLimit           = 5
	defaultInitialRetrievalSize = 15
)

// SearchUseCase composes query embedding, store-side hybrid retrieval and
// cross-encoder reranking into the hybrid-search operation. Retrieval is
// wide and cheap, reranking narrow and precise: the store returns a broad
// candidate pool which the reranker re-orders before the final cut.
//
// Stateless; safe for concurrent callers.
type SearchUseCase struct {
	embedder   ports.Embedder
	store      ports.SearchStore
	reranker   ports.Reranker
	textWeight float64
	logger     *slog.Logger
	metrics    *metrics.SearchMetrics
}

func NewSearchUseCase(
	embedder ports.Embedder,
	store ports.SearchStore,
	reranker ports.Reranker,
	textWeight float64,
	logger *slog.Logger,
	m *metrics.SearchMetrics,
) *SearchUseCase {
	if textWeight < 0 || textWeight > 1 {
		textWeight = 0.3
	}
	m.SetRerankerAvailable(reranker.Available())
	return &SearchUseCase{
		embedder:   embedder,
		store:      store,
		reranker:   reranker,
		textWeight: textWeight,
		logger:     logger,
		metrics:    m,
	}
}

// HybridSearch returns up to limit candidates for the query, best first.
// An embedding failure aborts with an error. A store failure degrades to an
// empty result: logged and counted, never surfaced to the caller.
func (uc *SearchUseCase) HybridSearch(
	ctx context.Context,
	query string,
	limit, initialRetrievalSize int,
) ([]domain.ScoredChunk, error) {
	start := time.Now()

	if limit <= 0 {
		limit = defaultFinalLimit
	}
	if initialRetrievalSize <= 0 {
		initialRetrievalSize = defaultInitialRetrievalSize
	}
	if initialRetrievalSize < limit {
		initialRetrievalSize = limit
	}

	embedding, err := uc.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	candidates, err := uc.store.HybridSearch(ctx, embedding, query, initialRetrievalSize, uc.textWeight)
	if err != nil {
		uc.logger.Error("hybrid search store failure, returning empty result",
			"query_len", len(query), "error", err)
		uc.metrics.ObserveSearch("search", metrics.SearchOutcomeDegradedStore, time.Since(start))
		return []domain.ScoredChunk{}, nil
	}
	if len(candidates) == 0 {
		uc.metrics.ObserveSearch("search", metrics.SearchOutcomeEmpty, time.Since(start))
		return []domain.ScoredChunk{}, nil
	}

	reranked := uc.reranker.Rerank(ctx, query, candidates)
	if len(reranked) > limit {
		reranked = reranked[:limit]
	}

	uc.metrics.ObserveSearch("search", metrics.SearchOutcomeOK, time.Since(start))
	return reranked, nil
}
