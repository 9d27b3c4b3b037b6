package ports

import (
	"context"

	"github.com/medrag/knowledge-engine/internal/core/domain"
)

// DocumentSearcher is the inbound contract for hybrid retrieval.
type DocumentSearcher interface {
	HybridSearch(ctx context.Context, query string, limit, initialRetrievalSize int) ([]domain.ScoredChunk, error)
}

// DocumentIngestor is the inbound contract for the per-document pipeline.
type DocumentIngestor interface {
	IngestDocument(ctx context.Context, path string) domain.IngestionResult
	IngestFolder(ctx context.Context, root string) ([]domain.IngestionResult, error)
}
