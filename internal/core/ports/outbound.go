package ports

import (
	"context"

	"github.com/medrag/knowledge-engine/internal/core/domain"
)

// Embedder builds fixed-length vectors for chunk and query text.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Chunker splits document text into ordered chunks with byte offsets and a
// token estimate. Consumed as a black box by the ingestion pipeline.
type Chunker interface {
	Split(text string) []domain.Chunk
}

// SearchStore exposes the store-side retrieval operations: a combined
// vector+lexical search whose rows already carry the fused score, and a
// pure-vector variant.
type SearchStore interface {
	HybridSearch(ctx context.Context, embedding []float32, queryText string, limit int, textWeight float64) ([]domain.ScoredChunk, error)
	VectorSearch(ctx context.Context, embedding []float32, limit int) ([]domain.ScoredChunk, error)
}

// DocumentStore persists one document row plus all of its chunk rows in a
// single transaction. All-or-nothing: on error nothing is visible to readers.
type DocumentStore interface {
	PersistDocument(ctx context.Context, doc *domain.Document, chunks []domain.Chunk) (string, error)
}

// GraphStore writes knowledge-graph episodes, one call per episode.
type GraphStore interface {
	AddEpisode(ctx context.Context, episode domain.Episode) error
}

// EntityTagger scans chunk text against the entity dictionary and writes the
// matched categories into chunk metadata. Returns the total matched terms.
type EntityTagger interface {
	ExtractFromChunks(chunks []domain.Chunk, opts domain.ExtractOptions) int
}

// Reranker re-scores a candidate set against the literal query text. When the
// underlying relevance model is unavailable Rerank is an identity
// pass-through and Available reports false.
type Reranker interface {
	Rerank(ctx context.Context, query string, candidates []domain.ScoredChunk) []domain.ScoredChunk
	Available() bool
}

// SourceReader turns a source file into plain text.
type SourceReader interface {
	ReadDocument(ctx context.Context, path string) (string, error)
}

// MessageQueue publishes/consumes document ingestion requests.
type MessageQueue interface {
	PublishIngestRequest(ctx context.Context, path string) error
	SubscribeIngestRequests(ctx context.Context, handler func(context.Context, string) error) error
}
