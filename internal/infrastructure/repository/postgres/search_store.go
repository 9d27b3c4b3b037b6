package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/medrag/knowledge-engine/internal/core/domain"
)

// HybridSearch runs the store-side fused search. Rows come back best first,
// each carrying the combined (1-w)*vector + w*text score.
func (s *Store) HybridSearch(
	ctx context.Context,
	embedding []float32,
	queryText string,
	limit int,
	textWeight float64,
) ([]domain.ScoredChunk, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT chunk_id, document_id, content, combined_score, metadata, document_title, document_source
FROM hybrid_search($1::vector, $2, $3, $4)
`, vectorLiteral(embedding), queryText, limit, textWeight)
	if err != nil {
		return nil, fmt.Errorf("hybrid search query: %w", err)
	}
	defer rows.Close()

	return scanScoredChunks(rows)
}

// VectorSearch is the pure-vector variant.
func (s *Store) VectorSearch(ctx context.Context, embedding []float32, limit int) ([]domain.ScoredChunk, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT chunk_id, document_id, content, similarity, metadata, document_title, document_source
FROM match_chunks($1::vector, $2)
`, vectorLiteral(embedding), limit)
	if err != nil {
		return nil, fmt.Errorf("vector search query: %w", err)
	}
	defer rows.Close()

	return scanScoredChunks(rows)
}

type scannableRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanScoredChunks(rows scannableRows) ([]domain.ScoredChunk, error) {
	var out []domain.ScoredChunk
	for rows.Next() {
		var (
			chunk   domain.ScoredChunk
			metaRaw []byte
		)
		if err := rows.Scan(
			&chunk.ChunkID, &chunk.DocumentID, &chunk.Content, &chunk.Score,
			&metaRaw, &chunk.DocumentTitle, &chunk.DocumentSource,
		); err != nil {
			return nil, fmt.Errorf("scan search row: %w", err)
		}
		if len(metaRaw) > 0 {
			if err := json.Unmarshal(metaRaw, &chunk.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshal chunk metadata: %w", err)
			}
		}
		chunk.Score = domain.ClampScore(chunk.Score)
		out = append(out, chunk)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate search rows: %w", err)
	}
	return out, nil
}
