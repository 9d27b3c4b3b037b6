package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/medrag/knowledge-engine/internal/core/domain"
)

// PersistDocument writes the document row and all of its chunk rows in one
// transaction. All-or-nothing: a failed chunk insert rolls back the whole
// document.
func (s *Store) PersistDocument(ctx context.Context, doc *domain.Document, chunks []domain.Chunk) (string, error) {
	metaJSON, err := json.Marshal(doc.Metadata)
	if err != nil {
		return "", fmt.Errorf("marshal document metadata: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin persist tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	documentID := doc.ID
	if documentID == "" {
		documentID = uuid.NewString()
	}

	_, err = tx.ExecContext(ctx, `
INSERT INTO documents (id, title, source, content, metadata, created_at)
VALUES ($1,$2,$3,$4,$5,$6)
`, documentID, doc.Title, doc.Source, doc.Content, metaJSON, doc.CreatedAt)
	if err != nil {
		return "", fmt.Errorf("insert document: %w", err)
	}

	for _, chunk := range chunks {
		chunkMeta, err := json.Marshal(chunk.Metadata)
		if err != nil {
			return "", fmt.Errorf("marshal chunk %d metadata: %w", chunk.Index, err)
		}

		var embedding any
		if len(chunk.Embedding) > 0 {
			embedding = vectorLiteral(chunk.Embedding)
		}

		_, err = tx.ExecContext(ctx, `
INSERT INTO chunks (id, document_id, content, embedding, chunk_index, metadata, token_count)
VALUES ($1,$2,$3,$4::vector,$5,$6,$7)
`, uuid.NewString(), documentID, chunk.Content, embedding, chunk.Index, chunkMeta, chunk.TokenCount)
		if err != nil {
			return "", fmt.Errorf("insert chunk %d: %w", chunk.Index, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit persist tx: %w", err)
	}
	return documentID, nil
}
