package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/medrag/knowledge-engine/internal/infrastructure/resilience"
)

// Store backs both the document persistence and the hybrid retrieval
// operations over one pgvector-enabled database.
type Store struct {
	db         *sql.DB
	dimensions int
}

func NewStore(db *sql.DB, dimensions int) *Store {
	if dimensions <= 0 {
		dimensions = 1536
	}
	return &Store{db: db, dimensions: dimensions}
}

// OpenDB establishes the connection pool, retrying with bounded exponential
// backoff before giving up: the database may still be coming up when the
// pipeline starts.
func OpenDB(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	executor := resilience.NewExecutor(resilience.EstablishConfig())
	err = executor.Execute(ctx, "postgres_ping", func(ctx context.Context) error {
		return db.PingContext(ctx)
	}, func(error) resilience.ErrorClassification {
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

// EnsureSchema creates the pgvector/pg_trgm schema and the store-side search
// functions. Serialized across concurrent startups via an advisory lock.
func (s *Store) EnsureSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026030801)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	ddl := strings.ReplaceAll(schemaDDL, "{{DIM}}", strconv.Itoa(s.dimensions))
	if _, err := tx.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

// Purge removes every document and chunk row. Used by the clean re-ingest
// path; chunks go with their documents via the FK cascade.
func (s *Store) Purge(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `TRUNCATE documents CASCADE`); err != nil {
		return fmt.Errorf("purge documents: %w", err)
	}
	return nil
}

const schemaDDL = `
CREATE EXTENSION IF NOT EXISTS vector;
CREATE EXTENSION IF NOT EXISTS pg_trgm;

CREATE TABLE IF NOT EXISTS documents (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	source TEXT NOT NULL,
	content TEXT NOT NULL,
	metadata JSONB NOT NULL DEFAULT '{}'::jsonb,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS chunks (
	id TEXT PRIMARY KEY,
	document_id TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
	content TEXT NOT NULL,
	embedding vector({{DIM}}),
	chunk_index INTEGER NOT NULL,
	metadata JSONB NOT NULL DEFAULT '{}'::jsonb,
	token_count INTEGER NOT NULL DEFAULT 0,
	UNIQUE (document_id, chunk_index)
);

CREATE INDEX IF NOT EXISTS idx_chunks_embedding ON chunks
	USING ivfflat (embedding vector_cosine_ops) WITH (lists = 100);
CREATE INDEX IF NOT EXISTS idx_chunks_content_trgm ON chunks
	USING gin (content gin_trgm_ops);
CREATE INDEX IF NOT EXISTS idx_chunks_document ON chunks(document_id);

-- Combined score is a convex combination computed store-side:
-- (1-w) * vector similarity + w * trigram similarity.
-- Ties break on vector similarity, then chunk id.
CREATE OR REPLACE FUNCTION hybrid_search(
	query_embedding vector({{DIM}}),
	query_text TEXT,
	match_count INTEGER DEFAULT 10,
	text_weight DOUBLE PRECISION DEFAULT 0.3
)
RETURNS TABLE (
	chunk_id TEXT,
	document_id TEXT,
	content TEXT,
	combined_score DOUBLE PRECISION,
	vector_similarity DOUBLE PRECISION,
	text_similarity DOUBLE PRECISION,
	metadata JSONB,
	document_title TEXT,
	document_source TEXT
)
LANGUAGE sql STABLE AS $$
	SELECT
		c.id,
		d.id,
		c.content,
		(1 - text_weight) * (1 - (c.embedding <=> query_embedding))
			+ text_weight * similarity(c.content, query_text),
		1 - (c.embedding <=> query_embedding),
		similarity(c.content, query_text),
		c.metadata,
		d.title,
		d.source
	FROM chunks c
	JOIN documents d ON d.id = c.document_id
	WHERE c.embedding IS NOT NULL
	ORDER BY 4 DESC, 5 DESC, c.id
	LIMIT match_count
$$;

CREATE OR REPLACE FUNCTION match_chunks(
	query_embedding vector({{DIM}}),
	match_count INTEGER DEFAULT 10
)
RETURNS TABLE (
	chunk_id TEXT,
	document_id TEXT,
	content TEXT,
	similarity DOUBLE PRECISION,
	metadata JSONB,
	document_title TEXT,
	document_source TEXT
)
LANGUAGE sql STABLE AS $$
	SELECT
		c.id,
		d.id,
		c.content,
		1 - (c.embedding <=> query_embedding),
		c.metadata,
		d.title,
		d.source
	FROM chunks c
	JOIN documents d ON d.id = c.document_id
	WHERE c.embedding IS NOT NULL
	ORDER BY 4 DESC, c.id
	LIMIT match_count
$$;
`

// vectorLiteral renders an embedding in pgvector text format:
// '[1,2,3]' with no spaces.
func vectorLiteral(embedding []float32) string {
	var b strings.Builder
	b.Grow(len(embedding)*10 + 2)
	b.WriteByte('[')
	for i, v := range embedding {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(float64(v), 'f', -1, 32))
	}
	b.WriteByte(']')
	return b.String()
}
