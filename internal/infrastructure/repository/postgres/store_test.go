package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/medrag/knowledge-engine/internal/core/domain"
)

func newStoreWithMock(t *testing.T) (*Store, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	return NewStore(db, 3), mock, func() { _ = db.Close() }
}

func TestVectorLiteralFormat(t *testing.T) {
	got := vectorLiteral([]float32{1, 0.5, -2})
	if got != "[1,0.5,-2]" {
		t.Fatalf("unexpected vector literal %q", got)
	}
}

func TestPersistDocumentCommitsDocumentAndChunks(t *testing.T) {
	store, mock, done := newStoreWithMock(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO documents").
		WithArgs(sqlmock.AnyArg(), "Title", "src.md", "content", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO chunks").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), "chunk a", "[0.1,0.2,0.3]", 0, sqlmock.AnyArg(), 2).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO chunks").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), "chunk b", nil, 1, sqlmock.AnyArg(), 2).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	doc := &domain.Document{Title: "Title", Source: "src.md", Content: "content", CreatedAt: time.Now().UTC()}
	chunks := []domain.Chunk{
		{Content: "chunk a", Index: 0, TokenCount: 2, Embedding: []float32{0.1, 0.2, 0.3}},
		{Content: "chunk b", Index: 1, TokenCount: 2},
	}

	id, err := store.PersistDocument(context.Background(), doc, chunks)
	if err != nil {
		t.Fatalf("PersistDocument() error = %v", err)
	}
	if id == "" {
		t.Fatalf("expected generated document id")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPersistDocumentRollsBackOnChunkFailure(t *testing.T) {
	store, mock, done := newStoreWithMock(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO documents").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO chunks").
		WillReturnError(errors.New("vector dimension mismatch"))
	mock.ExpectRollback()

	doc := &domain.Document{Title: "Title", Source: "src.md", Content: "content", CreatedAt: time.Now().UTC()}
	chunks := []domain.Chunk{{Content: "chunk a", Index: 0, Embedding: []float32{0.1}}}

	if _, err := store.PersistDocument(context.Background(), doc, chunks); err == nil {
		t.Fatalf("expected error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestHybridSearchScansRowsAndClampsScores(t *testing.T) {
	store, mock, done := newStoreWithMock(t)
	defer done()

	rows := sqlmock.NewRows([]string{
		"chunk_id", "document_id", "content", "combined_score", "metadata", "document_title", "document_source",
	}).
		AddRow("c1", "d1", "rotator cuff anatomy", 0.91, []byte(`{"entities":{}}`), "Shoulder Guide", "guides/shoulder.md").
		AddRow("c2", "d1", "unrelated", 1.25, []byte(`{}`), "Shoulder Guide", "guides/shoulder.md")

	mock.ExpectQuery("FROM hybrid_search").
		WithArgs("[0.1,0.2,0.3]", "rotator cuff", 15, 0.3).
		WillReturnRows(rows)

	out, err := store.HybridSearch(context.Background(), []float32{0.1, 0.2, 0.3}, "rotator cuff", 15, 0.3)
	if err != nil {
		t.Fatalf("HybridSearch() error = %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(out))
	}
	if out[0].ChunkID != "c1" || out[0].Score != 0.91 {
		t.Fatalf("unexpected first row %+v", out[0])
	}
	if out[1].Score != 1.0 {
		t.Fatalf("expected clamped score 1.0, got %v", out[1].Score)
	}
	if out[0].DocumentTitle != "Shoulder Guide" {
		t.Fatalf("unexpected title %q", out[0].DocumentTitle)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestHybridSearchPropagatesQueryError(t *testing.T) {
	store, mock, done := newStoreWithMock(t)
	defer done()

	mock.ExpectQuery("FROM hybrid_search").
		WillReturnError(errors.New("connection refused"))

	if _, err := store.HybridSearch(context.Background(), []float32{0.1}, "q", 5, 0.3); err == nil {
		t.Fatalf("expected error")
	}
}

func TestPurgeTruncatesDocuments(t *testing.T) {
	store, mock, done := newStoreWithMock(t)
	defer done()

	mock.ExpectExec("TRUNCATE documents CASCADE").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := store.Purge(context.Background()); err != nil {
		t.Fatalf("Purge() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPurgePropagatesExecError(t *testing.T) {
	store, mock, done := newStoreWithMock(t)
	defer done()

	mock.ExpectExec("TRUNCATE documents CASCADE").
		WillReturnError(errors.New("permission denied"))

	if err := store.Purge(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
}

func TestVectorSearchScansRows(t *testing.T) {
	store, mock, done := newStoreWithMock(t)
	defer done()

	rows := sqlmock.NewRows([]string{
		"chunk_id", "document_id", "content", "similarity", "metadata", "document_title", "document_source",
	}).AddRow("c1", "d1", "text", 0.8, []byte(`{}`), "T", "s.md")

	mock.ExpectQuery("FROM match_chunks").
		WithArgs("[0.5]", 10).
		WillReturnRows(rows)

	out, err := store.VectorSearch(context.Background(), []float32{0.5}, 10)
	if err != nil {
		t.Fatalf("VectorSearch() error = %v", err)
	}
	if len(out) != 1 || out[0].Score != 0.8 {
		t.Fatalf("unexpected result %+v", out)
	}
}
