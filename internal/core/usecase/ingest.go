package usecase

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/medrag/knowledge-engine/internal/core/domain"
	"github.com/medrag/knowledge-engine/internal/core/ports"
	"github.com/medrag/knowledge-engine/internal/observability/metrics"
)

// IngestOptions selects the optional pipeline stages.
type IngestOptions struct {
	ExtractEntities   bool
	Categories        domain.ExtractOptions
	SkipGraphBuilding bool
}

// IngestUseCase runs the per-document pipeline:
// read -> chunk -> extract entities -> embed -> persist -> build graph.
// Failures are carried in the returned IngestionResult rather than raised:
// a batch caller always gets one result per document.
type IngestUseCase struct {
	reader   ports.SourceReader
	chunker  ports.Chunker
	tagger   ports.EntityTagger
	embedder ports.Embedder
	store    ports.DocumentStore
	graph    *GraphBuildUseCase
	opts     IngestOptions
	logger   *slog.Logger
	metrics  *metrics.IngestMetrics

	documentsDir string
}

func NewIngestUseCase(
	reader ports.SourceReader,
	chunker ports.Chunker,
	tagger ports.EntityTagger,
	embedder ports.Embedder,
	store ports.DocumentStore,
	graph *GraphBuildUseCase,
	opts IngestOptions,
	documentsDir string,
	logger *slog.Logger,
	m *metrics.IngestMetrics,
) *IngestUseCase {
	return &IngestUseCase{
		reader:       reader,
		chunker:      chunker,
		tagger:       tagger,
		embedder:     embedder,
		store:        store,
		graph:        graph,
		opts:         opts,
		documentsDir: documentsDir,
		logger:       logger,
		metrics:      m,
	}
}

var sourcePatterns = []string{".md", ".markdown", ".txt", ".pdf", ".docx", ".xlsx"}

// IngestFolder ingests every supported file under root, one document at a
// time, in sorted path order. Cancellation is honored at document
// boundaries: the current document finishes (or records its failure) before
// the run stops. There is no atomicity across documents.
func (uc *IngestUseCase) IngestFolder(ctx context.Context, root string) ([]domain.IngestionResult, error) {
	files, err := uc.findSourceFiles(root)
	if err != nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "scan documents folder", err)
	}
	if len(files) == 0 {
		uc.logger.Warn("no source files found", "root", root)
		return []domain.IngestionResult{}, nil
	}

	uc.logger.Info("starting folder ingestion", "root", root, "files", len(files))

	results := make([]domain.IngestionResult, 0, len(files))
	for i, path := range files {
		if err := ctx.Err(); err != nil {
			uc.logger.Warn("ingestion canceled", "processed", len(results), "remaining", len(files)-len(results))
			return results, err
		}

		uc.logger.Info("processing file", "position", i+1, "total", len(files), "path", path)
		results = append(results, uc.IngestDocument(ctx, path))
	}

	totalChunks, totalErrors := 0, 0
	for _, r := range results {
		totalChunks += r.ChunksCreated
		totalErrors += len(r.Errors)
	}
	uc.logger.Info("folder ingestion complete",
		"documents", len(results), "chunks", totalChunks, "errors", totalErrors)
	return results, nil
}

// IngestDocument runs the pipeline for a single file. The result is always
// returned; its Errors list carries everything that went wrong, and a
// non-empty list does not mean nothing was persisted.
func (uc *IngestUseCase) IngestDocument(ctx context.Context, path string) domain.IngestionResult {
	start := time.Now()
	uc.metrics.StartDocument()
	result := domain.IngestionResult{
		Title:  titleFromFilename(path),
		Errors: []string{},
	}

	content, err := uc.reader.ReadDocument(ctx, path)
	if err != nil || strings.TrimSpace(content) == "" {
		if err == nil {
			err = fmt.Errorf("document is empty")
		}
		uc.logger.Warn("document unreadable", "path", path, "error", err)
		return uc.finish(result, start, fmt.Sprintf("document is empty or could not be read: %v", err))
	}

	title := extractTitle(content, path)
	source := uc.sourceName(path)
	meta := extractDocumentMetadata(content, path)
	result.Title = title

	chunks := uc.chunker.Split(content)
	if len(chunks) == 0 {
		uc.logger.Warn("no chunks created", "path", path)
		return uc.finish(result, start, "no chunks created")
	}
	result.ChunksCreated = len(chunks)

	if uc.opts.ExtractEntities && uc.tagger != nil {
		result.EntitiesExtracted = uc.tagger.ExtractFromChunks(chunks, uc.opts.Categories)
		uc.logger.Info("entities extracted", "path", path, "count", result.EntitiesExtracted)
	}

	// An embedding failure aborts the whole document: a chunk without an
	// embedding cannot be searched at all.
	if err := uc.embedChunks(ctx, chunks); err != nil {
		return uc.finish(result, start, err.Error())
	}

	doc := &domain.Document{
		Title:     title,
		Source:    source,
		Content:   content,
		Metadata:  meta,
		CreatedAt: time.Now().UTC(),
	}
	documentID, err := uc.store.PersistDocument(ctx, doc, chunks)
	if err != nil {
		return uc.finish(result, start, fmt.Sprintf("persist document: %v", err))
	}
	result.DocumentID = documentID
	uc.logger.Info("document persisted", "document_id", documentID, "chunks", len(chunks))

	// Graph failures never retroactively undo the persisted document.
	if !uc.opts.SkipGraphBuilding && uc.graph != nil {
		graphResult := uc.graph.AddDocumentToGraph(ctx, chunks, title, source, meta)
		result.RelationshipsCreated = graphResult.EpisodesCreated
		result.Errors = append(result.Errors, graphResult.Errors...)
	} else {
		uc.logger.Info("skipping knowledge graph building", "path", path)
	}

	return uc.finish(result, start)
}

func (uc *IngestUseCase) embedChunks(ctx context.Context, chunks []domain.Chunk) error {
	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Content
	}

	vectors, err := uc.embedder.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed chunks: %w", err)
	}
	if len(vectors) != len(chunks) {
		return fmt.Errorf("embed chunks: vectors/chunks mismatch: %d/%d", len(vectors), len(chunks))
	}
	for i := range chunks {
		chunks[i].Embedding = vectors[i]
	}
	return nil
}

func (uc *IngestUseCase) finish(result domain.IngestionResult, start time.Time, errs ...string) domain.IngestionResult {
	result.Errors = append(result.Errors, errs...)
	elapsed := time.Since(start)
	result.ProcessingTimeMs = float64(elapsed) / float64(time.Millisecond)
	uc.metrics.FinishDocument(elapsed, result.ChunksCreated, result.RelationshipsCreated, len(result.Errors))
	return result
}

func (uc *IngestUseCase) findSourceFiles(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		for _, known := range sourcePatterns {
			if ext == known {
				files = append(files, path)
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

func (uc *IngestUseCase) sourceName(path string) string {
	if uc.documentsDir != "" {
		if rel, err := filepath.Rel(uc.documentsDir, path); err == nil && !strings.HasPrefix(rel, "..") {
			return filepath.ToSlash(rel)
		}
	}
	return filepath.Base(path)
}

// extractTitle looks for a markdown level-1 heading in the first ten lines,
// falling back to the filename stem.
func extractTitle(content, path string) string {
	lines := strings.Split(content, "\n")
	if len(lines) > 10 {
		lines = lines[:10]
	}
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "# ") {
			if title := strings.TrimSpace(line[2:]); title != "" {
				return title
			}
		}
	}
	return titleFromFilename(path)
}

func titleFromFilename(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// extractDocumentMetadata collects basic stats plus YAML front matter when
// the document opens with a --- fence.
func extractDocumentMetadata(content, path string) map[string]any {
	meta := map[string]any{
		"file_path":      path,
		"file_size":      len(content),
		"ingestion_date": time.Now().UTC().Format(time.RFC3339),
		"line_count":     strings.Count(content, "\n") + 1,
		"word_count":     len(strings.Fields(content)),
	}

	if strings.HasPrefix(content, "---\n") {
		if end := strings.Index(content[4:], "\n---\n"); end != -1 {
			var front map[string]any
			if err := yaml.Unmarshal([]byte(content[4:4+end]), &front); err == nil {
				for k, v := range front {
					meta[k] = v
				}
			}
		}
	}
	return meta
}
