package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/medrag/knowledge-engine/internal/core/domain"
	"github.com/medrag/knowledge-engine/internal/core/ports"
)

const defaultEpisodeTimeout = 30 * time.Second

// GraphBuildUseCase writes one episode per chunk to the graph store,
// sequentially, pacing calls through a token-bucket limiter to respect the
// store's rate limits. Episode failures are isolated: a bad chunk is
// recorded and the batch continues.
type GraphBuildUseCase struct {
	graph           ports.GraphStore
	limiter         *rate.Limiter
	logger          *slog.Logger
	maxEpisodeChars int
	episodeTimeout  time.Duration
}

func NewGraphBuildUseCase(
	graph ports.GraphStore,
	limiter *rate.Limiter,
	maxEpisodeChars int,
	logger *slog.Logger,
) *GraphBuildUseCase {
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Limit(2), 1)
	}
	if maxEpisodeChars <= 0 {
		maxEpisodeChars = DefaultEpisodeMaxChars
	}
	return &GraphBuildUseCase{
		graph:           graph,
		limiter:         limiter,
		logger:          logger,
		maxEpisodeChars: maxEpisodeChars,
		episodeTimeout:  defaultEpisodeTimeout,
	}
}

// AddDocumentToGraph writes the document's chunks as episodes, best effort.
// The returned GraphResult carries the created/attempted counts and the
// ordered per-chunk error messages; it never reports a hard failure.
func (uc *GraphBuildUseCase) AddDocumentToGraph(
	ctx context.Context,
	chunks []domain.Chunk,
	documentTitle, documentSource string,
	documentMetadata map[string]any,
) domain.GraphResult {
	result := domain.GraphResult{TotalChunks: len(chunks), Errors: []string{}}
	if len(chunks) == 0 {
		return result
	}

	uc.logger.Info("adding chunks to knowledge graph",
		"document", documentTitle, "chunks", len(chunks))

	for _, chunk := range chunks {
		if err := uc.limiter.Wait(ctx); err != nil {
			result.Errors = append(result.Errors,
				fmt.Sprintf("graph build canceled at chunk %d: %v", chunk.Index, err))
			return result
		}

		episode := uc.buildEpisode(chunk, documentTitle, documentSource, documentMetadata)

		callCtx, cancel := context.WithTimeout(ctx, uc.episodeTimeout)
		err := uc.graph.AddEpisode(callCtx, episode)
		cancel()
		if err != nil {
			msg := fmt.Sprintf("failed to add chunk %d to graph: %v", chunk.Index, err)
			uc.logger.Error("episode write failed",
				"document", documentTitle, "chunk_index", chunk.Index, "error", err)
			result.Errors = append(result.Errors, msg)
			continue
		}
		result.EpisodesCreated++
	}

	uc.logger.Info("graph building complete",
		"document", documentTitle,
		"episodes_created", result.EpisodesCreated,
		"errors", len(result.Errors))
	return result
}

func (uc *GraphBuildUseCase) buildEpisode(chunk domain.Chunk, title, source string, docMeta map[string]any) domain.Episode {
	content := buildEpisodeContent(chunk, title, uc.maxEpisodeChars)
	meta := map[string]any{
		"document_title":   title,
		"document_source":  source,
		"chunk_index":      chunk.Index,
		"original_length":  len(chunk.Content),
		"processed_length": len(content),
	}
	// Document metadata rides along; provenance keys win on collision.
	for k, v := range docMeta {
		if _, taken := meta[k]; !taken {
			meta[k] = v
		}
	}
	return domain.Episode{
		// UUIDs keep re-ingestion retry-safe; provenance lives in metadata.
		ID:                uuid.NewString(),
		Content:           content,
		SourceDescription: fmt.Sprintf("Document: %s (Chunk: %d)", title, chunk.Index),
		Timestamp:         time.Now().UTC(),
		Metadata:          meta,
	}
}
