package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"golang.org/x/time/rate"

	"github.com/medrag/knowledge-engine/internal/core/domain"
)

type graphStoreFake struct {
	failIndexes map[int]error
	episodes    []domain.Episode
}

func (f *graphStoreFake) AddEpisode(_ context.Context, episode domain.Episode) error {
	index, _ := episode.Metadata["chunk_index"].(int)
	if err, ok := f.failIndexes[index]; ok {
		return err
	}
	f.episodes = append(f.episodes, episode)
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func unpacedGraphUseCase(store *graphStoreFake) *GraphBuildUseCase {
	return NewGraphBuildUseCase(store, rate.NewLimiter(rate.Inf, 1), 6000, testLogger())
}

func threeChunks() []domain.Chunk {
	return []domain.Chunk{
		{Content: "chunk zero", Index: 0},
		{Content: "chunk one", Index: 1},
		{Content: "chunk two", Index: 2},
	}
}

func TestAddDocumentToGraphIsolatesSingleChunkFailure(t *testing.T) {
	store := &graphStoreFake{failIndexes: map[int]error{1: errors.New("graph down")}}
	uc := unpacedGraphUseCase(store)

	result := uc.AddDocumentToGraph(context.Background(), threeChunks(), "Title", "src.md", nil)

	if result.EpisodesCreated != 2 {
		t.Fatalf("expected 2 episodes created, got %d", result.EpisodesCreated)
	}
	if result.TotalChunks != 3 {
		t.Fatalf("expected 3 total chunks, got %d", result.TotalChunks)
	}
	if len(result.Errors) != 1 {
		t.Fatalf("expected exactly one error, got %v", result.Errors)
	}
	if !strings.Contains(result.Errors[0], "chunk 1") {
		t.Fatalf("error must name the failed chunk index: %q", result.Errors[0])
	}
}

func TestAddDocumentToGraphEmptyInput(t *testing.T) {
	uc := unpacedGraphUseCase(&graphStoreFake{})
	result := uc.AddDocumentToGraph(context.Background(), nil, "Title", "src.md", nil)
	if result.EpisodesCreated != 0 || result.TotalChunks != 0 || len(result.Errors) != 0 {
		t.Fatalf("unexpected result for empty input: %+v", result)
	}
}

func TestAddDocumentToGraphEpisodeCarriesProvenance(t *testing.T) {
	store := &graphStoreFake{}
	uc := unpacedGraphUseCase(store)

	uc.AddDocumentToGraph(context.Background(), threeChunks()[:1], "Shoulder Guide", "guides/shoulder.md", nil)

	if len(store.episodes) != 1 {
		t.Fatalf("expected 1 episode, got %d", len(store.episodes))
	}
	ep := store.episodes[0]
	if ep.ID == "" {
		t.Fatalf("episode id must be set")
	}
	if ep.SourceDescription != "Document: Shoulder Guide (Chunk: 0)" {
		t.Fatalf("unexpected source description %q", ep.SourceDescription)
	}
	if ep.Metadata["document_source"] != "guides/shoulder.md" {
		t.Fatalf("unexpected metadata %v", ep.Metadata)
	}
	if !strings.Contains(ep.Content, "chunk zero") {
		t.Fatalf("episode content missing chunk text: %q", ep.Content)
	}
}

func TestAddDocumentToGraphUniqueEpisodeIDs(t *testing.T) {
	store := &graphStoreFake{}
	uc := unpacedGraphUseCase(store)

	uc.AddDocumentToGraph(context.Background(), threeChunks(), "Title", "src.md", nil)
	uc.AddDocumentToGraph(context.Background(), threeChunks(), "Title", "src.md", nil)

	seen := make(map[string]bool, len(store.episodes))
	for _, ep := range store.episodes {
		if seen[ep.ID] {
			t.Fatalf("duplicate episode id %s across re-ingestion", ep.ID)
		}
		seen[ep.ID] = true
	}
}

func TestAddDocumentToGraphStopsOnCancellation(t *testing.T) {
	store := &graphStoreFake{}
	// A zero-burst limiter can never admit a call, so Wait returns only
	// through context cancellation.
	uc := NewGraphBuildUseCase(store, rate.NewLimiter(0.0001, 1), 6000, testLogger())
	uc.limiter.Allow() // drain the single token

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := uc.AddDocumentToGraph(ctx, threeChunks(), "Title", "src.md", nil)
	if result.EpisodesCreated != 0 {
		t.Fatalf("expected no episodes after cancellation, got %d", result.EpisodesCreated)
	}
	if len(result.Errors) != 1 || !strings.Contains(result.Errors[0], "canceled") {
		t.Fatalf("expected one cancellation error, got %v", result.Errors)
	}
}
