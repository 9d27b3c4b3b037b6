package config

import (
	"testing"

	"github.com/medrag/knowledge-engine/internal/core/domain"
)

func TestLoadIncludesRetrievalDefaults(t *testing.T) {
	t.Setenv("SEARCH_TOP_K", "")
	t.Setenv("SEARCH_CANDIDATES", "")
	t.Setenv("SEARCH_TEXT_WEIGHT", "")
	t.Setenv("EPISODE_MAX_CHARS", "")

	cfg := Load()
	if cfg.SearchTopK != 5 {
		t.Fatalf("expected default top k 5, got %d", cfg.SearchTopK)
	}
	if cfg.SearchCandidates != 15 {
		t.Fatalf("expected default candidates 15, got %d", cfg.SearchCandidates)
	}
	if cfg.SearchTextWeight != 0.3 {
		t.Fatalf("expected default text weight 0.3, got %v", cfg.SearchTextWeight)
	}
	if cfg.EpisodeMaxChars != 6000 {
		t.Fatalf("expected default episode max chars 6000, got %d", cfg.EpisodeMaxChars)
	}
}

func TestValidateRejectsOverlapNotBelowChunkSize(t *testing.T) {
	cfg := Load()
	cfg.ChunkSize = 400
	cfg.ChunkOverlap = 500

	err := cfg.Validate()
	if err == nil {
		t.Fatalf("expected configuration error")
	}
	if !domain.IsKind(err, domain.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}

func TestValidateRejectsCandidatesBelowTopK(t *testing.T) {
	cfg := Load()
	cfg.SearchTopK = 10
	cfg.SearchCandidates = 5

	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected configuration error")
	}
}

func TestValidateRejectsTextWeightOutOfRange(t *testing.T) {
	cfg := Load()
	cfg.SearchTextWeight = 1.5

	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected configuration error")
	}
}

func TestValidateAcceptsDefaults(t *testing.T) {
	if err := Load().Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
}
