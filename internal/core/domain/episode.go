package domain

import "time"

// Episode is the knowledge-graph write unit, derived one-to-one from a chunk.
// Write-once; the graph store owns it after a successful AddEpisode.
type Episode struct {
	ID                string
	Content           string
	SourceDescription string
	Timestamp         time.Time
	Metadata          map[string]any
}

// GraphResult reports a best-effort episode batch: how many episodes landed
// out of how many chunks, plus the ordered per-chunk error messages.
type GraphResult struct {
	EpisodesCreated int
	TotalChunks     int
	Errors          []string
}
