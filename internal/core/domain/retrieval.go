package domain

// ScoredChunk is a retrieval candidate: a chunk reference plus a relevance
// score in [0,1]. Produced per query, never persisted.
type ScoredChunk struct {
	ChunkID        string         `json:"chunk_id"`
	DocumentID     string         `json:"document_id"`
	Content        string         `json:"content"`
	Score          float64        `json:"score"`
	Metadata       map[string]any `json:"metadata,omitempty"`
	DocumentTitle  string         `json:"document_title"`
	DocumentSource string         `json:"document_source"`
}

// ClampScore bounds a raw model or store score to the [0,1] contract.
func ClampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
