package domain

// ExtractOptions selects which entity category groups run during ingestion.
// Device extraction always runs when extraction itself is enabled.
type ExtractOptions struct {
	Anatomical   bool
	Pathological bool
	Treatments   bool
}

// AllCategories enables every selectable category group.
func AllCategories() ExtractOptions {
	return ExtractOptions{Anatomical: true, Pathological: true, Treatments: true}
}

// IngestionResult aggregates one document's pipeline outcome. Errors being
// non-empty does not imply ChunksCreated == 0: a document can have its chunks
// persisted while graph episodes failed, and that partial success is carried
// as data rather than raised as a failure.
type IngestionResult struct {
	DocumentID           string   `json:"document_id"`
	Title                string   `json:"title"`
	ChunksCreated        int      `json:"chunks_created"`
	EntitiesExtracted    int      `json:"entities_extracted"`
	RelationshipsCreated int      `json:"relationships_created"`
	ProcessingTimeMs     float64  `json:"processing_time_ms"`
	Errors               []string `json:"errors"`
}
