package domain

// MetadataKeyEntities is the chunk metadata key written by entity extraction.
const MetadataKeyEntities = "entities"

// Chunk is the atomic unit of retrieval and graph ingestion: a bounded slice
// of a source document's text. The chunker creates chunks; entity extraction
// and embedding enrich them in place; after persistence they are read-only.
type Chunk struct {
	Content     string
	Index       int
	StartOffset int
	EndOffset   int
	TokenCount  int
	Metadata    map[string]any
	Embedding   []float32
}

// Entities returns the per-category term lists written by entity extraction,
// or nil when extraction did not run on this chunk.
func (c *Chunk) Entities() map[string][]string {
	if c.Metadata == nil {
		return nil
	}
	entities, _ := c.Metadata[MetadataKeyEntities].(map[string][]string)
	return entities
}

// SetEntities records extraction output in the chunk metadata.
func (c *Chunk) SetEntities(entities map[string][]string) {
	if c.Metadata == nil {
		c.Metadata = make(map[string]any, 1)
	}
	c.Metadata[MetadataKeyEntities] = entities
}
