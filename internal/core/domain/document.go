package domain

import "time"

// Document is the source unit of ingestion. Source is the path of the file
// relative to the ingestion root and doubles as provenance in search results
// and graph episodes.
type Document struct {
	ID        string
	Title     string
	Source    string
	Content   string
	Metadata  map[string]any
	CreatedAt time.Time
}
