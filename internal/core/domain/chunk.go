package domain

import "fmt"

// Chunk is a fixed-size overlapping word span of a document, the atomic unit
// of indexing and citation. Chunks are created during an index build and never
// mutated; a rebuild replaces the whole set.
type Chunk struct {
	ID            string `json:"id"`
	DocumentID    string `json:"document_id"`
	DocumentTitle string `json:"document_title"`
	Ordinal       int    `json:"ordinal"`
	Text          string `json:"text"`
	WordCount     int    `json:"word_count"`
}

// ChunkSpan is one piece of split text before it is bound to a document.
type ChunkSpan struct {
	Text      string
	WordCount int
}

// ChunkID builds the stable per-build chunk identifier.
func ChunkID(documentID string, ordinal int) string {
	return fmt.Sprintf("%s:%d", documentID, ordinal)
}
