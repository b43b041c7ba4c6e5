package domain

import "time"

// SkippedDocument records one document the build left out, with the reason.
// Skips are partial success, not failures: the build continues.
type SkippedDocument struct {
	DocumentID string `json:"document_id"`
	Title      string `json:"title"`
	Reason     string `json:"reason"`
}

// BuildReport summarizes one full index rebuild.
type BuildReport struct {
	Version            string            `json:"version"`
	DocumentsTotal     int               `json:"documents_total"`
	DocumentsProcessed int               `json:"documents_processed"`
	ChunksCreated      int               `json:"chunks_created"`
	SkippedDocuments   []SkippedDocument `json:"skipped_documents"`
	SkippedChunks      int               `json:"skipped_chunks"`
	StartedAt          time.Time         `json:"started_at"`
	FinishedAt         time.Time         `json:"finished_at"`
}

// BuildProgress is a point-in-time view of an in-flight build.
type BuildProgress struct {
	DocumentsTotal     int       `json:"documents_total"`
	DocumentsProcessed int       `json:"documents_processed"`
	ChunksEmbedded     int       `json:"chunks_embedded"`
	StartedAt          time.Time `json:"started_at"`
}
