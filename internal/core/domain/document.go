package domain

import "time"

type DocumentStatus string

const (
	StatusUploaded   DocumentStatus = "uploaded"
	StatusExtracting DocumentStatus = "extracting"
	StatusExtracted  DocumentStatus = "extracted"
	StatusFailed     DocumentStatus = "failed"
)

// Document is a single source file from the safety corpus. Metadata and
// extracted text are immutable between extractions; re-extraction replaces
// the text wholesale.
type Document struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	SourceURL   string         `json:"source_url,omitempty"`
	Filename    string         `json:"filename"`
	MimeType    string         `json:"mime_type"`
	StoragePath string         `json:"storage_path"`
	Status      DocumentStatus `json:"status"`
	WordCount   int            `json:"word_count"`
	Error       string         `json:"error,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// ExtractedDocument is the read model the index build consumes: a document
// that already has clean text attached.
type ExtractedDocument struct {
	ID        string
	Title     string
	Text      string
	WordCount int
}
