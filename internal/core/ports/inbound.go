package ports

import (
	"context"
	"io"

	"github.com/kirillkom/safety-qa/internal/core/domain"
)

// QuestionAnswerer is the inbound contract for retrieval + gated answering.
type QuestionAnswerer interface {
	Ask(ctx context.Context, query string, k int, mode domain.AnswerMode) (*domain.Answer, error)
}

// IndexManager is the inbound contract for the index lifecycle.
type IndexManager interface {
	Rebuild(ctx context.Context) (*domain.BuildReport, error)
	Progress() (domain.BuildProgress, bool)
	Abort() bool
	Status() domain.IndexStatus
}

// DocumentIngestor is the inbound contract for document upload orchestration.
type DocumentIngestor interface {
	Upload(ctx context.Context, title, filename, mimeType string, body io.Reader) (*domain.Document, error)
}

// DocumentProcessor is the inbound contract for asynchronous text extraction.
type DocumentProcessor interface {
	ProcessByID(ctx context.Context, documentID string) error
}

// DocumentReader is the inbound read model for document metadata.
type DocumentReader interface {
	GetByID(ctx context.Context, id string) (*domain.Document, error)
}
