package ports

import (
	"context"
	"io"

	"github.com/kirillkom/safety-qa/internal/core/domain"
)

// DocumentRepository persists document metadata, extracted text and build
// reports. Extracted text is replaced wholesale on re-extraction.
type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.Document) error
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus, errMessage string) error
	SaveExtractedText(ctx context.Context, id, text string, wordCount int) error
	ListExtracted(ctx context.Context) ([]domain.ExtractedDocument, error)
	SaveBuildReport(ctx context.Context, report *domain.BuildReport) error
}

// ObjectStorage stores source document files.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// MessageQueue publishes/consumes document upload events.
type MessageQueue interface {
	PublishDocumentUploaded(ctx context.Context, documentID string) error
	SubscribeDocumentUploaded(ctx context.Context, handler func(context.Context, string) error) error
}

// TextExtractor extracts plain text from a stored document.
type TextExtractor interface {
	Extract(ctx context.Context, doc *domain.Document) (string, error)
}

// Embedder builds vectors for chunks and query text. The same model must
// serve both sides for cosine similarity to stay meaningful.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Chunker splits clean document text into overlapping word spans.
type Chunker interface {
	Split(text string) ([]domain.ChunkSpan, error)
}
