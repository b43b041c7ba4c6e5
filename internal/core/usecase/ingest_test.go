package usecase

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/kirillkom/safety-qa/internal/core/domain"
)

type ingestRepoFake struct {
	created *domain.Document
	err     error
}

func (f *ingestRepoFake) Create(_ context.Context, doc *domain.Document) error {
	if f.err != nil {
		return f.err
	}
	f.created = doc
	return nil
}
func (f *ingestRepoFake) GetByID(context.Context, string) (*domain.Document, error) {
	return nil, domain.ErrDocumentNotFound
}
func (f *ingestRepoFake) UpdateStatus(context.Context, string, domain.DocumentStatus, string) error {
	return nil
}
func (f *ingestRepoFake) SaveExtractedText(context.Context, string, string, int) error { return nil }
func (f *ingestRepoFake) ListExtracted(context.Context) ([]domain.ExtractedDocument, error) {
	return nil, nil
}
func (f *ingestRepoFake) SaveBuildReport(context.Context, *domain.BuildReport) error { return nil }

type storageFake struct {
	key  string
	body string
	err  error
}

func (f *storageFake) Save(_ context.Context, key string, data io.Reader) error {
	if f.err != nil {
		return f.err
	}
	content, _ := io.ReadAll(data)
	f.key = key
	f.body = string(content)
	return nil
}

func (f *storageFake) Open(context.Context, string) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader(f.body)), nil
}

type queueFake struct {
	published []string
	err       error
}

func (f *queueFake) PublishDocumentUploaded(_ context.Context, documentID string) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, documentID)
	return nil
}

func (f *queueFake) SubscribeDocumentUploaded(context.Context, func(context.Context, string) error) error {
	return nil
}

func TestUploadHappyPath(t *testing.T) {
	repo := &ingestRepoFake{}
	storage := &storageFake{}
	queue := &queueFake{}
	uc := NewIngestDocumentUseCase(repo, storage, queue)

	doc, err := uc.Upload(context.Background(), "Crane Operations", "crane rules.pdf", "application/pdf", strings.NewReader("%PDF-1.4"))
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if doc.Status != domain.StatusUploaded {
		t.Fatalf("status = %s, want uploaded", doc.Status)
	}
	if doc.Title != "Crane Operations" {
		t.Fatalf("title = %q", doc.Title)
	}
	if !strings.HasSuffix(storage.key, "_crane_rules.pdf") {
		t.Fatalf("storage key = %q, want sanitized filename suffix", storage.key)
	}
	if storage.body != "%PDF-1.4" {
		t.Fatalf("stored body = %q", storage.body)
	}
	if repo.created == nil || repo.created.ID != doc.ID {
		t.Fatalf("metadata not persisted")
	}
	if len(queue.published) != 1 || queue.published[0] != doc.ID {
		t.Fatalf("published events = %v", queue.published)
	}
}

func TestUploadEmptyTitle(t *testing.T) {
	uc := NewIngestDocumentUseCase(&ingestRepoFake{}, &storageFake{}, &queueFake{})
	_, err := uc.Upload(context.Background(), "  ", "x.txt", "text/plain", strings.NewReader("x"))
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestUploadStorageError(t *testing.T) {
	uc := NewIngestDocumentUseCase(&ingestRepoFake{}, &storageFake{err: errors.New("disk full")}, &queueFake{})
	_, err := uc.Upload(context.Background(), "Doc", "x.txt", "text/plain", strings.NewReader("x"))
	if err == nil || !strings.Contains(err.Error(), "disk full") {
		t.Fatalf("expected storage error, got %v", err)
	}
}

func TestSanitizeFilename(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"report.pdf", "report.pdf"},
		{"отчёт 2024.pdf", "______2024.pdf"},
		{"../../etc/passwd", "passwd"},
		{"", "document.bin"},
	}
	for _, tc := range cases {
		if got := sanitizeFilename(tc.in); got != tc.want {
			t.Fatalf("sanitizeFilename(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
