package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/kirillkom/safety-qa/internal/core/domain"
)

func newRepoWithMock(t *testing.T) (*DocumentRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	return &DocumentRepository{db: db}, mock, func() { _ = db.Close() }
}

func TestGetByIDReturnsDomainNotFound(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectQuery("SELECT id, title, source_url, filename").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "missing")
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestUpdateStatusReturnsDomainNotFoundWhenNoRowsAffected(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectExec("UPDATE documents").
		WithArgs("missing", string(domain.StatusExtracting), "", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateStatus(context.Background(), "missing", domain.StatusExtracting, "")
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestSaveExtractedTextUpsertsAndMirrorsWordCount(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO document_texts").
		WithArgs("doc-1", "clean text", 2, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE documents SET word_count").
		WithArgs("doc-1", 2, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := repo.SaveExtractedText(context.Background(), "doc-1", "clean text", 2); err != nil {
		t.Fatalf("SaveExtractedText() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestListExtractedScansRows(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	rows := sqlmock.NewRows([]string{"id", "title", "extracted_text", "word_count"}).
		AddRow("doc-1", "Crane Operations", "crane text", 120).
		AddRow("doc-2", "Welding Safety", "welding text", 95)
	mock.ExpectQuery("SELECT d.id, d.title, t.extracted_text").
		WithArgs(string(domain.StatusExtracted)).
		WillReturnRows(rows)

	docs, err := repo.ListExtracted(context.Background())
	if err != nil {
		t.Fatalf("ListExtracted() error = %v", err)
	}
	if len(docs) != 2 || docs[1].Title != "Welding Safety" || docs[0].WordCount != 120 {
		t.Fatalf("docs = %+v", docs)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestSaveBuildReportSerializesSkipped(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	now := time.Now().UTC()
	report := &domain.BuildReport{
		Version:            "v1",
		DocumentsTotal:     3,
		DocumentsProcessed: 2,
		ChunksCreated:      10,
		SkippedChunks:      1,
		SkippedDocuments: []domain.SkippedDocument{
			{DocumentID: "doc-3", Title: "Stub", Reason: "document too short: 10 words"},
		},
		StartedAt:  now,
		FinishedAt: now,
	}

	mock.ExpectExec("INSERT INTO build_reports").
		WithArgs("v1", 3, 2, 10, 1, sqlmock.AnyArg(), now, now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.SaveBuildReport(context.Background(), report); err != nil {
		t.Fatalf("SaveBuildReport() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
