package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/kirillkom/safety-qa/internal/core/domain"
)

type DocumentRepository struct {
	db *sql.DB
}

func NewDocumentRepository(db *sql.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *DocumentRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026082901)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS documents (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	source_url TEXT,
	filename TEXT NOT NULL,
	mime_type TEXT NOT NULL,
	storage_path TEXT NOT NULL,
	status TEXT NOT NULL,
	word_count INTEGER NOT NULL DEFAULT 0,
	error_message TEXT,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS document_texts (
	document_id TEXT PRIMARY KEY REFERENCES documents(id) ON DELETE CASCADE,
	extracted_text TEXT NOT NULL,
	word_count INTEGER NOT NULL,
	extracted_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS build_reports (
	version TEXT PRIMARY KEY,
	documents_total INTEGER NOT NULL,
	documents_processed INTEGER NOT NULL,
	chunks_created INTEGER NOT NULL,
	skipped_chunks INTEGER NOT NULL,
	skipped_documents JSONB NOT NULL DEFAULT '[]'::jsonb,
	started_at TIMESTAMPTZ NOT NULL,
	finished_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_documents_status ON documents(status);
CREATE INDEX IF NOT EXISTS idx_build_reports_started_at ON build_reports(started_at DESC);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *DocumentRepository) Create(ctx context.Context, doc *domain.Document) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO documents (
	id, title, source_url, filename, mime_type, storage_path, status, word_count, error_message, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
`,
		doc.ID, doc.Title, doc.SourceURL, doc.Filename, doc.MimeType, doc.StoragePath,
		string(doc.Status), doc.WordCount, doc.Error, doc.CreatedAt, doc.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, title, source_url, filename, mime_type, storage_path, status, word_count, error_message, created_at, updated_at
FROM documents
WHERE id = $1
`, id)

	var doc domain.Document
	var status string
	var sourceURL sql.NullString
	var errMessage sql.NullString

	err := row.Scan(
		&doc.ID, &doc.Title, &sourceURL, &doc.Filename, &doc.MimeType, &doc.StoragePath,
		&status, &doc.WordCount, &errMessage, &doc.CreatedAt, &doc.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrDocumentNotFound, "get document", fmt.Errorf("id %s", id))
		}
		return nil, fmt.Errorf("scan document: %w", err)
	}

	doc.Status = domain.DocumentStatus(status)
	doc.SourceURL = sourceURL.String
	doc.Error = errMessage.String
	return &doc, nil
}

func (r *DocumentRepository) UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus, errMessage string) error {
	result, err := r.db.ExecContext(ctx, `
UPDATE documents
SET status = $2, error_message = $3, updated_at = $4
WHERE id = $1
`, id, string(status), errMessage, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update document status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update document status result: %w", err)
	}
	if affected == 0 {
		return domain.WrapError(domain.ErrDocumentNotFound, "update document status", fmt.Errorf("id %s", id))
	}
	return nil
}

// SaveExtractedText replaces the document's text wholesale and mirrors the
// word count onto the documents row for listing without a join.
func (r *DocumentRepository) SaveExtractedText(ctx context.Context, id, text string, wordCount int) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin text tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	now := time.Now().UTC()
	_, err = tx.ExecContext(ctx, `
INSERT INTO document_texts (document_id, extracted_text, word_count, extracted_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (document_id) DO UPDATE
SET extracted_text = EXCLUDED.extracted_text,
    word_count = EXCLUDED.word_count,
    extracted_at = EXCLUDED.extracted_at
`, id, text, wordCount, now)
	if err != nil {
		return fmt.Errorf("upsert extracted text: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
UPDATE documents SET word_count = $2, updated_at = $3 WHERE id = $1
`, id, wordCount, now)
	if err != nil {
		return fmt.Errorf("update document word count: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit text tx: %w", err)
	}
	return nil
}

func (r *DocumentRepository) ListExtracted(ctx context.Context) ([]domain.ExtractedDocument, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT d.id, d.title, t.extracted_text, t.word_count
FROM documents d
JOIN document_texts t ON t.document_id = d.id
WHERE d.status = $1
ORDER BY d.id
`, string(domain.StatusExtracted))
	if err != nil {
		return nil, fmt.Errorf("query extracted documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.ExtractedDocument
	for rows.Next() {
		var doc domain.ExtractedDocument
		if err := rows.Scan(&doc.ID, &doc.Title, &doc.Text, &doc.WordCount); err != nil {
			return nil, fmt.Errorf("scan extracted document: %w", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate extracted documents: %w", err)
	}
	return docs, nil
}

func (r *DocumentRepository) SaveBuildReport(ctx context.Context, report *domain.BuildReport) error {
	skippedJSON, err := json.Marshal(report.SkippedDocuments)
	if err != nil {
		return fmt.Errorf("marshal skipped documents: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO build_reports (
	version, documents_total, documents_processed, chunks_created, skipped_chunks, skipped_documents, started_at, finished_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
`,
		report.Version, report.DocumentsTotal, report.DocumentsProcessed, report.ChunksCreated,
		report.SkippedChunks, skippedJSON, report.StartedAt, report.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("insert build report: %w", err)
	}
	return nil
}
