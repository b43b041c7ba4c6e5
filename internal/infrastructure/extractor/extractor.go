package extractor

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/kirillkom/safety-qa/internal/core/domain"
	"github.com/kirillkom/safety-qa/internal/core/ports"
)

// Extractor pulls the stored source file and routes it to a format handler
// by extension, falling back to the declared MIME type. Every handler
// returns raw text; artifact cleanup happens once here so all formats feed
// the chunker the same way.
type Extractor struct {
	storage ports.ObjectStorage
}

func New(storage ports.ObjectStorage) *Extractor {
	return &Extractor{storage: storage}
}

func (e *Extractor) Extract(ctx context.Context, doc *domain.Document) (string, error) {
	reader, err := e.storage.Open(ctx, doc.StoragePath)
	if err != nil {
		return "", fmt.Errorf("open source document: %w", err)
	}
	defer reader.Close()

	raw, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("read source document: %w", err)
	}

	text, err := e.extractByFormat(doc, raw)
	if err != nil {
		return "", err
	}
	return CleanText(text), nil
}

func (e *Extractor) extractByFormat(doc *domain.Document, raw []byte) (string, error) {
	switch detectFormat(doc.Filename, doc.MimeType) {
	case formatPDF:
		return fromPDF(raw)
	case formatXLSX:
		return fromXLSX(raw)
	default:
		return fromPlainText(raw, doc.Filename)
	}
}

type format int

const (
	formatPlainText format = iota
	formatPDF
	formatXLSX
)

func detectFormat(filename, mimeType string) format {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return formatPDF
	case ".xlsx", ".xlsm":
		return formatXLSX
	case ".txt", ".md", ".csv":
		return formatPlainText
	}

	switch mimeType {
	case "application/pdf":
		return formatPDF
	case "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":
		return formatXLSX
	}
	return formatPlainText
}
