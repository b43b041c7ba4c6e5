package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kirillkom/safety-qa/internal/core/domain"
	"github.com/kirillkom/safety-qa/internal/core/ports"
)

// ExtractDocumentUseCase runs the worker-side pipeline for one uploaded
// document: fetch metadata, extract and clean text, persist it with a word
// count. Failures land in the document's status so the corpus loader can
// see what needs attention.
type ExtractDocumentUseCase struct {
	repo      ports.DocumentRepository
	extractor ports.TextExtractor
}

func NewExtractDocumentUseCase(
	repo ports.DocumentRepository,
	extractor ports.TextExtractor,
) *ExtractDocumentUseCase {
	return &ExtractDocumentUseCase{
		repo:      repo,
		extractor: extractor,
	}
}

func (uc *ExtractDocumentUseCase) ProcessByID(ctx context.Context, documentID string) error {
	if err := uc.markStatus(ctx, documentID, domain.StatusExtracting, ""); err != nil {
		return fmt.Errorf("set status=extracting: %w", err)
	}

	if err := uc.extractPipeline(ctx, documentID); err != nil {
		if failErr := uc.markFailed(ctx, documentID, err); failErr != nil {
			return fmt.Errorf("%w; mark failed status: %v", err, failErr)
		}
		return err
	}

	if err := uc.markStatus(ctx, documentID, domain.StatusExtracted, ""); err != nil {
		return fmt.Errorf("set status=extracted: %w", err)
	}

	return nil
}

func (uc *ExtractDocumentUseCase) extractPipeline(ctx context.Context, documentID string) error {
	doc, err := uc.repo.GetByID(ctx, documentID)
	if err != nil {
		return fmt.Errorf("fetch document by id: %w", err)
	}

	text, err := uc.extractor.Extract(ctx, doc)
	if err != nil {
		return fmt.Errorf("extract text: %w", err)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return domain.WrapError(domain.ErrEmptyDocument, "extract text", errors.New("no extractable text"))
	}

	wordCount := len(strings.Fields(text))
	if err := uc.repo.SaveExtractedText(ctx, doc.ID, text, wordCount); err != nil {
		return fmt.Errorf("save extracted text: %w", err)
	}

	return nil
}

func (uc *ExtractDocumentUseCase) markStatus(ctx context.Context, documentID string, status domain.DocumentStatus, errMessage string) error {
	return uc.repo.UpdateStatus(ctx, documentID, status, errMessage)
}

func (uc *ExtractDocumentUseCase) markFailed(ctx context.Context, documentID string, processErr error) error {
	if processErr == nil {
		return nil
	}
	return uc.markStatus(ctx, documentID, domain.StatusFailed, processErr.Error())
}
