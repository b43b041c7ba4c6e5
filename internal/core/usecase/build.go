package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"

	"github.com/kirillkom/safety-qa/internal/core/domain"
	"github.com/kirillkom/safety-qa/internal/core/ports"
)

// BuildIndexUseCase rebuilds both indexes wholesale from the extracted
// corpus and publishes the result as one atomic snapshot swap. Only one
// build may run at a time; per-document failures are recorded in the report
// and never abort the whole build.
type BuildIndexUseCase struct {
	repo     ports.DocumentRepository
	chunker  ports.Chunker
	embedder ports.Embedder
	builder  ports.IndexBuilder
	store    ports.IndexStore
	logger   *slog.Logger

	minDocumentWords int
	poolSize         int

	building atomic.Bool

	mu       sync.Mutex
	progress domain.BuildProgress
	cancel   context.CancelFunc
}

func NewBuildIndexUseCase(
	repo ports.DocumentRepository,
	chunker ports.Chunker,
	embedder ports.Embedder,
	builder ports.IndexBuilder,
	store ports.IndexStore,
	minDocumentWords int,
	poolSize int,
	logger *slog.Logger,
) *BuildIndexUseCase {
	if poolSize < 1 {
		poolSize = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &BuildIndexUseCase{
		repo:             repo,
		chunker:          chunker,
		embedder:         embedder,
		builder:          builder,
		store:            store,
		logger:           logger,
		minDocumentWords: minDocumentWords,
		poolSize:         poolSize,
	}
}

type documentResult struct {
	chunks        []domain.Chunk
	vectors       [][]float32
	skipped       *domain.SkippedDocument
	skippedChunks int
}

func (uc *BuildIndexUseCase) Rebuild(ctx context.Context) (*domain.BuildReport, error) {
	if !uc.building.CompareAndSwap(false, true) {
		return nil, domain.WrapError(domain.ErrRebuildInProgress, "rebuild", errors.New("another build holds the slot"))
	}
	defer uc.building.Store(false)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	report := &domain.BuildReport{
		Version:          uuid.NewString(),
		SkippedDocuments: []domain.SkippedDocument{},
		StartedAt:        time.Now().UTC(),
	}

	docs, err := uc.repo.ListExtracted(ctx)
	if err != nil {
		return nil, fmt.Errorf("list extracted documents: %w", err)
	}
	report.DocumentsTotal = len(docs)

	uc.mu.Lock()
	uc.cancel = cancel
	uc.progress = domain.BuildProgress{
		DocumentsTotal: len(docs),
		StartedAt:      report.StartedAt,
	}
	uc.mu.Unlock()
	defer func() {
		uc.mu.Lock()
		uc.cancel = nil
		uc.mu.Unlock()
	}()

	results, err := uc.processDocuments(ctx, docs)
	if err != nil {
		return nil, err
	}

	var chunks []domain.Chunk
	var vectors [][]float32
	for _, result := range results {
		if result.skipped != nil {
			report.SkippedDocuments = append(report.SkippedDocuments, *result.skipped)
			report.SkippedChunks += result.skippedChunks
			continue
		}
		report.DocumentsProcessed++
		report.SkippedChunks += result.skippedChunks
		chunks = append(chunks, result.chunks...)
		vectors = append(vectors, result.vectors...)
	}

	if err := ctx.Err(); err != nil {
		uc.logger.Warn("index build aborted", "version", report.Version)
		return nil, fmt.Errorf("build aborted: %w", err)
	}
	if len(chunks) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "rebuild", errors.New("no chunks produced from corpus"))
	}

	snapshot, err := uc.builder.Build(report.Version, chunks, vectors)
	if err != nil {
		return nil, fmt.Errorf("build index snapshot: %w", err)
	}

	// Single publication point: queries see either the old version or this
	// one, with vector and keyword sides always from the same chunk set.
	uc.store.Publish(snapshot)

	report.ChunksCreated = len(chunks)
	report.FinishedAt = time.Now().UTC()

	if err := uc.repo.SaveBuildReport(ctx, report); err != nil {
		uc.logger.Error("persist build report", "version", report.Version, "error", err)
	}

	uc.logger.Info("index build published",
		"version", report.Version,
		"documents", report.DocumentsProcessed,
		"chunks", report.ChunksCreated,
		"skipped_documents", len(report.SkippedDocuments),
		"skipped_chunks", report.SkippedChunks,
	)
	return report, nil
}

func (uc *BuildIndexUseCase) processDocuments(ctx context.Context, docs []domain.ExtractedDocument) ([]documentResult, error) {
	pool, err := ants.NewPool(uc.poolSize)
	if err != nil {
		return nil, fmt.Errorf("create build pool: %w", err)
	}
	defer pool.Release()

	results := make([]documentResult, len(docs))
	var wg sync.WaitGroup

	for i := range docs {
		if ctx.Err() != nil {
			break
		}
		i := i
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			results[i] = uc.processDocument(ctx, docs[i])
			uc.advanceProgress(len(results[i].chunks))
		})
		if submitErr != nil {
			wg.Done()
			results[i] = documentResult{skipped: &domain.SkippedDocument{
				DocumentID: docs[i].ID,
				Title:      docs[i].Title,
				Reason:     fmt.Sprintf("submit build task: %v", submitErr),
			}}
		}
	}
	wg.Wait()
	return results, nil
}

func (uc *BuildIndexUseCase) processDocument(ctx context.Context, doc domain.ExtractedDocument) documentResult {
	skip := func(reason string) documentResult {
		return documentResult{skipped: &domain.SkippedDocument{
			DocumentID: doc.ID,
			Title:      doc.Title,
			Reason:     reason,
		}}
	}

	if doc.WordCount < uc.minDocumentWords {
		return skip(fmt.Sprintf("document too short: %d words", doc.WordCount))
	}

	spans, err := uc.chunker.Split(doc.Text)
	if err != nil {
		if domain.IsKind(err, domain.ErrEmptyDocument) {
			return skip("no extractable text")
		}
		return skip(fmt.Sprintf("chunking failed: %v", err))
	}

	texts := make([]string, len(spans))
	for i, span := range spans {
		texts[i] = span.Text
	}

	vectors, err := uc.embedder.Embed(ctx, texts)
	if err != nil {
		// Embedding failures are isolated to this document's chunks; the
		// build keeps going with the rest of the corpus.
		uc.logger.Warn("embed document chunks", "document_id", doc.ID, "error", err)
		result := skip(fmt.Sprintf("embedding failed: %v", err))
		result.skippedChunks = len(spans)
		return result
	}
	if len(vectors) != len(spans) {
		result := skip(fmt.Sprintf("embedding result mismatch: %d vectors for %d chunks", len(vectors), len(spans)))
		result.skippedChunks = len(spans)
		return result
	}

	chunks := make([]domain.Chunk, len(spans))
	for i, span := range spans {
		chunks[i] = domain.Chunk{
			ID:            domain.ChunkID(doc.ID, i),
			DocumentID:    doc.ID,
			DocumentTitle: doc.Title,
			Ordinal:       i,
			Text:          span.Text,
			WordCount:     span.WordCount,
		}
	}
	return documentResult{chunks: chunks, vectors: vectors}
}

func (uc *BuildIndexUseCase) advanceProgress(chunks int) {
	uc.mu.Lock()
	uc.progress.DocumentsProcessed++
	uc.progress.ChunksEmbedded += chunks
	uc.mu.Unlock()
}

// Progress reports the in-flight build, if any.
func (uc *BuildIndexUseCase) Progress() (domain.BuildProgress, bool) {
	if !uc.building.Load() {
		return domain.BuildProgress{}, false
	}
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return uc.progress, true
}

// Abort cancels the in-flight build. The previously published version stays
// untouched and queryable.
func (uc *BuildIndexUseCase) Abort() bool {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	if uc.cancel == nil {
		return false
	}
	uc.cancel()
	return true
}

// Status combines the build flag with the published snapshot.
func (uc *BuildIndexUseCase) Status() domain.IndexStatus {
	if uc.building.Load() {
		return domain.IndexStatus{State: domain.IndexBuilding}
	}
	snapshot, ok := uc.store.Current()
	if !ok {
		return domain.IndexStatus{State: domain.IndexEmpty}
	}
	return domain.IndexStatus{
		State:      domain.IndexReady,
		ChunkCount: snapshot.ChunkCount(),
		Version:    snapshot.Version(),
	}
}
