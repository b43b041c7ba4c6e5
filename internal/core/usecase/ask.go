package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kirillkom/safety-qa/internal/core/domain"
	"github.com/kirillkom/safety-qa/internal/core/ports"
)

const defaultTopK = 5

// AskUseCase runs one query through the retrieval pipeline:
// embed -> baseline vector search -> optional hybrid rerank -> confidence
// gate -> answer assembly. Queries only read a published snapshot, so any
// number of them can run in parallel with each other and with a build.
type AskUseCase struct {
	embedder ports.Embedder
	store    ports.IndexStore
	ranking  domain.RankingConfig
}

func NewAskUseCase(embedder ports.Embedder, store ports.IndexStore, ranking domain.RankingConfig) (*AskUseCase, error) {
	if err := ranking.Validate(); err != nil {
		return nil, fmt.Errorf("ranking config: %w", err)
	}
	return &AskUseCase{
		embedder: embedder,
		store:    store,
		ranking:  ranking,
	}, nil
}

func (uc *AskUseCase) Ask(ctx context.Context, query string, k int, mode domain.AnswerMode) (*domain.Answer, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "ask", errors.New("query is empty"))
	}
	if k <= 0 {
		k = defaultTopK
	}
	switch mode {
	case domain.ModeBaseline, domain.ModeReranked:
	case "":
		mode = domain.ModeReranked
	default:
		return nil, domain.WrapError(domain.ErrInvalidInput, "ask", fmt.Errorf("unknown mode %q", mode))
	}

	snapshot, ok := uc.store.Current()
	if !ok {
		return nil, domain.WrapError(domain.ErrIndexNotBuilt, "ask", errors.New("no index version published"))
	}

	queryVector, err := uc.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, domain.WrapError(domain.ErrEmbeddingFailure, "embed query", err)
	}

	candidateK := k * uc.ranking.CandidateMultiplier
	if candidateK < uc.ranking.CandidateFloor {
		candidateK = uc.ranking.CandidateFloor
	}

	hits := snapshot.SearchVector(queryVector, candidateK)
	candidates := make([]domain.SearchCandidate, len(hits))
	for i, hit := range hits {
		candidates[i] = domain.SearchCandidate{
			ChunkID:     hit.ChunkID,
			VectorScore: clipUnit(hit.Score),
			Rank:        i,
		}
	}

	var ranked []domain.SearchCandidate
	if mode == domain.ModeReranked {
		ranked = rerankCandidates(tokenizeQuery(query), snapshot, candidates, uc.ranking, k)
	} else {
		ranked = candidates
		if k < len(ranked) {
			ranked = ranked[:k]
		}
	}

	return assembleAnswer(query, mode, ranked, snapshot, uc.ranking), nil
}
