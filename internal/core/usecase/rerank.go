package usecase

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/kirillkom/safety-qa/internal/core/domain"
	"github.com/kirillkom/safety-qa/internal/core/ports"
)

// rerankCandidates rescores the baseline candidate set with the four hybrid
// signals and returns the top k by combined score. Pure function over the
// snapshot: no index mutation, deterministic for a fixed snapshot and query.
func rerankCandidates(
	queryTokens []string,
	snapshot ports.IndexSnapshot,
	candidates []domain.SearchCandidate,
	cfg domain.RankingConfig,
	k int,
) []domain.SearchCandidate {
	if len(candidates) == 0 {
		return candidates
	}

	out := make([]domain.SearchCandidate, len(candidates))
	copy(out, candidates)

	maxBM25 := 0.0
	rawBM25 := make([]float64, len(out))
	for i := range out {
		rawBM25[i] = snapshot.KeywordScore(queryTokens, out[i].ChunkID)
		if rawBM25[i] > maxBM25 {
			maxBM25 = rawBM25[i]
		}
	}

	for i := range out {
		chunk, ok := snapshot.Chunk(out[i].ChunkID)
		if !ok {
			continue
		}
		if maxBM25 > 0 {
			out[i].BM25Score = rawBM25[i] / maxBM25
		}
		out[i].TitleScore = titleScore(queryTokens, chunk.DocumentTitle)
		out[i].LengthScore = lengthScore(chunk.WordCount, cfg.ChunkTargetSize)
		out[i].CombinedScore = cfg.VectorWeight*out[i].VectorScore +
			cfg.BM25Weight*out[i].BM25Score +
			cfg.TitleWeight*out[i].TitleScore +
			cfg.LengthWeight*out[i].LengthScore
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CombinedScore != out[j].CombinedScore {
			return out[i].CombinedScore > out[j].CombinedScore
		}
		if out[i].Rank != out[j].Rank {
			return out[i].Rank < out[j].Rank
		}
		return out[i].ChunkID < out[j].ChunkID
	})

	if k > 0 && k < len(out) {
		out = out[:k]
	}
	return out
}

// titleScore is binary: any query token appearing in the owning document's
// title counts as a match.
func titleScore(queryTokens []string, title string) float64 {
	if len(queryTokens) == 0 || title == "" {
		return 0
	}
	titleTokens := toTokenSet(title)
	for _, token := range queryTokens {
		if _, ok := titleTokens[token]; ok {
			return 1
		}
	}
	return 0
}

// lengthScore is 1.0 for chunks inside the +-20% band around the target size
// and decays linearly to 0 outside it, one full target size past the band.
func lengthScore(wordCount, targetSize int) float64 {
	if targetSize <= 0 {
		return 0
	}
	band := 0.2 * float64(targetSize)
	excess := math.Abs(float64(wordCount-targetSize)) - band
	if excess <= 0 {
		return 1
	}
	score := 1 - excess/float64(targetSize)
	if score < 0 {
		return 0
	}
	return score
}

func clipUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func toTokenSet(s string) map[string]struct{} {
	tokens := tokenizeQuery(s)
	out := make(map[string]struct{}, len(tokens))
	for _, token := range tokens {
		out[token] = struct{}{}
	}
	return out
}

// tokenizeQuery mirrors the keyword index tokenization: lower-case runs of
// letters and digits.
func tokenizeQuery(s string) []string {
	if s == "" {
		return nil
	}

	tokens := make([]string, 0, 16)
	var b strings.Builder
	for _, r := range s {
		r = unicode.ToLower(r)
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			continue
		}
		if b.Len() > 0 {
			tokens = append(tokens, b.String())
			b.Reset()
		}
	}
	if b.Len() > 0 {
		tokens = append(tokens, b.String())
	}
	return tokens
}
