package usecase

import (
	"strings"
	"unicode/utf8"

	"github.com/kirillkom/safety-qa/internal/core/domain"
	"github.com/kirillkom/safety-qa/internal/core/ports"
)

const (
	answerChunkLimit = 3
	answerMaxChars   = 500
)

// assembleAnswer applies the confidence gate to the top-ranked candidate and,
// if it clears, builds the answer text from the leading chunks with one
// citation per contributing chunk. A rejection is a normal answer with
// Accepted=false, never an error.
func assembleAnswer(
	query string,
	mode domain.AnswerMode,
	ranked []domain.SearchCandidate,
	snapshot ports.IndexSnapshot,
	cfg domain.RankingConfig,
) *domain.Answer {
	answer := &domain.Answer{
		Query:     query,
		Mode:      mode,
		Citations: []domain.Citation{},
	}
	if len(ranked) == 0 {
		return answer
	}

	top := scoreForMode(ranked[0], mode)
	answer.Confidence = top

	// The threshold is exclusive: exactly 0.3 is rejected.
	if top <= cfg.ConfidenceThreshold {
		return answer
	}

	answer.Accepted = true
	limit := answerChunkLimit
	if limit > len(ranked) {
		limit = len(ranked)
	}

	parts := make([]string, 0, limit)
	for _, candidate := range ranked[:limit] {
		chunk, ok := snapshot.Chunk(candidate.ChunkID)
		if !ok {
			continue
		}
		parts = append(parts, chunk.Text)
		answer.Citations = append(answer.Citations, domain.Citation{
			Title:   chunk.DocumentTitle,
			Ordinal: chunk.Ordinal,
		})
	}
	answer.Text = truncateAtSentence(strings.Join(parts, " "), answerMaxChars)
	return answer
}

func scoreForMode(candidate domain.SearchCandidate, mode domain.AnswerMode) float64 {
	if mode == domain.ModeReranked {
		return candidate.CombinedScore
	}
	return candidate.VectorScore
}

// truncateAtSentence cuts text at the last sentence boundary inside the
// limit, falling back to a hard cut when none exists. The hard cut backs up
// to a rune start so multibyte characters never get split.
func truncateAtSentence(text string, maxChars int) string {
	if len(text) <= maxChars {
		return text
	}

	cutAt := maxChars
	for cutAt > 0 && !utf8.RuneStart(text[cutAt]) {
		cutAt--
	}
	truncated := text[:cutAt]
	cut := -1
	for _, mark := range []string{".", "!", "?"} {
		if idx := strings.LastIndex(truncated, mark); idx > cut {
			cut = idx
		}
	}
	if cut > 0 {
		return truncated[:cut+1] + ".."
	}
	return truncated + "..."
}
