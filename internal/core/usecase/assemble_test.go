package usecase

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/kirillkom/safety-qa/internal/core/domain"
)

func assembleSnapshot() *stubSnapshot {
	return &stubSnapshot{
		version: "v1",
		chunks: map[string]domain.Chunk{
			"a:0": {ID: "a:0", DocumentID: "a", DocumentTitle: "Lockout Procedures", Ordinal: 0, Text: "Isolate energy sources before maintenance.", WordCount: 280},
			"a:1": {ID: "a:1", DocumentID: "a", DocumentTitle: "Lockout Procedures", Ordinal: 1, Text: "Tags must name the responsible person.", WordCount: 290},
			"b:0": {ID: "b:0", DocumentID: "b", DocumentTitle: "Confined Spaces", Ordinal: 0, Text: "Test the atmosphere before entry.", WordCount: 310},
			"b:1": {ID: "b:1", DocumentID: "b", DocumentTitle: "Confined Spaces", Ordinal: 1, Text: "Keep a standby attendant outside.", WordCount: 305},
		},
	}
}

func rankedWith(scores ...float64) []domain.SearchCandidate {
	ids := []string{"a:0", "a:1", "b:0", "b:1"}
	out := make([]domain.SearchCandidate, len(scores))
	for i, score := range scores {
		out[i] = domain.SearchCandidate{ChunkID: ids[i], VectorScore: score, CombinedScore: score, Rank: i}
	}
	return out
}

func TestAssembleEmptyCandidates(t *testing.T) {
	answer := assembleAnswer("q", domain.ModeReranked, nil, assembleSnapshot(), domain.DefaultRankingConfig())
	if answer.Accepted {
		t.Fatalf("empty candidate set must be rejected")
	}
	if answer.Confidence != 0 {
		t.Fatalf("confidence = %v, want 0", answer.Confidence)
	}
	if answer.Citations == nil || len(answer.Citations) != 0 {
		t.Fatalf("citations must be an empty slice, got %#v", answer.Citations)
	}
}

func TestAssembleRejectsAtThreshold(t *testing.T) {
	answer := assembleAnswer("q", domain.ModeReranked, rankedWith(0.3, 0.2), assembleSnapshot(), domain.DefaultRankingConfig())
	if answer.Accepted {
		t.Fatalf("score equal to threshold must be rejected")
	}
	if answer.Confidence != 0.3 {
		t.Fatalf("confidence = %v, want 0.3", answer.Confidence)
	}
	if answer.Text != "" {
		t.Fatalf("rejected answer must carry no text, got %q", answer.Text)
	}
}

func TestAssembleJoinsTopThree(t *testing.T) {
	answer := assembleAnswer("q", domain.ModeReranked, rankedWith(0.9, 0.8, 0.7, 0.6), assembleSnapshot(), domain.DefaultRankingConfig())
	if !answer.Accepted {
		t.Fatalf("expected accepted answer")
	}
	want := "Isolate energy sources before maintenance. Tags must name the responsible person. Test the atmosphere before entry."
	if answer.Text != want {
		t.Fatalf("text = %q, want %q", answer.Text, want)
	}
	if len(answer.Citations) != 3 {
		t.Fatalf("expected 3 citations, got %d", len(answer.Citations))
	}
	if answer.Citations[2].Title != "Confined Spaces" || answer.Citations[2].Ordinal != 0 {
		t.Fatalf("third citation = %+v", answer.Citations[2])
	}
}

func TestAssembleModeSelectsScore(t *testing.T) {
	ranked := []domain.SearchCandidate{{ChunkID: "a:0", VectorScore: 0.2, CombinedScore: 0.8, Rank: 0}}
	cfg := domain.DefaultRankingConfig()

	reranked := assembleAnswer("q", domain.ModeReranked, ranked, assembleSnapshot(), cfg)
	if !reranked.Accepted || reranked.Confidence != 0.8 {
		t.Fatalf("reranked gate = (%v, %v), want accepted at 0.8", reranked.Accepted, reranked.Confidence)
	}

	baseline := assembleAnswer("q", domain.ModeBaseline, ranked, assembleSnapshot(), cfg)
	if baseline.Accepted || baseline.Confidence != 0.2 {
		t.Fatalf("baseline gate = (%v, %v), want rejected at 0.2", baseline.Accepted, baseline.Confidence)
	}
}

func TestTruncateAtSentence(t *testing.T) {
	short := "Short answer."
	if got := truncateAtSentence(short, 500); got != short {
		t.Fatalf("short text changed: %q", got)
	}

	sentence := strings.Repeat("Check the valve. ", 40)
	got := truncateAtSentence(sentence, 500)
	if len(got) > 502 {
		t.Fatalf("truncated length %d exceeds limit", len(got))
	}
	if !strings.HasSuffix(got, "...") {
		t.Fatalf("expected sentence-boundary suffix, got %q", got[len(got)-20:])
	}

	unbroken := strings.Repeat("x", 600)
	got = truncateAtSentence(unbroken, 500)
	if len(got) != 503 || !strings.HasSuffix(got, "...") {
		t.Fatalf("hard cut = %d chars, suffix %q", len(got), got[len(got)-5:])
	}
}

func TestTruncateAtSentenceKeepsRunesWhole(t *testing.T) {
	// A two-byte rune straddles the byte limit; the hard cut must back up
	// instead of splitting it.
	straddling := strings.Repeat("a", 499) + "é and more text without a period"
	got := truncateAtSentence(straddling, 500)
	if !utf8.ValidString(got) {
		t.Fatalf("truncated answer is invalid UTF-8: %q", got[:20])
	}
	if !strings.HasSuffix(got, "...") {
		t.Fatalf("expected hard-cut suffix, got %q", got[len(got)-5:])
	}
	if len(got) > 503 {
		t.Fatalf("truncated length %d exceeds limit", len(got))
	}
	if strings.ContainsRune(got, utf8.RuneError) {
		t.Fatalf("replacement character leaked into %q", got[len(got)-10:])
	}

	dashed := strings.Repeat("Проверка крана. ", 40)
	got = truncateAtSentence(dashed, 500)
	if !utf8.ValidString(got) {
		t.Fatalf("sentence cut produced invalid UTF-8: %q", got[len(got)-10:])
	}
}
