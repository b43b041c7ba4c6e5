package usecase

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/kirillkom/safety-qa/internal/core/domain"
	"github.com/kirillkom/safety-qa/internal/core/ports"
)

type askEmbedderFake struct {
	query string
	err   error
}

func (f *askEmbedderFake) Embed(context.Context, []string) ([][]float32, error) { return nil, nil }
func (f *askEmbedderFake) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	f.query = text
	if f.err != nil {
		return nil, f.err
	}
	return []float32{0.1, 0.2}, nil
}

// stubSnapshot gives tests full control over vector hits, keyword scores and
// chunk metadata. Shared by the ask, rerank and assemble tests.
type stubSnapshot struct {
	version   string
	hits      []domain.VectorHit
	chunks    map[string]domain.Chunk
	keyword   map[string]float64
	searchedK int
}

func (s *stubSnapshot) Version() string { return s.version }
func (s *stubSnapshot) ChunkCount() int { return len(s.chunks) }

func (s *stubSnapshot) SearchVector(_ []float32, k int) []domain.VectorHit {
	s.searchedK = k
	if k < len(s.hits) {
		return s.hits[:k]
	}
	return s.hits
}

func (s *stubSnapshot) KeywordScore(_ []string, chunkID string) float64 {
	return s.keyword[chunkID]
}

func (s *stubSnapshot) Chunk(chunkID string) (domain.Chunk, bool) {
	chunk, ok := s.chunks[chunkID]
	return chunk, ok
}

type storeFake struct {
	snapshot ports.IndexSnapshot
}

func (f *storeFake) Current() (ports.IndexSnapshot, bool) {
	if f.snapshot == nil {
		return nil, false
	}
	return f.snapshot, true
}

func (f *storeFake) Publish(snapshot ports.IndexSnapshot) { f.snapshot = snapshot }

func askSnapshot() *stubSnapshot {
	return &stubSnapshot{
		version: "v1",
		hits: []domain.VectorHit{
			{ChunkID: "doc-1:0", Score: 0.9},
			{ChunkID: "doc-1:1", Score: 0.8},
			{ChunkID: "doc-2:0", Score: 0.7},
		},
		chunks: map[string]domain.Chunk{
			"doc-1:0": {ID: "doc-1:0", DocumentID: "doc-1", DocumentTitle: "Crane Operations", Ordinal: 0, Text: "Cranes must be inspected daily.", WordCount: 300},
			"doc-1:1": {ID: "doc-1:1", DocumentID: "doc-1", DocumentTitle: "Crane Operations", Ordinal: 1, Text: "Loads above two tonnes need a banksman.", WordCount: 300},
			"doc-2:0": {ID: "doc-2:0", DocumentID: "doc-2", DocumentTitle: "Welding Safety", Ordinal: 0, Text: "Welding areas require ventilation.", WordCount: 300},
		},
		keyword: map[string]float64{},
	}
}

func newAskUseCaseForTest(t *testing.T, store ports.IndexStore, embedder ports.Embedder) *AskUseCase {
	t.Helper()
	uc, err := NewAskUseCase(embedder, store, domain.DefaultRankingConfig())
	if err != nil {
		t.Fatalf("NewAskUseCase() error = %v", err)
	}
	return uc
}

func TestAskEmptyQuery(t *testing.T) {
	uc := newAskUseCaseForTest(t, &storeFake{snapshot: askSnapshot()}, &askEmbedderFake{})
	_, err := uc.Ask(context.Background(), "   ", 5, domain.ModeReranked)
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestAskUnknownMode(t *testing.T) {
	uc := newAskUseCaseForTest(t, &storeFake{snapshot: askSnapshot()}, &askEmbedderFake{})
	_, err := uc.Ask(context.Background(), "crane", 5, domain.AnswerMode("fuzzy"))
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestAskIndexNotBuilt(t *testing.T) {
	uc := newAskUseCaseForTest(t, &storeFake{}, &askEmbedderFake{})
	_, err := uc.Ask(context.Background(), "crane inspection", 5, domain.ModeReranked)
	if !domain.IsKind(err, domain.ErrIndexNotBuilt) {
		t.Fatalf("expected index not built, got %v", err)
	}
}

func TestAskEmbedFailure(t *testing.T) {
	uc := newAskUseCaseForTest(t, &storeFake{snapshot: askSnapshot()}, &askEmbedderFake{err: errors.New("model offline")})
	_, err := uc.Ask(context.Background(), "crane inspection", 5, domain.ModeReranked)
	if !domain.IsKind(err, domain.ErrEmbeddingFailure) {
		t.Fatalf("expected embedding failure, got %v", err)
	}
}

func TestAskDefaultsAndCandidatePool(t *testing.T) {
	snapshot := askSnapshot()
	uc := newAskUseCaseForTest(t, &storeFake{snapshot: snapshot}, &askEmbedderFake{})

	answer, err := uc.Ask(context.Background(), "crane inspection", 0, "")
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	if answer.Mode != domain.ModeReranked {
		t.Fatalf("expected default mode reranked, got %s", answer.Mode)
	}
	// k defaults to 5, candidate pool to max(5*4, 20).
	if snapshot.searchedK != 20 {
		t.Fatalf("expected candidate pool of 20, got %d", snapshot.searchedK)
	}
}

func TestAskBaselineThresholdBoundary(t *testing.T) {
	cases := []struct {
		name     string
		topScore float64
		accepted bool
	}{
		{"at threshold rejected", 0.3, false},
		{"just above accepted", 0.30001, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			snapshot := askSnapshot()
			snapshot.hits = []domain.VectorHit{{ChunkID: "doc-1:0", Score: tc.topScore}}
			uc := newAskUseCaseForTest(t, &storeFake{snapshot: snapshot}, &askEmbedderFake{})

			answer, err := uc.Ask(context.Background(), "crane", 5, domain.ModeBaseline)
			if err != nil {
				t.Fatalf("Ask() error = %v", err)
			}
			if answer.Accepted != tc.accepted {
				t.Fatalf("accepted = %v, want %v (confidence %v)", answer.Accepted, tc.accepted, answer.Confidence)
			}
			if answer.Confidence != tc.topScore {
				t.Fatalf("confidence = %v, want %v", answer.Confidence, tc.topScore)
			}
			if !tc.accepted && len(answer.Citations) != 0 {
				t.Fatalf("rejected answer must carry no citations, got %d", len(answer.Citations))
			}
		})
	}
}

func TestAskBaselineKeepsVectorOrder(t *testing.T) {
	snapshot := askSnapshot()
	// Keyword signal would flip the order; baseline must ignore it.
	snapshot.keyword["doc-2:0"] = 12.5
	uc := newAskUseCaseForTest(t, &storeFake{snapshot: snapshot}, &askEmbedderFake{})

	answer, err := uc.Ask(context.Background(), "welding ventilation", 2, domain.ModeBaseline)
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	wantCitations := []domain.Citation{
		{Title: "Crane Operations", Ordinal: 0},
		{Title: "Crane Operations", Ordinal: 1},
	}
	if !reflect.DeepEqual(answer.Citations, wantCitations) {
		t.Fatalf("citations = %+v, want %+v", answer.Citations, wantCitations)
	}
}

func TestAskRerankedPromotesKeywordMatch(t *testing.T) {
	snapshot := askSnapshot()
	snapshot.keyword["doc-2:0"] = 8.0
	uc := newAskUseCaseForTest(t, &storeFake{snapshot: snapshot}, &askEmbedderFake{})

	answer, err := uc.Ask(context.Background(), "ventilation rules", 3, domain.ModeReranked)
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	// doc-2:0 combined: 0.6*0.7 + 0.3*1.0 + 0.05*0 + 0.05*1 = 0.77,
	// ahead of doc-1:0 at 0.6*0.9 + 0.05 = 0.59.
	if !answer.Accepted {
		t.Fatalf("expected accepted answer, confidence %v", answer.Confidence)
	}
	if len(answer.Citations) == 0 || answer.Citations[0].Title != "Welding Safety" {
		t.Fatalf("expected keyword match promoted to top, got %+v", answer.Citations)
	}
}

func TestAskDeterministic(t *testing.T) {
	snapshot := askSnapshot()
	snapshot.keyword["doc-1:1"] = 3.0
	uc := newAskUseCaseForTest(t, &storeFake{snapshot: snapshot}, &askEmbedderFake{})

	first, err := uc.Ask(context.Background(), "crane banksman", 3, domain.ModeReranked)
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	second, err := uc.Ask(context.Background(), "crane banksman", 3, domain.ModeReranked)
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("identical queries diverged:\n%+v\n%+v", first, second)
	}
}
