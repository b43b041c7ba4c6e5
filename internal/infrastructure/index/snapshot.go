package index

import (
	"fmt"
	"sort"
	"sync/atomic"

	"github.com/kirillkom/safety-qa/internal/core/domain"
	"github.com/kirillkom/safety-qa/internal/core/ports"
)

// Snapshot is one immutable index build. The vector and keyword sides are
// always derived from the same chunk set; a query that holds a Snapshot can
// never see them disagree.
type Snapshot struct {
	version string
	chunks  map[string]domain.Chunk
	vector  *vectorIndex
	keyword *keywordIndex
}

func (s *Snapshot) Version() string { return s.version }

func (s *Snapshot) ChunkCount() int { return len(s.chunks) }

func (s *Snapshot) SearchVector(queryVector []float32, k int) []domain.VectorHit {
	return s.vector.Search(queryVector, k)
}

func (s *Snapshot) KeywordScore(queryTokens []string, chunkID string) float64 {
	return s.keyword.Score(queryTokens, chunkID)
}

func (s *Snapshot) Chunk(chunkID string) (domain.Chunk, bool) {
	chunk, ok := s.chunks[chunkID]
	return chunk, ok
}

// Builder assembles snapshots with fixed BM25 constants.
type Builder struct {
	k1 float64
	b  float64
}

func NewBuilder(k1, b float64) *Builder {
	if k1 <= 0 {
		k1 = 1.5
	}
	if b < 0 || b > 1 {
		b = 0.75
	}
	return &Builder{k1: k1, b: b}
}

// Build constructs both indexes off-path. Input order does not matter: chunks
// are sorted by ID so identical chunk sets always produce identical indexes.
func (b *Builder) Build(version string, chunks []domain.Chunk, vectors [][]float32) (ports.IndexSnapshot, error) {
	if len(chunks) == 0 {
		return nil, fmt.Errorf("build requires at least one chunk")
	}
	if len(chunks) != len(vectors) {
		return nil, fmt.Errorf("chunks/vectors mismatch: %d/%d", len(chunks), len(vectors))
	}

	order := make([]int, len(chunks))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(i, j int) bool { return chunks[order[i]].ID < chunks[order[j]].ID })

	sortedChunks := make([]domain.Chunk, len(chunks))
	sortedVectors := make([][]float32, len(vectors))
	byID := make(map[string]domain.Chunk, len(chunks))
	for i, idx := range order {
		sortedChunks[i] = chunks[idx]
		sortedVectors[i] = vectors[idx]
		byID[chunks[idx].ID] = chunks[idx]
	}
	if len(byID) != len(chunks) {
		return nil, fmt.Errorf("duplicate chunk ids in build input")
	}

	vector, err := newVectorIndex(sortedChunks, sortedVectors)
	if err != nil {
		return nil, fmt.Errorf("build vector index: %w", err)
	}

	return &Snapshot{
		version: version,
		chunks:  byID,
		vector:  vector,
		keyword: newKeywordIndex(sortedChunks, b.k1, b.b),
	}, nil
}

// Store publishes snapshots with one atomic swap. Readers load the current
// snapshot without locking; an in-flight query keeps whatever version it
// loaded until it finishes.
type Store struct {
	current atomic.Value
}

func NewStore() *Store {
	return &Store{}
}

func (s *Store) Current() (ports.IndexSnapshot, bool) {
	snap, ok := s.current.Load().(ports.IndexSnapshot)
	if !ok || snap == nil {
		return nil, false
	}
	return snap, true
}

func (s *Store) Publish(snapshot ports.IndexSnapshot) {
	if snapshot == nil {
		return
	}
	s.current.Store(snapshot)
}
