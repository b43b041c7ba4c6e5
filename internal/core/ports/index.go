package ports

import "github.com/kirillkom/safety-qa/internal/core/domain"

// IndexSnapshot is one immutable, versioned index build: the vector index and
// the keyword index derived from the same chunk set. Safe for concurrent
// readers; never mutated after Build returns it.
type IndexSnapshot interface {
	Version() string
	ChunkCount() int

	// SearchVector returns up to k chunk hits by descending cosine
	// similarity, ties broken by ascending chunk ID.
	SearchVector(queryVector []float32, k int) []domain.VectorHit

	// KeywordScore returns the BM25 score of a chunk for the query tokens.
	KeywordScore(queryTokens []string, chunkID string) float64

	Chunk(chunkID string) (domain.Chunk, bool)
}

// IndexBuilder assembles a snapshot from a finished chunk/vector set.
type IndexBuilder interface {
	Build(version string, chunks []domain.Chunk, vectors [][]float32) (IndexSnapshot, error)
}

// IndexStore publishes snapshots with a single atomic swap. Readers holding
// an older snapshot keep using it until they re-fetch.
type IndexStore interface {
	Current() (IndexSnapshot, bool)
	Publish(snapshot IndexSnapshot)
}
