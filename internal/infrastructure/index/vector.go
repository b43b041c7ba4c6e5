package index

import (
	"fmt"
	"math"
	"sort"

	"github.com/kirillkom/safety-qa/internal/core/domain"
)

// vectorIndex holds one L2-normalized embedding per chunk. Immutable after
// construction; cosine similarity reduces to a dot product.
type vectorIndex struct {
	chunkIDs []string
	vectors  [][]float32
}

func newVectorIndex(chunks []domain.Chunk, vectors [][]float32) (*vectorIndex, error) {
	if len(chunks) != len(vectors) {
		return nil, fmt.Errorf("chunks/vectors mismatch: %d/%d", len(chunks), len(vectors))
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("vector index requires at least one chunk")
	}

	dim := len(vectors[0])
	ids := make([]string, len(chunks))
	normalized := make([][]float32, len(vectors))
	for i, vec := range vectors {
		if len(vec) != dim {
			return nil, fmt.Errorf("vector %d: dimension %d, expected %d", i, len(vec), dim)
		}
		ids[i] = chunks[i].ID
		normalized[i] = normalize(vec)
	}
	return &vectorIndex{chunkIDs: ids, vectors: normalized}, nil
}

// Search scores every stored vector against the query and returns the top k
// by descending similarity, ties broken by ascending chunk ID.
func (x *vectorIndex) Search(queryVector []float32, k int) []domain.VectorHit {
	if k <= 0 || len(x.chunkIDs) == 0 {
		return nil
	}

	query := normalize(queryVector)
	hits := make([]domain.VectorHit, 0, len(x.chunkIDs))
	for i, vec := range x.vectors {
		hits = append(hits, domain.VectorHit{
			ChunkID: x.chunkIDs[i],
			Score:   dot(query, vec),
		})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].ChunkID < hits[j].ChunkID
	})

	if k > len(hits) {
		k = len(hits)
	}
	return hits[:k]
}

func normalize(vec []float32) []float32 {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	norm := math.Sqrt(sum)
	if norm == 0 {
		return make([]float32, len(vec))
	}
	out := make([]float32, len(vec))
	for i, v := range vec {
		out[i] = float32(float64(v) / norm)
	}
	return out
}

func dot(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
