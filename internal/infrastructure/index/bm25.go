package index

import (
	"math"

	"github.com/kirillkom/safety-qa/internal/core/domain"
)

// keywordIndex holds the BM25 term statistics for one chunk set: per-chunk
// term frequencies, corpus document frequencies and the average chunk length.
// Recomputed from scratch on every build, never patched.
type keywordIndex struct {
	k1 float64
	b  float64

	termFreq map[string]map[string]int
	docFreq  map[string]int
	chunkLen map[string]int
	avgLen   float64
	total    int
}

func newKeywordIndex(chunks []domain.Chunk, k1, b float64) *keywordIndex {
	x := &keywordIndex{
		k1:       k1,
		b:        b,
		termFreq: make(map[string]map[string]int, len(chunks)),
		docFreq:  make(map[string]int),
		chunkLen: make(map[string]int, len(chunks)),
		total:    len(chunks),
	}

	var lenSum int
	for _, chunk := range chunks {
		tokens := Tokenize(chunk.Text)
		tf := make(map[string]int, len(tokens))
		for _, token := range tokens {
			tf[token]++
		}
		for term := range tf {
			x.docFreq[term]++
		}
		x.termFreq[chunk.ID] = tf
		x.chunkLen[chunk.ID] = len(tokens)
		lenSum += len(tokens)
	}
	if x.total > 0 {
		x.avgLen = float64(lenSum) / float64(x.total)
	}
	return x
}

// Score sums the BM25 contribution of every query term present in the chunk.
// Terms the chunk does not contain contribute nothing; an unknown chunk
// scores zero.
func (x *keywordIndex) Score(queryTokens []string, chunkID string) float64 {
	tf, ok := x.termFreq[chunkID]
	if !ok || x.avgLen == 0 {
		return 0
	}
	chunkLen := float64(x.chunkLen[chunkID])

	var score float64
	for _, term := range queryTokens {
		freq, ok := tf[term]
		if !ok {
			continue
		}
		f := float64(freq)
		norm := x.k1 * (1 - x.b + x.b*chunkLen/x.avgLen)
		score += x.idf(term) * (f * (x.k1 + 1)) / (f + norm)
	}
	return score
}

func (x *keywordIndex) idf(term string) float64 {
	df := float64(x.docFreq[term])
	n := float64(x.total)
	return math.Log((n-df+0.5)/(df+0.5) + 1)
}
