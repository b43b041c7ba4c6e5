package chunking

import (
	"strings"

	"github.com/kirillkom/safety-qa/internal/core/domain"
)

// Splitter cuts document text into overlapping word windows. Boundaries are
// a pure function of the text and the (TargetSize, Overlap) pair, so the same
// document always chunks identically.
type Splitter struct {
	TargetSize int
	Overlap    int
}

func NewSplitter(targetSize, overlap int) *Splitter {
	if targetSize <= 0 {
		targetSize = 300
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= targetSize {
		overlap = targetSize / 4
	}
	return &Splitter{
		TargetSize: targetSize,
		Overlap:    overlap,
	}
}

// Split emits a span every TargetSize-Overlap words, each spanning TargetSize
// words. The final span may be shorter, down to a single word. Adjacent spans
// repeat exactly Overlap words of text.
func (s *Splitter) Split(text string) ([]domain.ChunkSpan, error) {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil, domain.ErrEmptyDocument
	}

	step := s.TargetSize - s.Overlap
	if step <= 0 {
		step = s.TargetSize
	}

	out := make([]domain.ChunkSpan, 0, len(words)/step+1)
	for start := 0; start < len(words); start += step {
		end := start + s.TargetSize
		if end > len(words) {
			end = len(words)
		}
		out = append(out, domain.ChunkSpan{
			Text:      strings.Join(words[start:end], " "),
			WordCount: end - start,
		})
		if end == len(words) {
			break
		}
	}
	return out, nil
}
