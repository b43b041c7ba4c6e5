package domain

import (
	"fmt"
	"math"
)

// RankingConfig holds every hand-tuned retrieval constant in one named
// structure, passed into the reranker and the confidence gate at
// construction time instead of floating around as package globals.
type RankingConfig struct {
	VectorWeight float64
	BM25Weight   float64
	TitleWeight  float64
	LengthWeight float64

	// ConfidenceThreshold is exclusive: a top score equal to it is rejected.
	ConfidenceThreshold float64

	ChunkTargetSize int
	ChunkOverlap    int

	// Baseline retrieval fetches k*CandidateMultiplier candidates for the
	// reranker, never fewer than CandidateFloor.
	CandidateMultiplier int
	CandidateFloor      int
}

func DefaultRankingConfig() RankingConfig {
	return RankingConfig{
		VectorWeight:        0.60,
		BM25Weight:          0.30,
		TitleWeight:         0.05,
		LengthWeight:        0.05,
		ConfidenceThreshold: 0.3,
		ChunkTargetSize:     300,
		ChunkOverlap:        50,
		CandidateMultiplier: 4,
		CandidateFloor:      20,
	}
}

func (c RankingConfig) Validate() error {
	sum := c.VectorWeight + c.BM25Weight + c.TitleWeight + c.LengthWeight
	if math.Abs(sum-1.0) > 1e-9 {
		return fmt.Errorf("ranking weights must sum to 1.0, got %v", sum)
	}
	if c.VectorWeight < 0 || c.BM25Weight < 0 || c.TitleWeight < 0 || c.LengthWeight < 0 {
		return fmt.Errorf("ranking weights must be non-negative")
	}
	if c.ConfidenceThreshold < 0 || c.ConfidenceThreshold >= 1 {
		return fmt.Errorf("confidence threshold must be in [0,1), got %v", c.ConfidenceThreshold)
	}
	if c.ChunkTargetSize <= 0 {
		return fmt.Errorf("chunk target size must be positive, got %d", c.ChunkTargetSize)
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkTargetSize {
		return fmt.Errorf("chunk overlap must be in [0, target), got %d", c.ChunkOverlap)
	}
	if c.CandidateMultiplier < 1 {
		return fmt.Errorf("candidate multiplier must be >= 1, got %d", c.CandidateMultiplier)
	}
	if c.CandidateFloor < 1 {
		return fmt.Errorf("candidate floor must be >= 1, got %d", c.CandidateFloor)
	}
	return nil
}
