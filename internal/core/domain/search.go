package domain

type AnswerMode string

const (
	ModeBaseline AnswerMode = "baseline"
	ModeReranked AnswerMode = "reranked"
)

// VectorHit is one nearest-neighbor result from the vector index, cosine
// similarity in [-1,1].
type VectorHit struct {
	ChunkID string
	Score   float64
}

// SearchCandidate carries every relevance signal computed for one candidate
// chunk during a single query. Transient, discarded after the query.
type SearchCandidate struct {
	ChunkID       string  `json:"chunk_id"`
	VectorScore   float64 `json:"vector_score"`
	BM25Score     float64 `json:"bm25_score"`
	TitleScore    float64 `json:"title_score"`
	LengthScore   float64 `json:"length_score"`
	CombinedScore float64 `json:"combined_score"`
	Rank          int     `json:"rank"`
}

// Citation points at the source passage backing a part of the answer.
type Citation struct {
	Title   string `json:"title"`
	Ordinal int    `json:"ordinal"`
}

// Answer is the final gated payload for one query. A rejected answer
// (Accepted=false) is a normal outcome, not an error: it means no candidate
// cleared the confidence threshold.
type Answer struct {
	Query      string     `json:"query"`
	Mode       AnswerMode `json:"mode"`
	Accepted   bool       `json:"accepted"`
	Confidence float64    `json:"confidence"`
	Citations  []Citation `json:"citations"`
	Text       string     `json:"answer_text"`
}

type IndexState string

const (
	IndexEmpty    IndexState = "empty"
	IndexBuilding IndexState = "building"
	IndexReady    IndexState = "ready"
)

type IndexStatus struct {
	State      IndexState `json:"state"`
	ChunkCount int        `json:"chunk_count"`
	Version    string     `json:"version"`
}
