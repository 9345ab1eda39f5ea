package types

// RetrievedChunk represents a single retrieval result with relevance
// information.
type RetrievedChunk struct {
	// Identification
	ChunkID string `json:"chunk_id"`
	Rank    int    `json:"rank"` // position in result set, 1-based

	// Scoring
	Score float64 `json:"score"` // cosine similarity against the query vector

	// Metadata
	SourceID string `json:"source_id"`
	Seq      int    `json:"seq"`
	Content  string `json:"content"`
}

// Validate checks if the retrieved chunk is well formed.
func (r *RetrievedChunk) Validate() error {
	if r.ChunkID == "" {
		return ErrInvalidChunkID
	}
	if r.Rank < 1 {
		return ErrInvalidRank
	}
	if r.SourceID == "" {
		return ErrMissingSource
	}
	if r.Content == "" {
		return ErrEmptyContent
	}
	return nil
}
