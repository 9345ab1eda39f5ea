package types

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"
)

// Document is the source material for one indexing run. It is immutable
// once read; the Indexer owns it for the duration of the run.
type Document struct {
	SourceID   string
	Title      string
	Content    string
	IngestedAt time.Time
}

// Validate checks that the document can be indexed.
func (d *Document) Validate() error {
	if d.SourceID == "" {
		return fmt.Errorf("%w: document source identifier is empty", ErrInvalidInput)
	}
	return nil
}

// Chunk represents a contiguous span of document text treated as one
// retrievable unit.
type Chunk struct {
	// Identification
	ID       string // deterministic hash of (source, start, end)
	SourceID string
	Seq      int // sequence index among siblings, 0-based

	// Location
	StartOffset int // character offset in the source, inclusive
	EndOffset   int // exclusive

	// Content
	Content string
}

// ChunkID computes the deterministic identifier for a span of a source.
// Identifiers are never random: re-chunking unchanged content must
// reproduce identical IDs so that re-indexing is idempotent.
func ChunkID(sourceID string, start, end int) string {
	h := sha256.Sum256(fmt.Appendf(nil, "%s:%d-%d", sourceID, start, end))
	return hex.EncodeToString(h[:])
}

// ComputeID fills in the chunk's identifier from its source and offsets.
func (c *Chunk) ComputeID() string {
	c.ID = ChunkID(c.SourceID, c.StartOffset, c.EndOffset)
	return c.ID
}

// Validate performs comprehensive validation of the chunk.
func (c *Chunk) Validate() error {
	if c.Content == "" {
		return errors.New("chunk content cannot be empty")
	}
	if c.SourceID == "" {
		return errors.New("chunk source identifier is required")
	}
	if c.StartOffset < 0 || c.EndOffset < 0 {
		return errors.New("chunk offsets must be non-negative")
	}
	if c.StartOffset >= c.EndOffset {
		return errors.New("chunk start offset must be before end offset")
	}
	if c.Seq < 0 {
		return errors.New("chunk sequence index must be non-negative")
	}
	if c.ID == "" {
		return errors.New("chunk identifier must be computed")
	}
	return nil
}

// Len returns the character length of the chunk's span.
func (c *Chunk) Len() int {
	return c.EndOffset - c.StartOffset
}
