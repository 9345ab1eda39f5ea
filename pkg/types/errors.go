package types

import (
	"errors"
	"fmt"
)

// Error taxonomy shared by all engine components. Components wrap these
// with %w so callers classify failures with errors.Is.
var (
	// ErrInvalidInput marks a malformed or empty document/query. Not
	// retryable; surfaced to the caller immediately.
	ErrInvalidInput = errors.New("invalid input")

	// ErrBackendUnavailable marks transient embedding or store
	// connectivity failure. Retried with bounded exponential backoff
	// before being surfaced as a fatal run failure.
	ErrBackendUnavailable = errors.New("backend unavailable")

	// ErrVersionMismatch marks an embedding dimensionality or model
	// version inconsistent with existing store contents. Fatal; requires
	// an explicit reset run.
	ErrVersionMismatch = errors.New("embedding version mismatch")

	// ErrPartialIndex marks a run where some chunks failed irrecoverably.
	// The whole document's run is rolled back, never partially committed.
	ErrPartialIndex = errors.New("partial index failure")
)

// Domain errors for result validation
var (
	ErrInvalidChunkID = errors.New("invalid chunk ID")
	ErrInvalidRank    = errors.New("rank must be >= 1")
	ErrMissingSource  = errors.New("source identifier is required")
	ErrEmptyContent   = errors.New("content cannot be empty")
)

// IndexError is the failed-run result returned by the Indexer. It carries
// the originating error kind and the source identifier so callers can
// report which document failed and why.
type IndexError struct {
	SourceID string
	Err      error
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("indexing %q: %v", e.SourceID, e.Err)
}

func (e *IndexError) Unwrap() error {
	return e.Err
}
