// Package types provides shared type definitions for the docindex engine.
//
// This package defines the domain types used across the indexing and
// retrieval pipeline: documents, chunks, retrieved results, and the error
// taxonomy shared by all components.
//
// # Core Types
//
// Document is the unit of ingestion, a single materialized manual keyed by
// its source identifier:
//
//	doc := types.Document{
//	    SourceID: "cvl-manual-v5",
//	    Content:  manualText,
//	}
//
// Chunk is a contiguous span of document text with a deterministic
// identifier:
//
//	chunk := types.Chunk{
//	    SourceID:    "cvl-manual-v5",
//	    Seq:         3,
//	    StartOffset: 2400,
//	    EndOffset:   3200,
//	    Content:     sectionText,
//	}
//	chunk.ComputeID() // sha256 of (source, start, end)
//
// Chunk identifiers are a pure function of (source identifier, start offset,
// end offset), so re-chunking unchanged content reproduces identical IDs.
// This is the foundation of idempotent re-indexing: upserting the same
// chunks twice is a no-op.
//
// # Error Taxonomy
//
// Four sentinel errors classify every failure the engine surfaces:
//
//	types.ErrInvalidInput       // malformed/empty document or query, not retryable
//	types.ErrBackendUnavailable // transient embedding/store connectivity, retried with backoff
//	types.ErrVersionMismatch    // embedding model/dimension conflicts with store contents
//	types.ErrPartialIndex       // a run could not complete; the whole run was rolled back
//
// Components wrap these with context using fmt.Errorf and %w, so callers
// classify failures with errors.Is:
//
//	if errors.Is(err, types.ErrVersionMismatch) {
//	    // an explicit reset run is required
//	}
//
// IndexError additionally carries the source identifier of a failed run so
// callers can report which document failed and why.
//
// # Retrieved Results
//
// RetrievedChunk combines chunk content with relevance scoring:
//
//	result := types.RetrievedChunk{
//	    ChunkID:  "a31f...",
//	    Rank:     1,
//	    Score:    0.92,
//	    SourceID: "cvl-manual-v5",
//	    Seq:      3,
//	    Content:  sectionText,
//	}
//
// Scores are cosine similarities in [-1, 1]; in practice embeddings are
// non-negative enough that scores land in [0, 1], with higher values
// indicating better matches.
package types
