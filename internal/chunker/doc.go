// Package chunker divides a normalised document into text chunks for
// embedding and retrieval.
//
// Chunks are created at structural boundaries first: runs of blank lines in
// the normalised text delimit sections, and each section that fits within
// the maximum chunk length becomes one chunk. Sections exceeding the maximum
// fall back to a sliding window with configurable overlap, so a concept that
// straddles a window boundary remains retrievable from at least one chunk.
//
// # Basic Usage
//
//	c := chunker.New(
//	    chunker.WithMaxChunkSize(800),
//	    chunker.WithOverlap(100),
//	)
//	chunks := c.Chunk(doc)
//
//	for _, chunk := range chunks {
//	    fmt.Printf("chunk %s: [%d,%d) seq=%d\n",
//	        chunk.ID[:8], chunk.StartOffset, chunk.EndOffset, chunk.Seq)
//	}
//
// # Determinism
//
// Chunking is a pure function of (document content, configuration). Chunk
// identifiers are a deterministic hash of (source identifier, start offset,
// end offset), never random, so re-running the chunker on unchanged
// content reproduces identical identifiers. That stability is what makes
// re-indexing idempotent: the indexer can upsert the same chunk IDs and the
// store converges to the same state.
//
// # Edge Cases
//
// An empty or whitespace-only document yields zero chunks (the indexer
// warns but does not fail). A document shorter than the minimum chunk
// length yields exactly one chunk covering the whole document.
package chunker
