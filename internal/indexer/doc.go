// Package indexer coordinates the indexing pipeline.
//
// A run moves a document through three stages: chunking, embedding, and
// a single transactional write. Embeddings are generated concurrently by
// a bounded worker pool, with results placed by slice position so record
// order always matches chunk order.
//
// Two modes are supported. Incremental (the default) replaces only the
// records of the document being indexed; other sources are untouched.
// Reset clears the entire index first, including the recorded embedding
// configuration, and is the only way to switch embedding models once an
// index exists.
//
// All writes for a run happen in one transaction: the source's previous
// records are deleted and its new records inserted together, so a
// failure at any stage rolls back and leaves the prior index state
// intact. A run that fails never leaves a source half indexed.
//
// Runs for the same source ID serialize through a per-source lock;
// re-running an unchanged document is idempotent because chunk IDs are
// derived from content position and upserts overwrite in place.
package indexer
