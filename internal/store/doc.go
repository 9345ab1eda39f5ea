// Package store provides SQLite-backed persistence for indexed chunks
// and their embedding vectors.
//
// # Schema
//
// Three tables plus version tracking:
//
//   - sources: one row per indexed document, with its chunk count,
//     content hash, and the time it was last indexed.
//   - records: one row per chunk. The chunk ID (a content-derived hex
//     digest) is the primary key, and the embedding vector is stored
//     inline as a little-endian float32 BLOB alongside its dimension.
//   - index_meta: key/value rows recording the embedding provider,
//     model, and dimension the index was built with. Callers compare
//     these against their own configuration before reading or writing,
//     since vectors from different models are not comparable.
//
// Schema changes are applied through semver-ordered migrations tracked
// in the schema_version table.
//
// # Build modes
//
// Two SQLite drivers are supported via build tags:
//
//   - sqlite_vec (CGO): github.com/mattn/go-sqlite3 with the sqlite-vec
//     extension. Vector similarity is computed in SQL via
//     vec_distance_cosine, so ranking and LIMIT happen at the database
//     layer.
//   - purego (default): modernc.org/sqlite with no C dependency.
//     Candidate vectors are loaded and cosine similarity is computed in
//     Go.
//
// Both paths produce identical rankings: similarity descending, with
// ties broken by ascending chunk sequence so equal scores order
// deterministically.
//
// # Transactions
//
// BeginTx returns a Tx that implements the full Store interface, so an
// indexing run can delete a source's old records and upsert its new
// ones atomically. A failed run rolls back, leaving the previous index
// state untouched. Nested transactions are not supported.
package store
