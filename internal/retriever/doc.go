// Package retriever answers text queries against the index.
//
// A retrieval embeds the query with the same backend the index was
// built with, ranks stored chunks by cosine similarity, and returns the
// top K as ranked results. Ranks start at 1 and scores are
// non-increasing; equal scores order by ascending chunk sequence, so a
// query against an unchanged index always returns the same results in
// the same order.
//
// Two guard rails apply before any ranking happens. An empty index
// returns an empty result set rather than an error. An index whose
// recorded embedding configuration differs from the active embedder
// fails with a version mismatch, since similarity between vectors from
// different models is meaningless.
//
// Responses can be cached in an LRU with per-entry TTL, keyed by the
// hash of the query and its parameters. Cached responses are deep
// copied on both store and load. InvalidateCache drops everything and
// is called after indexing runs.
package retriever
