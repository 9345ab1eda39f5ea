// Package embedder turns chunk text into fixed-dimension vectors.
//
// Three providers are available:
//
//   - openai: the OpenAI embeddings API (text-embedding-3-small by
//     default), rate limited client side and retried with exponential
//     backoff.
//   - ollama: a local Ollama server's /api/embed endpoint.
//   - local: a deterministic hash-derived vector with no network
//     dependency, intended for offline development and tests.
//
// All providers share an LRU cache keyed by the SHA-256 of the input
// text, so re-indexing unchanged content never repeats a backend call
// within a process. Cached vectors are returned as copies.
//
// For a fixed provider and model the mapping from text to vector is
// deterministic. Vectors from different models or dimensions are not
// comparable; the store records the (provider, model, dimension) triple
// at index time and rejects mismatched reads and writes.
//
// Backend failures wrap types.ErrBackendUnavailable. Empty or oversized
// inputs wrap types.ErrInvalidInput and are never retried.
package embedder
