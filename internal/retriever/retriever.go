package retriever

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/accelnorm/docindex/internal/embedder"
	"github.com/accelnorm/docindex/internal/store"
	"github.com/accelnorm/docindex/pkg/types"
)

// Default request parameters
const (
	DefaultLimit    = 10
	MaxLimit        = 100
	DefaultCacheTTL = time.Hour
)

// Request contains parameters for a retrieval operation
type Request struct {
	Query    string
	Limit    int
	Filters  *store.QueryFilters
	UseCache bool
	CacheTTL time.Duration
}

// Response contains retrieval results and metadata
type Response struct {
	Results  []types.RetrievedChunk
	Duration time.Duration
	CacheHit bool
}

// cacheEntry represents a cached response with expiration time
type cacheEntry struct {
	response  *Response
	expiresAt time.Time
}

// Retriever answers text queries against the index by embedding the
// query and ranking stored chunks by cosine similarity
type Retriever struct {
	store    store.Store
	embedder embedder.Embedder
	cache    *lru.Cache[[32]byte, *cacheEntry]
	cacheMu  sync.RWMutex
}

// New creates a new Retriever instance
func New(st store.Store, emb embedder.Embedder) *Retriever {
	cache, err := lru.New[[32]byte, *cacheEntry](1000)
	if err != nil {
		// Only reachable with an invalid size parameter
		panic(fmt.Sprintf("failed to create LRU cache: %v", err))
	}

	return &Retriever{
		store:    st,
		embedder: emb,
		cache:    cache,
	}
}

// Retrieve returns the top K chunks most similar to the query.
// Querying an empty index returns an empty slice, not an error. Querying
// an index built with a different embedding configuration fails with a
// version mismatch.
func (r *Retriever) Retrieve(ctx context.Context, req Request) (*Response, error) {
	startTime := time.Now()

	if err := r.validateRequest(&req); err != nil {
		return nil, err
	}

	if req.UseCache {
		if cached := r.checkCache(req); cached != nil {
			cached.CacheHit = true
			cached.Duration = time.Since(startTime)
			return cached, nil
		}
	}

	if err := r.checkVersion(ctx); err != nil {
		if errors.Is(err, errEmptyIndex) {
			return &Response{Results: []types.RetrievedChunk{}, Duration: time.Since(startTime)}, nil
		}
		return nil, err
	}

	queryVector, err := r.embedder.Embed(ctx, req.Query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	matches, err := r.store.Query(ctx, queryVector, req.Limit, req.Filters)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", types.ErrBackendUnavailable, err)
	}

	results := make([]types.RetrievedChunk, len(matches))
	for i, m := range matches {
		results[i] = types.RetrievedChunk{
			ChunkID:  m.ChunkID,
			Rank:     i + 1,
			Score:    m.SimilarityScore,
			SourceID: m.SourceID,
			Seq:      m.Seq,
			Content:  m.Content,
		}
	}

	response := &Response{
		Results:  results,
		Duration: time.Since(startTime),
	}

	if req.UseCache && len(results) > 0 {
		r.storeInCache(req, response)
	}

	return response, nil
}

// errEmptyIndex signals that no documents have been indexed yet
var errEmptyIndex = errors.New("index is empty")

// checkVersion ensures the index was built with the active embedding
// configuration. An index with no recorded configuration is empty.
func (r *Retriever) checkVersion(ctx context.Context) error {
	provider, err := r.store.GetMeta(ctx, store.MetaProvider)
	if errors.Is(err, store.ErrNotFound) {
		return errEmptyIndex
	}
	if err != nil {
		return fmt.Errorf("%w: %w", types.ErrBackendUnavailable, err)
	}

	model, err := r.store.GetMeta(ctx, store.MetaModel)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%w: %w", types.ErrBackendUnavailable, err)
	}

	if provider != r.embedder.Provider() || model != r.embedder.Model() {
		return fmt.Errorf("%w: index built with %s/%s, embedder is %s/%s (re-index required)",
			types.ErrVersionMismatch, provider, model, r.embedder.Provider(), r.embedder.Model())
	}
	return nil
}

// validateRequest ensures the retrieval request is valid
func (r *Retriever) validateRequest(req *Request) error {
	if strings.TrimSpace(req.Query) == "" {
		return fmt.Errorf("%w: query cannot be empty", types.ErrInvalidInput)
	}

	if req.Limit <= 0 {
		req.Limit = DefaultLimit
	}
	if req.Limit > MaxLimit {
		req.Limit = MaxLimit
	}
	if req.CacheTTL == 0 {
		req.CacheTTL = DefaultCacheTTL
	}

	return nil
}

// checkCache looks up a cached response, dropping expired entries
func (r *Retriever) checkCache(req Request) *Response {
	hash := computeQueryHash(req)
	now := time.Now()

	r.cacheMu.RLock()
	entry, found := r.cache.Get(hash)
	if !found {
		r.cacheMu.RUnlock()
		return nil
	}

	if now.After(entry.expiresAt) {
		r.cacheMu.RUnlock()

		r.cacheMu.Lock()
		r.cache.Remove(hash)
		r.cacheMu.Unlock()
		return nil
	}

	// Return a deep copy while still holding the read lock so the cached
	// entry cannot be mutated through the returned value
	response := copyResponse(entry.response)
	r.cacheMu.RUnlock()

	return response
}

// storeInCache saves a response with its expiration time
func (r *Retriever) storeInCache(req Request, response *Response) {
	entry := &cacheEntry{
		response:  copyResponse(response),
		expiresAt: time.Now().Add(req.CacheTTL),
	}

	r.cacheMu.Lock()
	r.cache.Add(computeQueryHash(req), entry)
	r.cacheMu.Unlock()
}

// copyResponse creates a deep copy of a Response
func copyResponse(src *Response) *Response {
	if src == nil {
		return nil
	}

	dst := &Response{
		Duration: src.Duration,
		CacheHit: src.CacheHit,
		Results:  make([]types.RetrievedChunk, len(src.Results)),
	}
	copy(dst.Results, src.Results)
	return dst
}

// computeQueryHash computes a unique hash for a retrieval request
func computeQueryHash(req Request) [32]byte {
	var data strings.Builder
	data.WriteString(req.Query)
	data.WriteString("|")
	fmt.Fprintf(&data, "%d", req.Limit)

	if req.Filters != nil {
		data.WriteString("|filters:")
		data.WriteString(strings.Join(req.Filters.SourceIDs, ","))
		data.WriteString("|")
		fmt.Fprintf(&data, "%.4f", req.Filters.MinScore)
	}

	return sha256.Sum256([]byte(data.String()))
}

// InvalidateCache drops all cached query results. Called after indexing
// runs so queries never serve results from a superseded index state.
func (r *Retriever) InvalidateCache() {
	r.cacheMu.Lock()
	r.cache.Purge()
	r.cacheMu.Unlock()
}
