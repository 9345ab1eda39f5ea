package retriever

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/accelnorm/docindex/internal/chunker"
	"github.com/accelnorm/docindex/internal/embedder"
	"github.com/accelnorm/docindex/internal/indexer"
	"github.com/accelnorm/docindex/internal/store"
	"github.com/accelnorm/docindex/pkg/types"
)

// renamedEmbedder reports a different model name over a real embedder
type renamedEmbedder struct {
	embedder.Embedder
	model string
}

func (r *renamedEmbedder) Model() string { return r.model }

func newTestRetriever(t *testing.T) (*Retriever, *indexer.Indexer, *store.SQLiteStore) {
	t.Helper()
	st, err := store.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	emb := embedder.NewLocalProvider(0)
	idx := indexer.New(chunker.New(), emb, st, &indexer.Config{Workers: 2})
	return New(st, emb), idx, st
}

func indexDoc(t *testing.T, idx *indexer.Indexer, sourceID, content string) {
	t.Helper()
	_, err := idx.Run(context.Background(), &types.Document{SourceID: sourceID, Content: content}, indexer.ModeIncremental)
	require.NoError(t, err)
}

func TestRetrieveReturnsRankedResults(t *testing.T) {
	r, idx, _ := newTestRetriever(t)
	ctx := context.Background()

	indexDoc(t, idx, "guide.md", strings.Repeat("how to configure retries. ", 120))

	resp, err := r.Retrieve(ctx, Request{Query: "configure retries", Limit: 5})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Results)
	assert.LessOrEqual(t, len(resp.Results), 5)

	for i, res := range resp.Results {
		assert.Equal(t, i+1, res.Rank)
		assert.NotEmpty(t, res.ChunkID)
		assert.NotEmpty(t, res.Content)
		assert.Equal(t, "guide.md", res.SourceID)
		if i > 0 {
			assert.LessOrEqual(t, res.Score, resp.Results[i-1].Score)
		}
	}
}

func TestRetrieveEmptyIndex(t *testing.T) {
	r, _, _ := newTestRetriever(t)

	resp, err := r.Retrieve(context.Background(), Request{Query: "anything"})
	require.NoError(t, err)
	assert.Empty(t, resp.Results)
}

func TestRetrieveEmptyQuery(t *testing.T) {
	r, _, _ := newTestRetriever(t)

	_, err := r.Retrieve(context.Background(), Request{Query: "   "})
	assert.ErrorIs(t, err, types.ErrInvalidInput)
}

func TestRetrieveVersionMismatch(t *testing.T) {
	r, idx, _ := newTestRetriever(t)
	ctx := context.Background()

	indexDoc(t, idx, "guide.md", strings.Repeat("content. ", 150))

	r.embedder = &renamedEmbedder{Embedder: embedder.NewLocalProvider(0), model: "hash-v2"}

	_, err := r.Retrieve(ctx, Request{Query: "content"})
	assert.ErrorIs(t, err, types.ErrVersionMismatch)
}

func TestRetrieveDeterministic(t *testing.T) {
	r, idx, _ := newTestRetriever(t)
	ctx := context.Background()

	indexDoc(t, idx, "a.md", strings.Repeat("alpha topics here. ", 150))
	indexDoc(t, idx, "b.md", strings.Repeat("beta topics there. ", 150))

	first, err := r.Retrieve(ctx, Request{Query: "topics", Limit: 10})
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		again, err := r.Retrieve(ctx, Request{Query: "topics", Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, first.Results, again.Results)
	}
}

func TestRetrieveSourceFilter(t *testing.T) {
	r, idx, _ := newTestRetriever(t)
	ctx := context.Background()

	indexDoc(t, idx, "a.md", strings.Repeat("shared topic. ", 150))
	indexDoc(t, idx, "b.md", strings.Repeat("shared topic. ", 150))

	resp, err := r.Retrieve(ctx, Request{
		Query:   "shared topic",
		Limit:   20,
		Filters: &store.QueryFilters{SourceIDs: []string{"b.md"}},
	})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Results)
	for _, res := range resp.Results {
		assert.Equal(t, "b.md", res.SourceID)
	}
}

func TestRetrieveLimitDefaults(t *testing.T) {
	r, _, _ := newTestRetriever(t)

	req := Request{Query: "q", Limit: 0}
	require.NoError(t, r.validateRequest(&req))
	assert.Equal(t, DefaultLimit, req.Limit)

	req = Request{Query: "q", Limit: 5000}
	require.NoError(t, r.validateRequest(&req))
	assert.Equal(t, MaxLimit, req.Limit)
}

func TestRetrieveCacheHit(t *testing.T) {
	r, idx, _ := newTestRetriever(t)
	ctx := context.Background()

	indexDoc(t, idx, "guide.md", strings.Repeat("cached content. ", 150))

	first, err := r.Retrieve(ctx, Request{Query: "cached content", UseCache: true})
	require.NoError(t, err)
	assert.False(t, first.CacheHit)

	second, err := r.Retrieve(ctx, Request{Query: "cached content", UseCache: true})
	require.NoError(t, err)
	assert.True(t, second.CacheHit)
	assert.Equal(t, first.Results, second.Results)
}

func TestRetrieveCacheReturnsCopy(t *testing.T) {
	r, idx, _ := newTestRetriever(t)
	ctx := context.Background()

	indexDoc(t, idx, "guide.md", strings.Repeat("cached content. ", 150))

	first, err := r.Retrieve(ctx, Request{Query: "cached content", UseCache: true})
	require.NoError(t, err)
	require.NotEmpty(t, first.Results)

	// Mutate the returned slice; the cache must not see it
	first.Results[0].Content = "tampered"

	second, err := r.Retrieve(ctx, Request{Query: "cached content", UseCache: true})
	require.NoError(t, err)
	assert.NotEqual(t, "tampered", second.Results[0].Content)
}

func TestRetrieveCacheExpiry(t *testing.T) {
	r, idx, _ := newTestRetriever(t)
	ctx := context.Background()

	indexDoc(t, idx, "guide.md", strings.Repeat("expiring content. ", 150))

	req := Request{Query: "expiring content", UseCache: true, CacheTTL: 10 * time.Millisecond}
	_, err := r.Retrieve(ctx, req)
	require.NoError(t, err)

	time.Sleep(20 * time.Millisecond)

	resp, err := r.Retrieve(ctx, req)
	require.NoError(t, err)
	assert.False(t, resp.CacheHit)
}

func TestInvalidateCache(t *testing.T) {
	r, idx, _ := newTestRetriever(t)
	ctx := context.Background()

	indexDoc(t, idx, "guide.md", strings.Repeat("content. ", 150))

	_, err := r.Retrieve(ctx, Request{Query: "content", UseCache: true})
	require.NoError(t, err)

	r.InvalidateCache()

	resp, err := r.Retrieve(ctx, Request{Query: "content", UseCache: true})
	require.NoError(t, err)
	assert.False(t, resp.CacheHit)
}
