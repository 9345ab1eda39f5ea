package embedder

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/accelnorm/docindex/pkg/types"
)

// Input limits.
const (
	// MaxTextChars is the largest text a single embedding request accepts.
	// Longer inputs are an InvalidInput error; the chunker is responsible
	// for producing embeddable sizes, so hitting this indicates a
	// misconfigured pipeline rather than something worth truncating
	// silently.
	MaxTextChars = 32768

	// MaxBatchSize is the largest number of texts per batch request.
	MaxBatchSize = 100
)

// Embedder maps text to a fixed-dimension vector via a specific backend
// model. For a fixed backend and model version the mapping is
// deterministic; different model versions produce incompatible vector
// spaces, which the store guards against via the (Provider, Model,
// Dimension) triple.
type Embedder interface {
	// Embed generates a vector for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates vectors for multiple texts, preserving input
	// order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension returns the embedding dimension for this backend.
	Dimension() int

	// Provider returns the backend name.
	Provider() string

	// Model returns the model version tag.
	Model() string

	// Close releases any resources held by the embedder.
	Close() error
}

// Cache provides in-memory LRU caching of embeddings by content hash.
type Cache struct {
	cache *lru.Cache[string, []float32]
}

// NewCache creates a new embedding cache with LRU eviction.
func NewCache(maxLen int) *Cache {
	if maxLen <= 0 {
		maxLen = 10000
	}
	cache, err := lru.New[string, []float32](maxLen)
	if err != nil {
		// Only reachable with a non-positive size
		cache, _ = lru.New[string, []float32](10000)
	}
	return &Cache{cache: cache}
}

// Get retrieves a deep copy of a cached vector. A copy is returned so
// caller mutations cannot pollute the cache.
func (c *Cache) Get(hash string) ([]float32, bool) {
	vec, ok := c.cache.Get(hash)
	if !ok {
		return nil, false
	}
	cp := make([]float32, len(vec))
	copy(cp, vec)
	return cp, true
}

// Set stores a vector with automatic LRU eviction.
func (c *Cache) Set(hash string, vec []float32) {
	c.cache.Add(hash, vec)
}

// Size returns the current cache size.
func (c *Cache) Size() int {
	return c.cache.Len()
}

// Clear empties the cache.
func (c *Cache) Clear() {
	c.cache.Purge()
}

// ComputeHash computes the SHA-256 hash of text for cache keying.
func ComputeHash(text string) string {
	h := sha256.Sum256([]byte(text))
	return hex.EncodeToString(h[:])
}

// ValidateText checks a single embedding input.
func ValidateText(text string) error {
	if text == "" {
		return fmt.Errorf("%w: text cannot be empty", types.ErrInvalidInput)
	}
	if len(text) > MaxTextChars {
		return fmt.Errorf("%w: text of %d chars exceeds limit %d", types.ErrInvalidInput, len(text), MaxTextChars)
	}
	return nil
}

// ValidateBatch checks a batch embedding input.
func ValidateBatch(texts []string) error {
	if len(texts) == 0 {
		return fmt.Errorf("%w: no texts provided", types.ErrInvalidInput)
	}
	if len(texts) > MaxBatchSize {
		return fmt.Errorf("%w: batch of %d exceeds limit %d", types.ErrInvalidInput, len(texts), MaxBatchSize)
	}
	for i, text := range texts {
		if err := ValidateText(text); err != nil {
			return fmt.Errorf("text at index %d: %w", i, err)
		}
	}
	return nil
}
