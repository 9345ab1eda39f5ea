package embedder

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/accelnorm/docindex/pkg/types"
)

// Provider names.
const (
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
	ProviderLocal  = "local"
)

// Default models and dimensions.
const (
	DefaultOpenAIModel     = "text-embedding-3-small"
	DefaultOpenAIDimension = 1536
	DefaultOllamaModel     = "nomic-embed-text"
	DefaultOllamaDimension = 768
	DefaultOllamaHost      = "http://localhost:11434"
	LocalModelName         = "hash-v1"
	LocalDimension         = 384
)

// OpenAIProvider generates embeddings via the OpenAI API.
type OpenAIProvider struct {
	client  *openai.Client
	model   string
	dim     int
	cache   *Cache
	limiter *rate.Limiter
	retry   RetryConfig
}

// NewOpenAIProvider creates an OpenAI-backed embedder.
func NewOpenAIProvider(apiKey, model string, cacheSize int, rps float64) (*OpenAIProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: OpenAI API key is required", types.ErrInvalidInput)
	}
	if model == "" {
		model = DefaultOpenAIModel
	}
	if rps <= 0 {
		rps = 5
	}
	return &OpenAIProvider{
		client:  openai.NewClient(apiKey),
		model:   model,
		dim:     DefaultOpenAIDimension,
		cache:   NewCache(cacheSize),
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
		retry:   DefaultRetryConfig(),
	}, nil
}

// Embed generates a vector for a single text, consulting the cache first.
func (p *OpenAIProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ValidateText(text); err != nil {
		return nil, err
	}

	hash := ComputeHash(text)
	if vec, ok := p.cache.Get(hash); ok {
		return vec, nil
	}

	vecs, err := retryWithBackoff(ctx, p.retry, func() ([][]float32, error) {
		return p.request(ctx, []string{text})
	})
	if err != nil {
		return nil, err
	}

	p.cache.Set(hash, vecs[0])
	return vecs[0], nil
}

// EmbedBatch generates vectors for multiple texts. Cached entries are
// served locally; only misses go to the API, and input order is
// preserved in the result.
func (p *OpenAIProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if err := ValidateBatch(texts); err != nil {
		return nil, err
	}

	results := make([][]float32, len(texts))
	var missing []string
	var missingIdx []int

	for i, text := range texts {
		if vec, ok := p.cache.Get(ComputeHash(text)); ok {
			results[i] = vec
		} else {
			missing = append(missing, text)
			missingIdx = append(missingIdx, i)
		}
	}

	if len(missing) == 0 {
		return results, nil
	}

	vecs, err := retryWithBackoff(ctx, p.retry, func() ([][]float32, error) {
		return p.request(ctx, missing)
	})
	if err != nil {
		return nil, err
	}

	for j, vec := range vecs {
		results[missingIdx[j]] = vec
		p.cache.Set(ComputeHash(missing[j]), vec)
	}
	return results, nil
}

func (p *OpenAIProvider) request(ctx context.Context, inputs []string) ([][]float32, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	resp, err := p.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: inputs,
		Model: openai.EmbeddingModel(p.model),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: openai request failed: %v", types.ErrBackendUnavailable, err)
	}
	if len(resp.Data) != len(inputs) {
		return nil, fmt.Errorf("%w: openai returned %d embeddings for %d inputs", types.ErrBackendUnavailable, len(resp.Data), len(inputs))
	}

	vecs := make([][]float32, len(resp.Data))
	for i, d := range resp.Data {
		vecs[i] = d.Embedding
	}
	return vecs, nil
}

// Dimension returns the embedding dimension.
func (p *OpenAIProvider) Dimension() int { return p.dim }

// Provider returns the backend name.
func (p *OpenAIProvider) Provider() string { return ProviderOpenAI }

// Model returns the model version tag.
func (p *OpenAIProvider) Model() string { return p.model }

// Close releases resources.
func (p *OpenAIProvider) Close() error {
	p.cache.Clear()
	return nil
}

// OllamaProvider generates embeddings via a local Ollama server.
type OllamaProvider struct {
	host   string
	model  string
	dim    int
	client *http.Client
	cache  *Cache
	retry  RetryConfig
}

// NewOllamaProvider creates an Ollama-backed embedder.
func NewOllamaProvider(host, model string, cacheSize int) (*OllamaProvider, error) {
	if host == "" {
		host = DefaultOllamaHost
	}
	if model == "" {
		model = DefaultOllamaModel
	}
	return &OllamaProvider{
		host:  host,
		model: model,
		dim:   DefaultOllamaDimension,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		cache: NewCache(cacheSize),
		retry: DefaultRetryConfig(),
	}, nil
}

type ollamaEmbedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type ollamaEmbedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// Embed generates a vector for a single text.
func (p *OllamaProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := p.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch generates vectors for multiple texts.
func (p *OllamaProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if err := ValidateBatch(texts); err != nil {
		return nil, err
	}

	results := make([][]float32, len(texts))
	var missing []string
	var missingIdx []int
	for i, text := range texts {
		if vec, ok := p.cache.Get(ComputeHash(text)); ok {
			results[i] = vec
		} else {
			missing = append(missing, text)
			missingIdx = append(missingIdx, i)
		}
	}
	if len(missing) == 0 {
		return results, nil
	}

	vecs, err := retryWithBackoff(ctx, p.retry, func() ([][]float32, error) {
		return p.request(ctx, missing)
	})
	if err != nil {
		return nil, err
	}

	for j, vec := range vecs {
		results[missingIdx[j]] = vec
		p.cache.Set(ComputeHash(missing[j]), vec)
	}
	return results, nil
}

func (p *OllamaProvider) request(ctx context.Context, inputs []string) ([][]float32, error) {
	body, err := json.Marshal(ollamaEmbedRequest{Model: p.model, Input: inputs})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.host+"/api/embed", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: ollama request failed: %v", types.ErrBackendUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("%w: ollama returned status %d: %s", types.ErrBackendUnavailable, resp.StatusCode, string(data))
	}

	var out ollamaEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: decode ollama response: %v", types.ErrBackendUnavailable, err)
	}
	if len(out.Embeddings) != len(inputs) {
		return nil, fmt.Errorf("%w: ollama returned %d embeddings for %d inputs", types.ErrBackendUnavailable, len(out.Embeddings), len(inputs))
	}
	return out.Embeddings, nil
}

// Dimension returns the embedding dimension.
func (p *OllamaProvider) Dimension() int { return p.dim }

// Provider returns the backend name.
func (p *OllamaProvider) Provider() string { return ProviderOllama }

// Model returns the model version tag.
func (p *OllamaProvider) Model() string { return p.model }

// Close releases resources.
func (p *OllamaProvider) Close() error {
	p.cache.Clear()
	p.client.CloseIdleConnections()
	return nil
}

// LocalProvider generates deterministic hash-derived vectors with no
// external dependency. Vectors carry no semantic signal; the provider
// exists for offline development and tests, where determinism and
// dimensional consistency are what matter.
type LocalProvider struct {
	cache *Cache
}

// NewLocalProvider creates a local deterministic embedder.
func NewLocalProvider(cacheSize int) *LocalProvider {
	return &LocalProvider{cache: NewCache(cacheSize)}
}

// Embed generates a deterministic vector for text.
func (p *LocalProvider) Embed(_ context.Context, text string) ([]float32, error) {
	if err := ValidateText(text); err != nil {
		return nil, err
	}

	hash := ComputeHash(text)
	if vec, ok := p.cache.Get(hash); ok {
		return vec, nil
	}

	vec := hashVector(text, LocalDimension)
	p.cache.Set(hash, vec)
	return vec, nil
}

// EmbedBatch generates deterministic vectors for multiple texts.
func (p *LocalProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if err := ValidateBatch(texts); err != nil {
		return nil, err
	}
	results := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := p.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		results[i] = vec
	}
	return results, nil
}

// Dimension returns the embedding dimension.
func (p *LocalProvider) Dimension() int { return LocalDimension }

// Provider returns the backend name.
func (p *LocalProvider) Provider() string { return ProviderLocal }

// Model returns the model version tag.
func (p *LocalProvider) Model() string { return LocalModelName }

// Close releases resources.
func (p *LocalProvider) Close() error {
	p.cache.Clear()
	return nil
}

// hashVector expands the SHA-256 of text into a unit-length vector of
// the given dimension by iterated hashing.
func hashVector(text string, dim int) []float32 {
	vec := make([]float32, dim)
	seed := sha256.Sum256([]byte(text))
	buf := seed[:]

	for i := 0; i < dim; i++ {
		if i%8 == 0 && i > 0 {
			next := sha256.Sum256(buf)
			buf = next[:]
		}
		bits := binary.LittleEndian.Uint32(buf[(i%8)*4 : (i%8)*4+4])
		// Map to [-1, 1)
		vec[i] = float32(bits)/float32(math.MaxUint32)*2 - 1
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	norm = math.Sqrt(norm)
	if norm > 0 {
		for i := range vec {
			vec[i] = float32(float64(vec[i]) / norm)
		}
	}
	return vec
}
