package integration

import (
	"context"
	"math"
	"strings"

	"github.com/accelnorm/docindex/pkg/types"
)

// vocabulary defines the axes of the mock embedding space. Each word maps
// to one dimension, so texts sharing words score high cosine similarity
// and unrelated texts score near zero. This makes ranking assertions
// exact instead of statistical.
var vocabulary = []string{
	"install", "setup", "configure",
	"network", "retry", "timeout",
	"storage", "disk", "backup",
	"auth", "token", "login",
}

// mockEmbedder is a deterministic bag-of-words embedder for tests.
type mockEmbedder struct {
	model string
}

func newMockEmbedder() *mockEmbedder {
	return &mockEmbedder{model: "vocab-v1"}
}

func (m *mockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, types.ErrInvalidInput
	}

	vec := make([]float32, len(vocabulary))
	lower := strings.ToLower(text)
	for i, word := range vocabulary {
		vec[i] = float32(strings.Count(lower, word))
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		// Text shares no vocabulary; give it a dedicated off-axis value
		// so the vector is still valid but dissimilar to everything.
		vec[0] = 1e-3
		return vec, nil
	}

	scale := float32(1 / math.Sqrt(norm))
	for i := range vec {
		vec[i] *= scale
	}
	return vec, nil
}

func (m *mockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := m.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

func (m *mockEmbedder) Dimension() int   { return len(vocabulary) }
func (m *mockEmbedder) Provider() string { return "mock" }
func (m *mockEmbedder) Model() string    { return m.model }
func (m *mockEmbedder) Close() error     { return nil }

// failingEmbedder fails every call; used to verify rollback behavior.
type failingEmbedder struct {
	mockEmbedder
	err error
}

func (f *failingEmbedder) Embed(context.Context, string) ([]float32, error) {
	return nil, f.err
}

func (f *failingEmbedder) EmbedBatch(context.Context, []string) ([][]float32, error) {
	return nil, f.err
}
