package embedder

import (
	"fmt"
	"os"

	"github.com/accelnorm/docindex/pkg/types"
)

// Config holds embedder construction settings.
type Config struct {
	Provider       string
	APIKey         string
	Host           string
	Model          string
	CacheSize      int
	RequestsPerSec float64
}

// New creates an embedder for the configured provider.
func New(cfg Config) (Embedder, error) {
	switch cfg.Provider {
	case ProviderOpenAI:
		return NewOpenAIProvider(cfg.APIKey, cfg.Model, cfg.CacheSize, cfg.RequestsPerSec)
	case ProviderOllama:
		return NewOllamaProvider(cfg.Host, cfg.Model, cfg.CacheSize)
	case ProviderLocal, "":
		return NewLocalProvider(cfg.CacheSize), nil
	default:
		return nil, fmt.Errorf("%w: unknown provider %q", types.ErrInvalidInput, cfg.Provider)
	}
}

// DetectProvider picks a provider from the environment.
// DOCINDEX_PROVIDER forces a provider; otherwise OPENAI_API_KEY selects
// OpenAI, then OLLAMA_HOST selects Ollama, and the local provider is the
// fallback.
func DetectProvider() string {
	if p := os.Getenv("DOCINDEX_PROVIDER"); p != "" {
		return p
	}
	if os.Getenv("OPENAI_API_KEY") != "" {
		return ProviderOpenAI
	}
	if os.Getenv("OLLAMA_HOST") != "" {
		return ProviderOllama
	}
	return ProviderLocal
}
