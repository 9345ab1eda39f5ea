// Package config loads engine configuration from a TOML file with
// environment variable overrides. The config file lives at
// ~/.docindex/config.toml by default; every field has a working default so
// a missing file is not an error.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pelletier/go-toml/v2"
)

// Defaults for engine tuning.
const (
	DefaultMaxChunkSize = 800
	DefaultChunkOverlap = 100
	DefaultMinChunkSize = 120
	DefaultWorkers      = 4
	DefaultTopK         = 10
)

// Config holds the full engine configuration.
type Config struct {
	// Store
	DBPath string `toml:"db_path"`

	// Chunker
	MaxChunkSize int `toml:"max_chunk_size"`
	ChunkOverlap int `toml:"chunk_overlap"`
	MinChunkSize int `toml:"min_chunk_size"`

	// Embedder
	Provider       string  `toml:"provider"` // openai, ollama, local
	Model          string  `toml:"model"`    // optional provider model override
	RequestsPerSec float64 `toml:"requests_per_sec"`

	// Indexer
	Workers int `toml:"workers"`

	// Retriever
	TopK int `toml:"top_k"`
}

// Default returns the configuration used when no file or overrides exist.
func Default() *Config {
	return &Config{
		DBPath:       defaultDBPath(),
		MaxChunkSize: DefaultMaxChunkSize,
		ChunkOverlap: DefaultChunkOverlap,
		MinChunkSize: DefaultMinChunkSize,
		Workers:      DefaultWorkers,
		TopK:         DefaultTopK,
	}
}

// Load reads configuration from path, falling back to defaults for any
// unset field and applying DOCINDEX_* environment overrides last. An empty
// path means the default location; a missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = defaultConfigPath()
	}

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// No file, defaults + env only.
	case err != nil:
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	default:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides file values with DOCINDEX_* environment variables.
func (c *Config) applyEnv() {
	if v := os.Getenv("DOCINDEX_DB_PATH"); v != "" {
		c.DBPath = v
	}
	if v := os.Getenv("DOCINDEX_PROVIDER"); v != "" {
		c.Provider = v
	}
	if v := os.Getenv("DOCINDEX_MODEL"); v != "" {
		c.Model = v
	}
	if v := os.Getenv("DOCINDEX_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Workers = n
		}
	}
}

func (c *Config) validate() error {
	if c.MaxChunkSize <= 0 {
		c.MaxChunkSize = DefaultMaxChunkSize
	}
	if c.ChunkOverlap < 0 {
		c.ChunkOverlap = DefaultChunkOverlap
	}
	if c.ChunkOverlap >= c.MaxChunkSize {
		return fmt.Errorf("chunk_overlap %d must be smaller than max_chunk_size %d", c.ChunkOverlap, c.MaxChunkSize)
	}
	if c.MinChunkSize < 0 {
		c.MinChunkSize = DefaultMinChunkSize
	}
	if c.Workers <= 0 {
		c.Workers = DefaultWorkers
	}
	if c.TopK <= 0 {
		c.TopK = DefaultTopK
	}
	return nil
}

// APIKey returns the OpenAI API key. Secrets come from the environment
// only, never the config file.
func (c *Config) APIKey() string {
	return os.Getenv("OPENAI_API_KEY")
}

// OllamaHost returns the Ollama server address from the environment.
func (c *Config) OllamaHost() string {
	return os.Getenv("OLLAMA_HOST")
}

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.toml"
	}
	return filepath.Join(home, ".docindex", "config.toml")
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "docindex.db"
	}
	return filepath.Join(home, ".docindex", "docindex.db")
}
