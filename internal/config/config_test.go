package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)

	assert.Equal(t, DefaultMaxChunkSize, cfg.MaxChunkSize)
	assert.Equal(t, DefaultChunkOverlap, cfg.ChunkOverlap)
	assert.Equal(t, DefaultWorkers, cfg.Workers)
	assert.NotEmpty(t, cfg.DBPath)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
db_path = "/tmp/test.db"
max_chunk_size = 1200
chunk_overlap = 150
provider = "ollama"
workers = 8
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/test.db", cfg.DBPath)
	assert.Equal(t, 1200, cfg.MaxChunkSize)
	assert.Equal(t, 150, cfg.ChunkOverlap)
	assert.Equal(t, "ollama", cfg.Provider)
	assert.Equal(t, 8, cfg.Workers)
	// Unset fields keep defaults
	assert.Equal(t, DefaultTopK, cfg.TopK)
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`provider = "openai"`), 0644))

	t.Setenv("DOCINDEX_PROVIDER", "local")
	t.Setenv("DOCINDEX_WORKERS", "2")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "local", cfg.Provider)
	assert.Equal(t, 2, cfg.Workers)
}

func TestOverlapMustBeSmallerThanChunkSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("max_chunk_size = 100\nchunk_overlap = 100\n"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadMalformedTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("max_chunk_size = ["), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}
