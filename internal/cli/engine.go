package cli

import (
	"fmt"

	"github.com/accelnorm/docindex/internal/chunker"
	"github.com/accelnorm/docindex/internal/config"
	"github.com/accelnorm/docindex/internal/embedder"
	"github.com/accelnorm/docindex/internal/indexer"
	"github.com/accelnorm/docindex/internal/retriever"
	"github.com/accelnorm/docindex/internal/store"
)

// engine bundles the wired pipeline for CLI commands. Each command opens
// the engine, does its work and closes it again; commands are short lived
// so there is no shared long-running state.
type engine struct {
	store     store.Store
	indexer   *indexer.Indexer
	retriever *retriever.Retriever
}

func openEngine(cfg *config.Config) (*engine, error) {
	st, err := store.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open index at %s: %w", cfg.DBPath, err)
	}

	provider := cfg.Provider
	if provider == "" {
		provider = embedder.DetectProvider()
	}

	emb, err := embedder.New(embedder.Config{
		Provider:       provider,
		APIKey:         cfg.APIKey(),
		Host:           cfg.OllamaHost(),
		Model:          cfg.Model,
		RequestsPerSec: cfg.RequestsPerSec,
	})
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("failed to initialize embedder: %w", err)
	}

	ch := chunker.New(
		chunker.WithMaxChunkSize(cfg.MaxChunkSize),
		chunker.WithOverlap(cfg.ChunkOverlap),
		chunker.WithMinChunkSize(cfg.MinChunkSize),
	)

	return &engine{
		store:     st,
		indexer:   indexer.New(ch, emb, st, &indexer.Config{Workers: cfg.Workers}),
		retriever: retriever.New(st, emb),
	}, nil
}

func (e *engine) Close() error {
	return e.store.Close()
}
