package indexer

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/accelnorm/docindex/internal/chunker"
	"github.com/accelnorm/docindex/internal/embedder"
	"github.com/accelnorm/docindex/internal/logger"
	"github.com/accelnorm/docindex/internal/store"
	"github.com/accelnorm/docindex/pkg/types"
)

// Mode selects how an indexing run treats existing data
type Mode int

const (
	// ModeIncremental replaces only the records of the document being
	// indexed, leaving other sources untouched. This is the default.
	ModeIncremental Mode = iota
	// ModeReset clears the entire index, including the recorded
	// embedding configuration, before indexing the document.
	ModeReset
)

// String returns the mode name
func (m Mode) String() string {
	switch m {
	case ModeReset:
		return "reset"
	default:
		return "incremental"
	}
}

// State describes where in the pipeline a run currently is
type State string

const (
	StateIdle      State = "idle"
	StateChunking  State = "chunking"
	StateEmbedding State = "embedding"
	StateUpserting State = "upserting"
	StateDone      State = "done"
	StateFailed    State = "failed"
)

// Stats describes the outcome of an indexing run
type Stats struct {
	RunID          string
	SourceID       string
	Mode           Mode
	State          State
	ChunksCreated  int
	ChunksEmbedded int
	RecordsDeleted int
	Duration       time.Duration
}

// Indexer coordinates the indexing pipeline: chunk -> embed -> store
type Indexer struct {
	chunker  *chunker.Chunker
	embedder embedder.Embedder
	store    store.Store
	workers  int
	locks    *lockRegistry
}

// Config contains configuration for the indexer
type Config struct {
	Workers int // Number of concurrent embedding workers (default: runtime.NumCPU())
}

// New creates a new Indexer instance
func New(ch *chunker.Chunker, emb embedder.Embedder, st store.Store, cfg *Config) *Indexer {
	workers := runtime.NumCPU()
	if cfg != nil && cfg.Workers > 0 {
		workers = cfg.Workers
	}
	return &Indexer{
		chunker:  ch,
		embedder: emb,
		store:    st,
		workers:  workers,
		locks:    newLockRegistry(),
	}
}

// Run indexes a single document. Runs for the same source serialize;
// runs for different sources may proceed concurrently. On any failure
// the store is left exactly as it was before the run.
func (idx *Indexer) Run(ctx context.Context, doc *types.Document, mode Mode) (*Stats, error) {
	stats := &Stats{
		RunID:    uuid.NewString(),
		SourceID: doc.SourceID,
		Mode:     mode,
		State:    StateIdle,
	}

	if err := doc.Validate(); err != nil {
		stats.State = StateFailed
		return stats, &types.IndexError{SourceID: doc.SourceID, Err: err}
	}

	unlock := idx.locks.acquire(doc.SourceID)
	defer unlock()

	start := time.Now()
	err := idx.run(ctx, doc, mode, stats)
	stats.Duration = time.Since(start)

	if err != nil {
		stats.State = StateFailed
		return stats, &types.IndexError{SourceID: doc.SourceID, Err: err}
	}

	stats.State = StateDone
	return stats, nil
}

func (idx *Indexer) run(ctx context.Context, doc *types.Document, mode Mode, stats *Stats) error {
	if mode != ModeReset {
		if err := idx.checkVersion(ctx); err != nil {
			return err
		}
	}

	stats.State = StateChunking
	chunks := idx.chunker.Chunk(doc)
	stats.ChunksCreated = len(chunks)

	if len(chunks) == 0 {
		logger.Warn("document %s produced no chunks", doc.SourceID)
	}

	stats.State = StateEmbedding
	vectors, err := idx.embedChunks(ctx, chunks)
	if err != nil {
		return fmt.Errorf("%w: %w", types.ErrPartialIndex, err)
	}
	stats.ChunksEmbedded = len(vectors)

	stats.State = StateUpserting
	return idx.persist(ctx, doc, mode, chunks, vectors, stats)
}

// checkVersion compares the store's recorded embedding configuration
// against the active embedder. A mismatch means existing vectors live in
// a different space; only a reset run may proceed.
func (idx *Indexer) checkVersion(ctx context.Context) error {
	provider, err := idx.store.GetMeta(ctx, store.MetaProvider)
	if errors.Is(err, store.ErrNotFound) {
		// Fresh index, nothing to compare against
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: %w", types.ErrBackendUnavailable, err)
	}

	model, err := idx.store.GetMeta(ctx, store.MetaModel)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%w: %w", types.ErrBackendUnavailable, err)
	}

	if provider != idx.embedder.Provider() || model != idx.embedder.Model() {
		return fmt.Errorf("%w: index built with %s/%s, embedder is %s/%s (reset required)",
			types.ErrVersionMismatch, provider, model, idx.embedder.Provider(), idx.embedder.Model())
	}
	return nil
}

// embedChunks generates vectors for all chunks concurrently. Results are
// placed by slice position so output order matches chunk order.
func (idx *Indexer) embedChunks(ctx context.Context, chunks []types.Chunk) ([][]float32, error) {
	vectors := make([][]float32, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	semaphore := make(chan struct{}, idx.workers)

	for i := range chunks {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case semaphore <- struct{}{}:
			}
			defer func() { <-semaphore }()

			vec, err := idx.embedder.Embed(gctx, chunks[i].Content)
			if err != nil {
				return fmt.Errorf("embed chunk %d: %w", chunks[i].Seq, err)
			}
			vectors[i] = vec
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return vectors, nil
}

// persist writes the run's records in a single transaction so a failure
// at any point leaves the previous index state intact.
func (idx *Indexer) persist(ctx context.Context, doc *types.Document, mode Mode,
	chunks []types.Chunk, vectors [][]float32, stats *Stats) error {

	tx, err := idx.store.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("%w: begin transaction: %w", types.ErrBackendUnavailable, err)
	}
	defer func() { _ = tx.Rollback() }()

	if mode == ModeReset {
		if err := tx.Reset(ctx); err != nil {
			return err
		}
	} else {
		deleted, err := tx.DeleteBySource(ctx, doc.SourceID)
		if err != nil {
			return fmt.Errorf("delete previous records: %w", err)
		}
		stats.RecordsDeleted = deleted
	}

	// The parent source row must exist before its records; the schema
	// enforces the reference with foreign keys on.
	source := &store.Source{
		SourceID:    doc.SourceID,
		ChunkCount:  len(chunks),
		ContentHash: sha256.Sum256([]byte(doc.Content)),
	}
	if err := tx.UpsertSource(ctx, source); err != nil {
		return fmt.Errorf("upsert source: %w", err)
	}

	records := make([]*store.Record, len(chunks))
	for i, chunk := range chunks {
		records[i] = &store.Record{
			ChunkID:     chunk.ID,
			SourceID:    chunk.SourceID,
			Seq:         chunk.Seq,
			StartOffset: chunk.StartOffset,
			EndOffset:   chunk.EndOffset,
			Content:     chunk.Content,
			Vector:      store.SerializeVector(vectors[i]),
			Dimension:   len(vectors[i]),
		}
	}
	if err := tx.UpsertRecords(ctx, records); err != nil {
		return fmt.Errorf("%w: %w", types.ErrPartialIndex, err)
	}

	// Record the embedding configuration so later runs and queries can
	// detect incompatible vector spaces
	meta := map[string]string{
		store.MetaProvider:  idx.embedder.Provider(),
		store.MetaModel:     idx.embedder.Model(),
		store.MetaDimension: strconv.Itoa(idx.embedder.Dimension()),
	}
	for key, value := range meta {
		if err := tx.SetMeta(ctx, key, value); err != nil {
			return fmt.Errorf("set meta %s: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %w", types.ErrBackendUnavailable, err)
	}

	logger.Debug("indexed %s: %d chunks (%s mode)", doc.SourceID, len(chunks), mode)
	return nil
}

// Remove deletes all records for a source. Missing sources are a no-op.
func (idx *Indexer) Remove(ctx context.Context, sourceID string) (int, error) {
	if sourceID == "" {
		return 0, fmt.Errorf("%w: source ID cannot be empty", types.ErrInvalidInput)
	}

	unlock := idx.locks.acquire(sourceID)
	defer unlock()

	tx, err := idx.store.BeginTx(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: begin transaction: %w", types.ErrBackendUnavailable, err)
	}
	defer func() { _ = tx.Rollback() }()

	deleted, err := tx.DeleteBySource(ctx, sourceID)
	if err != nil {
		return 0, err
	}
	if err := tx.DeleteSource(ctx, sourceID); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("%w: commit: %w", types.ErrBackendUnavailable, err)
	}
	return deleted, nil
}
