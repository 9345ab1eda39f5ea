package store

import (
	"context"
	"crypto/sha256"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// seedSources creates parent source rows; records reference them with
// foreign keys enforced.
func TestNewSQLiteStoreCreatesParentDirectory(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), ".docindex", "index.db")

	s, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	_, err = os.Stat(filepath.Dir(dbPath))
	require.NoError(t, err)

	// The fresh store must be usable immediately
	count, err := s.CountRecords(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func seedSources(t *testing.T, s *SQLiteStore, sourceIDs ...string) {
	t.Helper()
	for _, id := range sourceIDs {
		require.NoError(t, s.UpsertSource(context.Background(), &Source{SourceID: id}))
	}
}

func testRecord(chunkID, sourceID string, seq int, vector []float32) *Record {
	return &Record{
		ChunkID:     chunkID,
		SourceID:    sourceID,
		Seq:         seq,
		StartOffset: seq * 100,
		EndOffset:   seq*100 + 100,
		Content:     "content for " + chunkID,
		Vector:      SerializeVector(vector),
		Dimension:   len(vector),
	}
}

func TestUpsertAndGetRecord(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seedSources(t, s, "doc-1")
	rec := testRecord("abc123", "doc-1", 0, []float32{1, 0, 0})
	require.NoError(t, s.UpsertRecords(ctx, []*Record{rec}))

	got, err := s.GetRecord(ctx, "abc123")
	require.NoError(t, err)
	assert.Equal(t, "doc-1", got.SourceID)
	assert.Equal(t, 0, got.Seq)
	assert.Equal(t, rec.Content, got.Content)
	assert.Equal(t, 3, got.Dimension)
	assert.Equal(t, []float32{1, 0, 0}, DeserializeVector(got.Vector))
}

func TestGetRecordNotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetRecord(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpsertRecordOverwrites(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seedSources(t, s, "doc-1")
	rec := testRecord("abc123", "doc-1", 0, []float32{1, 0, 0})
	require.NoError(t, s.UpsertRecords(ctx, []*Record{rec}))

	updated := testRecord("abc123", "doc-1", 0, []float32{0, 1, 0})
	updated.Content = "revised content"
	require.NoError(t, s.UpsertRecords(ctx, []*Record{updated}))

	got, err := s.GetRecord(ctx, "abc123")
	require.NoError(t, err)
	assert.Equal(t, "revised content", got.Content)
	assert.Equal(t, []float32{0, 1, 0}, DeserializeVector(got.Vector))

	count, err := s.CountRecords(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestUpsertRecordsRequiresSourceRow(t *testing.T) {
	s := newTestStore(t)

	// Foreign keys are on; a record without its parent source row must
	// be rejected rather than silently orphaned.
	rec := testRecord("orphan", "never-created", 0, []float32{1})
	err := s.UpsertRecords(context.Background(), []*Record{rec})
	assert.Error(t, err)
}

func TestListBySourceOrderedBySeq(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seedSources(t, s, "doc-1", "doc-2")
	records := []*Record{
		testRecord("c2", "doc-1", 2, []float32{1}),
		testRecord("c0", "doc-1", 0, []float32{1}),
		testRecord("c1", "doc-1", 1, []float32{1}),
		testRecord("other", "doc-2", 0, []float32{1}),
	}
	require.NoError(t, s.UpsertRecords(ctx, records))

	got, err := s.ListBySource(ctx, "doc-1")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "c0", got[0].ChunkID)
	assert.Equal(t, "c1", got[1].ChunkID)
	assert.Equal(t, "c2", got[2].ChunkID)
}

func TestDeleteBySource(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seedSources(t, s, "doc-1", "doc-2")
	records := []*Record{
		testRecord("c0", "doc-1", 0, []float32{1}),
		testRecord("c1", "doc-1", 1, []float32{1}),
		testRecord("other", "doc-2", 0, []float32{1}),
	}
	require.NoError(t, s.UpsertRecords(ctx, records))

	deleted, err := s.DeleteBySource(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)

	// Other source untouched
	got, err := s.ListBySource(ctx, "doc-2")
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestDeleteBySourceMissingIsNoop(t *testing.T) {
	s := newTestStore(t)

	deleted, err := s.DeleteBySource(context.Background(), "never-indexed")
	require.NoError(t, err)
	assert.Equal(t, 0, deleted)
}

func TestUpsertAndGetSource(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	src := &Source{
		SourceID:    "doc-1",
		ChunkCount:  5,
		ContentHash: sha256.Sum256([]byte("document body")),
	}
	require.NoError(t, s.UpsertSource(ctx, src))
	assert.NotZero(t, src.ID)

	got, err := s.GetSource(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, 5, got.ChunkCount)
	assert.Equal(t, src.ContentHash, got.ContentHash)
	assert.False(t, got.LastIndexedAt.IsZero())
}

func TestUpsertSourceUpdatesExisting(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertSource(ctx, &Source{SourceID: "doc-1", ChunkCount: 5}))
	require.NoError(t, s.UpsertSource(ctx, &Source{SourceID: "doc-1", ChunkCount: 8}))

	got, err := s.GetSource(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, 8, got.ChunkCount)

	sources, err := s.ListSources(ctx)
	require.NoError(t, err)
	assert.Len(t, sources, 1)
}

func TestListSourcesOrdered(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertSource(ctx, &Source{SourceID: "zeta"}))
	require.NoError(t, s.UpsertSource(ctx, &Source{SourceID: "alpha"}))

	sources, err := s.ListSources(ctx)
	require.NoError(t, err)
	require.Len(t, sources, 2)
	assert.Equal(t, "alpha", sources[0].SourceID)
	assert.Equal(t, "zeta", sources[1].SourceID)
}

func TestMetaRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SetMeta(ctx, MetaProvider, "local"))
	require.NoError(t, s.SetMeta(ctx, MetaModel, "hash-v1"))

	provider, err := s.GetMeta(ctx, MetaProvider)
	require.NoError(t, err)
	assert.Equal(t, "local", provider)

	// Overwrite
	require.NoError(t, s.SetMeta(ctx, MetaProvider, "openai"))
	provider, err = s.GetMeta(ctx, MetaProvider)
	require.NoError(t, err)
	assert.Equal(t, "openai", provider)
}

func TestGetMetaMissing(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetMeta(context.Background(), "nonexistent")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStatus(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertSource(ctx, &Source{SourceID: "doc-1", ChunkCount: 2}))
	require.NoError(t, s.UpsertRecords(ctx, []*Record{
		testRecord("c0", "doc-1", 0, []float32{1}),
		testRecord("c1", "doc-1", 1, []float32{1}),
	}))
	require.NoError(t, s.SetMeta(ctx, MetaProvider, "local"))
	require.NoError(t, s.SetMeta(ctx, MetaModel, "hash-v1"))
	require.NoError(t, s.SetMeta(ctx, MetaDimension, "384"))

	status, err := s.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, status.SourceCount)
	assert.Equal(t, 2, status.RecordCount)
	assert.Equal(t, "local", status.Provider)
	assert.Equal(t, "hash-v1", status.Model)
	assert.Equal(t, 384, status.Dimension)
	assert.True(t, status.Health.DatabaseAccessible)
	assert.True(t, status.Health.VectorsAvailable)
}

func TestStatusEmptyIndex(t *testing.T) {
	s := newTestStore(t)

	status, err := s.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, status.SourceCount)
	assert.Equal(t, 0, status.RecordCount)
	assert.Empty(t, status.Provider)
	assert.False(t, status.Health.VectorsAvailable)
}

func TestReset(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertSource(ctx, &Source{SourceID: "doc-1", ChunkCount: 1}))
	require.NoError(t, s.UpsertRecords(ctx, []*Record{testRecord("c0", "doc-1", 0, []float32{1})}))
	require.NoError(t, s.SetMeta(ctx, MetaProvider, "local"))

	require.NoError(t, s.Reset(ctx))

	count, err := s.CountRecords(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	sources, err := s.ListSources(ctx)
	require.NoError(t, err)
	assert.Empty(t, sources)

	// Metadata cleared too: a reset index accepts any embedding config
	_, err = s.GetMeta(ctx, MetaProvider)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTransactionCommit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	tx, err := s.BeginTx(ctx)
	require.NoError(t, err)

	require.NoError(t, tx.UpsertSource(ctx, &Source{SourceID: "doc-1", ChunkCount: 1}))
	require.NoError(t, tx.UpsertRecords(ctx, []*Record{testRecord("c0", "doc-1", 0, []float32{1})}))
	require.NoError(t, tx.Commit())

	count, err := s.CountRecords(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestTransactionRollback(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// Existing state that the rolled-back transaction must not disturb
	seedSources(t, s, "doc-1")
	require.NoError(t, s.UpsertRecords(ctx, []*Record{testRecord("keep", "doc-1", 0, []float32{1})}))

	tx, err := s.BeginTx(ctx)
	require.NoError(t, err)

	_, err = tx.DeleteBySource(ctx, "doc-1")
	require.NoError(t, err)
	require.NoError(t, tx.UpsertRecords(ctx, []*Record{testRecord("new", "doc-1", 0, []float32{1})}))
	require.NoError(t, tx.Rollback())

	got, err := s.ListBySource(ctx, "doc-1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "keep", got[0].ChunkID)
}

func TestTransactionQueryAndStatus(t *testing.T) {
	s := newTestStore(t)

	// The pool holds a single connection, so reads issued inside an open
	// transaction must run on the transaction's own connection rather
	// than waiting on the pool.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	tx, err := s.BeginTx(ctx)
	require.NoError(t, err)
	defer func() { _ = tx.Rollback() }()

	require.NoError(t, tx.UpsertSource(ctx, &Source{SourceID: "doc-1", ChunkCount: 1}))
	require.NoError(t, tx.UpsertRecords(ctx, []*Record{testRecord("c0", "doc-1", 0, []float32{1})}))

	matches, err := tx.Query(ctx, []float32{1}, 10, nil)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "c0", matches[0].ChunkID)

	status, err := tx.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, status.SourceCount)
	assert.Equal(t, 1, status.RecordCount)
}

func TestNestedTransactionRejected(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	tx, err := s.BeginTx(ctx)
	require.NoError(t, err)
	defer func() { _ = tx.Rollback() }()

	_, err = tx.BeginTx(ctx)
	assert.Error(t, err)
}

func TestMigrationsIdempotent(t *testing.T) {
	s := newTestStore(t)

	// Re-applying against an up-to-date schema is a no-op
	require.NoError(t, ApplyMigrations(context.Background(), s.db))
}
