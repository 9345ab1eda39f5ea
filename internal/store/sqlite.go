package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// SQLiteStore implements the Store interface using SQLite
type SQLiteStore struct {
	db *sql.DB
}

// openDatabase opens a SQLite database with appropriate settings
func openDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// SQLite benefits from single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// NewSQLiteStore creates a new SQLite store instance. The parent
// directory of dbPath is created if it does not exist.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath != ":memory:" && !strings.HasPrefix(dbPath, "file:") {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := openDatabase(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := ApplyMigrations(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// BeginTx starts a new transaction
func (s *SQLiteStore) BeginTx(ctx context.Context) (Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &sqliteTx{tx: tx, store: s}, nil
}

// querier is an interface that both *sql.DB and *sql.Tx implement
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// sqliteTx wraps a SQL transaction
type sqliteTx struct {
	tx    *sql.Tx
	store *SQLiteStore
}

func (t *sqliteTx) Commit() error {
	return t.tx.Commit()
}

func (t *sqliteTx) Rollback() error {
	return t.tx.Rollback()
}

// querier returns the transaction querier
func (t *sqliteTx) querier() querier {
	return t.tx
}

// querier returns the DB querier
func (s *SQLiteStore) querier() querier {
	return s.db
}

// Record operations

// upsertRecordsWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStore) upsertRecordsWithQuerier(ctx context.Context, q querier, records []*Record) error {
	query := `
		INSERT INTO records (chunk_id, source_id, seq, start_offset, end_offset, content, vector, dimension, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(chunk_id) DO UPDATE SET
			source_id = excluded.source_id,
			seq = excluded.seq,
			start_offset = excluded.start_offset,
			end_offset = excluded.end_offset,
			content = excluded.content,
			vector = excluded.vector,
			dimension = excluded.dimension,
			updated_at = excluded.updated_at
	`
	now := time.Now()
	for _, rec := range records {
		_, err := q.ExecContext(ctx, query,
			rec.ChunkID, rec.SourceID, rec.Seq, rec.StartOffset, rec.EndOffset,
			rec.Content, rec.Vector, rec.Dimension, now, now)
		if err != nil {
			return fmt.Errorf("failed to upsert record %s: %w", rec.ChunkID, err)
		}
		rec.CreatedAt = now
		rec.UpdatedAt = now
	}
	return nil
}

func (s *SQLiteStore) UpsertRecords(ctx context.Context, records []*Record) error {
	return s.upsertRecordsWithQuerier(ctx, s.querier(), records)
}

// getRecordWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStore) getRecordWithQuerier(ctx context.Context, q querier, chunkID string) (*Record, error) {
	query := `
		SELECT chunk_id, source_id, seq, start_offset, end_offset, content,
		       vector, dimension, created_at, updated_at
		FROM records
		WHERE chunk_id = ?
	`
	var rec Record
	err := q.QueryRowContext(ctx, query, chunkID).Scan(
		&rec.ChunkID, &rec.SourceID, &rec.Seq, &rec.StartOffset, &rec.EndOffset,
		&rec.Content, &rec.Vector, &rec.Dimension, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *SQLiteStore) GetRecord(ctx context.Context, chunkID string) (*Record, error) {
	return s.getRecordWithQuerier(ctx, s.querier(), chunkID)
}

// listBySourceWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStore) listBySourceWithQuerier(ctx context.Context, q querier, sourceID string) ([]*Record, error) {
	query := `
		SELECT chunk_id, source_id, seq, start_offset, end_offset, content,
		       vector, dimension, created_at, updated_at
		FROM records
		WHERE source_id = ?
		ORDER BY seq
	`
	rows, err := q.QueryContext(ctx, query, sourceID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	records := make([]*Record, 0)
	for rows.Next() {
		var rec Record
		err := rows.Scan(
			&rec.ChunkID, &rec.SourceID, &rec.Seq, &rec.StartOffset, &rec.EndOffset,
			&rec.Content, &rec.Vector, &rec.Dimension, &rec.CreatedAt, &rec.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		records = append(records, &rec)
	}
	return records, rows.Err()
}

func (s *SQLiteStore) ListBySource(ctx context.Context, sourceID string) ([]*Record, error) {
	return s.listBySourceWithQuerier(ctx, s.querier(), sourceID)
}

// deleteBySourceWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStore) deleteBySourceWithQuerier(ctx context.Context, q querier, sourceID string) (int, error) {
	result, err := q.ExecContext(ctx, `DELETE FROM records WHERE source_id = ?`, sourceID)
	if err != nil {
		return 0, err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(rowsAffected), nil
}

func (s *SQLiteStore) DeleteBySource(ctx context.Context, sourceID string) (int, error) {
	return s.deleteBySourceWithQuerier(ctx, s.querier(), sourceID)
}

// countRecordsWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStore) countRecordsWithQuerier(ctx context.Context, q querier) (int, error) {
	var count int
	err := q.QueryRowContext(ctx, "SELECT COUNT(*) FROM records").Scan(&count)
	return count, err
}

func (s *SQLiteStore) CountRecords(ctx context.Context) (int, error) {
	return s.countRecordsWithQuerier(ctx, s.querier())
}

// Source operations

// upsertSourceWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStore) upsertSourceWithQuerier(ctx context.Context, q querier, source *Source) error {
	query := `
		INSERT INTO sources (source_id, chunk_count, content_hash, last_indexed_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(source_id) DO UPDATE SET
			chunk_count = excluded.chunk_count,
			content_hash = excluded.content_hash,
			last_indexed_at = excluded.last_indexed_at,
			updated_at = excluded.updated_at
		RETURNING id
	`
	now := time.Now()
	err := q.QueryRowContext(ctx, query,
		source.SourceID, source.ChunkCount, source.ContentHash[:], now, now, now).Scan(&source.ID)
	if err != nil {
		return fmt.Errorf("failed to upsert source: %w", err)
	}

	source.LastIndexedAt = now
	source.UpdatedAt = now
	return nil
}

func (s *SQLiteStore) UpsertSource(ctx context.Context, source *Source) error {
	return s.upsertSourceWithQuerier(ctx, s.querier(), source)
}

// getSourceWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStore) getSourceWithQuerier(ctx context.Context, q querier, sourceID string) (*Source, error) {
	query := `
		SELECT id, source_id, chunk_count, content_hash, last_indexed_at, created_at, updated_at
		FROM sources
		WHERE source_id = ?
	`
	var source Source
	var hash []byte
	var lastIndexedAt sql.NullTime
	err := q.QueryRowContext(ctx, query, sourceID).Scan(
		&source.ID, &source.SourceID, &source.ChunkCount, &hash,
		&lastIndexedAt, &source.CreatedAt, &source.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	copy(source.ContentHash[:], hash)
	if lastIndexedAt.Valid {
		source.LastIndexedAt = lastIndexedAt.Time
	}
	return &source, nil
}

func (s *SQLiteStore) GetSource(ctx context.Context, sourceID string) (*Source, error) {
	return s.getSourceWithQuerier(ctx, s.querier(), sourceID)
}

// listSourcesWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStore) listSourcesWithQuerier(ctx context.Context, q querier) ([]*Source, error) {
	query := `
		SELECT id, source_id, chunk_count, content_hash, last_indexed_at, created_at, updated_at
		FROM sources
		ORDER BY source_id
	`
	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	sources := make([]*Source, 0)
	for rows.Next() {
		var source Source
		var hash []byte
		var lastIndexedAt sql.NullTime

		err := rows.Scan(
			&source.ID, &source.SourceID, &source.ChunkCount, &hash,
			&lastIndexedAt, &source.CreatedAt, &source.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}

		copy(source.ContentHash[:], hash)
		if lastIndexedAt.Valid {
			source.LastIndexedAt = lastIndexedAt.Time
		}
		sources = append(sources, &source)
	}
	return sources, rows.Err()
}

func (s *SQLiteStore) ListSources(ctx context.Context) ([]*Source, error) {
	return s.listSourcesWithQuerier(ctx, s.querier())
}

// deleteSourceWithQuerier removes the source row after its records are gone
func (s *SQLiteStore) deleteSourceWithQuerier(ctx context.Context, q querier, sourceID string) error {
	_, err := q.ExecContext(ctx, `DELETE FROM sources WHERE source_id = ?`, sourceID)
	return err
}

func (s *SQLiteStore) DeleteSource(ctx context.Context, sourceID string) error {
	return s.deleteSourceWithQuerier(ctx, s.querier(), sourceID)
}

// Search operations

func (s *SQLiteStore) Query(ctx context.Context, vector []float32, limit int, filters *QueryFilters) ([]VectorMatch, error) {
	return searchVector(ctx, s.querier(), vector, limit, filters)
}

// Index metadata operations

// getMetaWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStore) getMetaWithQuerier(ctx context.Context, q querier, key string) (string, error) {
	var value string
	err := q.QueryRowContext(ctx, "SELECT value FROM index_meta WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

func (s *SQLiteStore) GetMeta(ctx context.Context, key string) (string, error) {
	return s.getMetaWithQuerier(ctx, s.querier(), key)
}

// setMetaWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStore) setMetaWithQuerier(ctx context.Context, q querier, key, value string) error {
	query := `
		INSERT INTO index_meta (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`
	_, err := q.ExecContext(ctx, query, key, value, time.Now())
	if err != nil {
		return fmt.Errorf("failed to set meta %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) SetMeta(ctx context.Context, key, value string) error {
	return s.setMetaWithQuerier(ctx, s.querier(), key, value)
}

// Status operations

func (s *SQLiteStore) Status(ctx context.Context) (*IndexStatus, error) {
	return s.statusWithQuerier(ctx, s.querier())
}

// statusWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStore) statusWithQuerier(ctx context.Context, q querier) (*IndexStatus, error) {
	status := &IndexStatus{}

	var sourceCount int
	err := q.QueryRowContext(ctx, "SELECT COUNT(*) FROM sources").Scan(&sourceCount)
	if err != nil {
		return nil, err
	}
	status.SourceCount = sourceCount

	var recordCount int
	err = q.QueryRowContext(ctx, "SELECT COUNT(*) FROM records").Scan(&recordCount)
	if err != nil {
		return nil, err
	}
	status.RecordCount = recordCount

	var lastIndexed sql.NullTime
	err = q.QueryRowContext(ctx, "SELECT MAX(last_indexed_at) FROM sources").Scan(&lastIndexed)
	if err == nil && lastIndexed.Valid {
		status.LastIndexedAt = lastIndexed.Time
	}

	if provider, err := s.getMetaWithQuerier(ctx, q, MetaProvider); err == nil {
		status.Provider = provider
	}
	if model, err := s.getMetaWithQuerier(ctx, q, MetaModel); err == nil {
		status.Model = model
	}
	if dim, err := s.getMetaWithQuerier(ctx, q, MetaDimension); err == nil {
		if n, convErr := strconv.Atoi(dim); convErr == nil {
			status.Dimension = n
		}
	}

	// Calculate database size
	var pageCount, pageSize int
	err = q.QueryRowContext(ctx, "PRAGMA page_count").Scan(&pageCount)
	if err == nil {
		_ = q.QueryRowContext(ctx, "PRAGMA page_size").Scan(&pageSize)
		status.IndexSizeMB = float64(pageCount*pageSize) / (1024 * 1024)
	}

	status.Health = HealthStatus{
		DatabaseAccessible: true,
		VectorsAvailable:   recordCount > 0,
	}

	return status, nil
}

// Reset clears all indexed data including the embedding metadata
func (s *SQLiteStore) Reset(ctx context.Context) error {
	return s.resetWithQuerier(ctx, s.querier())
}

// resetWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStore) resetWithQuerier(ctx context.Context, q querier) error {
	for _, stmt := range []string{
		"DELETE FROM records",
		"DELETE FROM sources",
		"DELETE FROM index_meta",
	} {
		if _, err := q.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to reset: %w", err)
		}
	}
	return nil
}

// Transaction implementations delegate to the internal helpers via querier()

func (t *sqliteTx) UpsertRecords(ctx context.Context, records []*Record) error {
	return t.store.upsertRecordsWithQuerier(ctx, t.querier(), records)
}

func (t *sqliteTx) GetRecord(ctx context.Context, chunkID string) (*Record, error) {
	return t.store.getRecordWithQuerier(ctx, t.querier(), chunkID)
}

func (t *sqliteTx) ListBySource(ctx context.Context, sourceID string) ([]*Record, error) {
	return t.store.listBySourceWithQuerier(ctx, t.querier(), sourceID)
}

func (t *sqliteTx) DeleteBySource(ctx context.Context, sourceID string) (int, error) {
	return t.store.deleteBySourceWithQuerier(ctx, t.querier(), sourceID)
}

func (t *sqliteTx) CountRecords(ctx context.Context) (int, error) {
	return t.store.countRecordsWithQuerier(ctx, t.querier())
}

func (t *sqliteTx) UpsertSource(ctx context.Context, source *Source) error {
	return t.store.upsertSourceWithQuerier(ctx, t.querier(), source)
}

func (t *sqliteTx) GetSource(ctx context.Context, sourceID string) (*Source, error) {
	return t.store.getSourceWithQuerier(ctx, t.querier(), sourceID)
}

func (t *sqliteTx) ListSources(ctx context.Context) ([]*Source, error) {
	return t.store.listSourcesWithQuerier(ctx, t.querier())
}

func (t *sqliteTx) DeleteSource(ctx context.Context, sourceID string) error {
	return t.store.deleteSourceWithQuerier(ctx, t.querier(), sourceID)
}

func (t *sqliteTx) Query(ctx context.Context, vector []float32, limit int, filters *QueryFilters) ([]VectorMatch, error) {
	return searchVector(ctx, t.querier(), vector, limit, filters)
}

func (t *sqliteTx) GetMeta(ctx context.Context, key string) (string, error) {
	return t.store.getMetaWithQuerier(ctx, t.querier(), key)
}

func (t *sqliteTx) SetMeta(ctx context.Context, key, value string) error {
	return t.store.setMetaWithQuerier(ctx, t.querier(), key, value)
}

func (t *sqliteTx) Status(ctx context.Context) (*IndexStatus, error) {
	return t.store.statusWithQuerier(ctx, t.querier())
}

func (t *sqliteTx) Reset(ctx context.Context) error {
	return t.store.resetWithQuerier(ctx, t.querier())
}

func (t *sqliteTx) Close() error {
	// Transactions don't close the underlying connection
	return nil
}

func (t *sqliteTx) BeginTx(ctx context.Context) (Tx, error) {
	// SQLite does not support true nested transactions
	return nil, errors.New("nested transactions not supported")
}
