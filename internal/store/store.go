package store

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a requested entity doesn't exist
	ErrNotFound = errors.New("not found")
)

// Metadata keys recorded at index time. A store indexed with one
// embedding configuration refuses queries from another.
const (
	MetaProvider  = "embed_provider"
	MetaModel     = "embed_model"
	MetaDimension = "embed_dimension"
)

// Store defines the interface for persisting and querying indexed chunks
type Store interface {
	// Record operations. Records reference their source row with foreign
	// keys enforced, so UpsertSource must precede UpsertRecords for a new
	// source.
	UpsertRecords(ctx context.Context, records []*Record) error
	GetRecord(ctx context.Context, chunkID string) (*Record, error)
	ListBySource(ctx context.Context, sourceID string) ([]*Record, error)
	DeleteBySource(ctx context.Context, sourceID string) (deletedCount int, err error)
	CountRecords(ctx context.Context) (int, error)

	// Source operations
	UpsertSource(ctx context.Context, source *Source) error
	GetSource(ctx context.Context, sourceID string) (*Source, error)
	ListSources(ctx context.Context) ([]*Source, error)
	DeleteSource(ctx context.Context, sourceID string) error

	// Search operations
	Query(ctx context.Context, vector []float32, limit int, filters *QueryFilters) ([]VectorMatch, error)

	// Index metadata operations
	GetMeta(ctx context.Context, key string) (string, error)
	SetMeta(ctx context.Context, key, value string) error

	// Status operations
	Status(ctx context.Context) (*IndexStatus, error)

	// Database operations
	Reset(ctx context.Context) error
	Close() error
	BeginTx(ctx context.Context) (Tx, error)
}

// Tx represents a database transaction
type Tx interface {
	Commit() error
	Rollback() error
	Store // Embed Store interface for transaction operations
}

// Record is a persisted chunk with its embedding vector
type Record struct {
	ChunkID     string
	SourceID    string
	Seq         int
	StartOffset int
	EndOffset   int
	Content     string
	Vector      []byte // Serialized float32 array
	Dimension   int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Source tracks an indexed document
type Source struct {
	ID            int64
	SourceID      string
	ChunkCount    int
	ContentHash   [32]byte
	LastIndexedAt time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// QueryFilters narrows vector search results
type QueryFilters struct {
	SourceIDs []string // Restrict matches to these sources
	MinScore  float64  // Minimum similarity score
}

// VectorMatch is a result from vector similarity search
type VectorMatch struct {
	ChunkID         string
	SourceID        string
	Seq             int
	Content         string
	SimilarityScore float64
}

// IndexStatus contains statistics about the index
type IndexStatus struct {
	SourceCount   int          `json:"source_count"`
	RecordCount   int          `json:"record_count"`
	IndexSizeMB   float64      `json:"index_size_mb"`
	Provider      string       `json:"provider"`
	Model         string       `json:"model"`
	Dimension     int          `json:"dimension"`
	LastIndexedAt time.Time    `json:"last_indexed_at"`
	Health        HealthStatus `json:"health"`
}

// HealthStatus represents the health of the index
type HealthStatus struct {
	DatabaseAccessible bool `json:"database_accessible"`
	VectorsAvailable   bool `json:"vectors_available"`
}
