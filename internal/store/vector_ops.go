package store

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"sort"
)

// searchVector performs vector similarity search using cosine similarity.
// Results are ordered by similarity descending; ties break on ascending
// chunk sequence so equal scores rank deterministically. It takes a
// querier so transactional callers search on their own connection.
func searchVector(ctx context.Context, q querier, queryVector []float32, limit int, filters *QueryFilters) ([]VectorMatch, error) {
	// Use optimized SQL-based search when sqlite-vec is available
	if VectorExtensionAvailable {
		return searchVectorOptimized(ctx, q, queryVector, limit, filters)
	}
	// Fall back to Go-based computation for purego builds
	return searchVectorFallback(ctx, q, queryVector, limit, filters)
}

// searchVectorOptimized uses the sqlite-vec extension for SQL-based vector
// similarity search
func searchVectorOptimized(ctx context.Context, q querier, queryVector []float32, limit int, filters *QueryFilters) ([]VectorMatch, error) {
	if limit <= 0 {
		return []VectorMatch{}, nil
	}

	queryVectorBlob := serializeVector(queryVector)

	// sqlite-vec's vec_distance_cosine returns distance (lower is better);
	// convert to similarity (1 - distance) to keep one score convention
	query := `
		SELECT
			r.chunk_id,
			r.source_id,
			r.seq,
			r.content,
			1.0 - vec_distance_cosine(r.vector, ?) as similarity
		FROM records r
		WHERE r.dimension = ?
	`
	args := []interface{}{queryVectorBlob, len(queryVector)}

	query, args = applyQueryFilters(query, args, filters)

	if filters != nil && filters.MinScore > 0 {
		query += " AND (1.0 - vec_distance_cosine(r.vector, ?)) >= ?"
		args = append(args, queryVectorBlob, filters.MinScore)
	}

	query += " ORDER BY similarity DESC, r.seq ASC LIMIT ?"
	args = append(args, limit)

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute vector search: %w", err)
	}
	defer func() { _ = rows.Close() }()

	results := make([]VectorMatch, 0, limit)
	for rows.Next() {
		var m VectorMatch
		if err := rows.Scan(&m.ChunkID, &m.SourceID, &m.Seq, &m.Content, &m.SimilarityScore); err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		results = append(results, m)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return results, nil
}

// searchVectorFallback performs vector search using Go-based cosine
// similarity computation. This is used when the sqlite-vec extension is
// not available (purego builds).
func searchVectorFallback(ctx context.Context, q querier, queryVector []float32, limit int, filters *QueryFilters) ([]VectorMatch, error) {
	query := `
		SELECT r.chunk_id, r.source_id, r.seq, r.content, r.vector
		FROM records r
		WHERE r.dimension = ?
	`
	args := []interface{}{len(queryVector)}

	query, args = applyQueryFilters(query, args, filters)

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	candidates, err := computeSimilarityScores(rows, queryVector, filters)
	if err != nil {
		return nil, err
	}

	sortCandidates(candidates)

	return buildMatches(candidates, limit), nil
}

// applyQueryFilters adds WHERE clause filters for vector search
func applyQueryFilters(query string, args []interface{}, filters *QueryFilters) (string, []interface{}) {
	if filters == nil {
		return query, args
	}

	if len(filters.SourceIDs) > 0 {
		query += " AND r.source_id IN ("
		for i, src := range filters.SourceIDs {
			if i > 0 {
				query += ","
			}
			query += "?"
			args = append(args, src)
		}
		query += ")"
	}

	return query, args
}

// computeSimilarityScores processes rows and computes cosine similarity
func computeSimilarityScores(rows *sql.Rows, queryVector []float32, filters *QueryFilters) ([]candidate, error) {
	candidates := make([]candidate, 0, 1000)

	for rows.Next() {
		var c candidate
		var vectorBlob []byte
		if err := rows.Scan(&c.chunkID, &c.sourceID, &c.seq, &c.content, &vectorBlob); err != nil {
			return nil, err
		}

		vector := deserializeVector(vectorBlob)
		if len(vector) != len(queryVector) {
			continue // Dimension mismatch, skip
		}

		c.score = cosineSimilarity(queryVector, vector)

		if filters != nil && filters.MinScore > 0 && c.score < filters.MinScore {
			continue
		}

		candidates = append(candidates, c)
	}

	return candidates, rows.Err()
}

// buildMatches creates VectorMatch slice from sorted candidates
func buildMatches(candidates []candidate, limit int) []VectorMatch {
	if limit <= 0 || limit > len(candidates) {
		limit = len(candidates)
	}

	results := make([]VectorMatch, limit)
	for i := 0; i < limit; i++ {
		results[i] = VectorMatch{
			ChunkID:         candidates[i].chunkID,
			SourceID:        candidates[i].sourceID,
			Seq:             candidates[i].seq,
			Content:         candidates[i].content,
			SimilarityScore: candidates[i].score,
		}
	}
	return results
}

// serializeVector converts a float32 slice to a byte blob (little-endian)
func serializeVector(vector []float32) []byte {
	blob := make([]byte, len(vector)*4)
	for i, v := range vector {
		binary.LittleEndian.PutUint32(blob[i*4:], math.Float32bits(v))
	}
	return blob
}

// deserializeVector converts a byte blob back to a float32 slice
func deserializeVector(blob []byte) []float32 {
	vector := make([]float32, len(blob)/4)
	for i := range vector {
		bits := binary.LittleEndian.Uint32(blob[i*4:])
		vector[i] = math.Float32frombits(bits)
	}
	return vector
}

// cosineSimilarity computes the cosine similarity between two vectors
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i] * b[i])
		normA += float64(a[i] * a[i])
		normB += float64(b[i] * b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}

// candidate represents a record with its similarity score
type candidate struct {
	chunkID  string
	sourceID string
	seq      int
	content  string
	score    float64
}

// sortCandidates sorts candidates by score descending, then sequence
// ascending for deterministic ordering of equal scores
func sortCandidates(candidates []candidate) {
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].seq < candidates[j].seq
	})
}

// SerializeVector is an exported helper for callers that persist vectors
func SerializeVector(vector []float32) []byte {
	return serializeVector(vector)
}

// DeserializeVector is an exported helper for callers that read vectors
func DeserializeVector(blob []byte) []float32 {
	return deserializeVector(blob)
}

// CosineSimilarity is an exported helper for testing
func CosineSimilarity(a, b []float32) float64 {
	return cosineSimilarity(a, b)
}
