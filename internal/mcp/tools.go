package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/accelnorm/docindex/internal/document"
	"github.com/accelnorm/docindex/internal/indexer"
	"github.com/accelnorm/docindex/internal/retriever"
	"github.com/accelnorm/docindex/internal/store"
	"github.com/accelnorm/docindex/pkg/types"
)

// MCP error codes
const (
	ErrorCodeInvalidParams   = -32602 // Invalid method parameters
	ErrorCodeInternalError   = -32603 // Internal JSON-RPC error
	ErrorCodeVersionMismatch = -32001 // Index built with a different embedding configuration
	ErrorCodeBackendFailure  = -32002 // Embedding backend unreachable
	ErrorCodeEmptyQuery      = -32004 // Query parameter is empty
)

// handleIndexDocument handles the index_document tool invocation
func (s *Server) handleIndexDocument(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	sourceID, ok := args["source_id"].(string)
	if !ok || sourceID == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "source_id parameter is required", map[string]interface{}{
			"param":  "source_id",
			"reason": "missing or empty",
		})
	}

	doc, err := s.resolveDocument(args, sourceID)
	if err != nil {
		return nil, newMCPError(ErrorCodeInvalidParams, "cannot load document", map[string]interface{}{
			"reason": err.Error(),
		})
	}

	mode := indexer.ModeIncremental
	if reset, _ := args["reset"].(bool); reset {
		mode = indexer.ModeReset
	}

	stats, err := s.indexer.Run(ctx, doc, mode)
	if err != nil {
		return nil, indexingError(err)
	}

	s.retriever.InvalidateCache()

	response := map[string]interface{}{
		"indexed":         true,
		"source_id":       stats.SourceID,
		"run_id":          stats.RunID,
		"mode":            stats.Mode.String(),
		"chunks_created":  stats.ChunksCreated,
		"records_deleted": stats.RecordsDeleted,
		"duration_ms":     stats.Duration.Milliseconds(),
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// resolveDocument builds a Document from either inline content or a file
// path
func (s *Server) resolveDocument(args map[string]interface{}, sourceID string) (*types.Document, error) {
	content, hasContent := args["content"].(string)
	path, hasPath := args["path"].(string)

	switch {
	case hasContent && hasPath && path != "":
		return nil, errors.New("content and path are mutually exclusive")
	case hasPath && path != "":
		if !filepath.IsAbs(path) {
			return nil, errors.New("path must be absolute")
		}
		return document.Load(path, sourceID)
	case hasContent:
		return document.New(content, sourceID, document.FormatPlain), nil
	default:
		return nil, errors.New("either content or path is required")
	}
}

// handleSearchDocs handles the search_docs tool invocation
func (s *Server) handleSearchDocs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	query, ok := args["query"].(string)
	if !ok || query == "" {
		return nil, newMCPError(ErrorCodeEmptyQuery, "query parameter is required and cannot be empty", map[string]interface{}{
			"param":  "query",
			"reason": "missing or empty",
		})
	}

	limit := getIntDefault(args, "limit", 10)
	if limit < 1 || limit > 100 {
		return nil, newMCPError(ErrorCodeInvalidParams, "limit must be between 1 and 100", map[string]interface{}{
			"param": "limit",
			"value": limit,
		})
	}

	filters := parseFilters(args)

	resp, err := s.retriever.Retrieve(ctx, retriever.Request{
		Query:    query,
		Limit:    limit,
		Filters:  filters,
		UseCache: true,
		CacheTTL: 10 * time.Minute,
	})
	if err != nil {
		return nil, retrievalError(err)
	}

	results := make([]map[string]interface{}, len(resp.Results))
	for i, res := range resp.Results {
		results[i] = map[string]interface{}{
			"chunk_id":  res.ChunkID,
			"rank":      res.Rank,
			"score":     res.Score,
			"source_id": res.SourceID,
			"seq":       res.Seq,
			"content":   res.Content,
		}
	}

	response := map[string]interface{}{
		"query":       query,
		"results":     results,
		"total":       len(results),
		"cache_hit":   resp.CacheHit,
		"duration_ms": resp.Duration.Milliseconds(),
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// parseFilters extracts query filters from tool arguments
func parseFilters(args map[string]interface{}) *store.QueryFilters {
	filters := &store.QueryFilters{}
	hasFilter := false

	if raw, ok := args["source_ids"].([]interface{}); ok {
		for _, v := range raw {
			if src, ok := v.(string); ok && src != "" {
				filters.SourceIDs = append(filters.SourceIDs, src)
				hasFilter = true
			}
		}
	}
	if minScore, ok := args["min_score"].(float64); ok && minScore > 0 {
		filters.MinScore = minScore
		hasFilter = true
	}

	if !hasFilter {
		return nil
	}
	return filters
}

// handleRemoveDocument handles the remove_document tool invocation
func (s *Server) handleRemoveDocument(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	sourceID, ok := args["source_id"].(string)
	if !ok || sourceID == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "source_id parameter is required", map[string]interface{}{
			"param":  "source_id",
			"reason": "missing or empty",
		})
	}

	deleted, err := s.indexer.Remove(ctx, sourceID)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "removal failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	s.retriever.InvalidateCache()

	response := map[string]interface{}{
		"removed":         true,
		"source_id":       sourceID,
		"records_deleted": deleted,
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleGetStatus handles the get_status tool invocation
func (s *Server) handleGetStatus(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	status, err := s.store.Status(ctx)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to get status", map[string]interface{}{
			"error": err.Error(),
		})
	}

	response := map[string]interface{}{
		"sources":       status.SourceCount,
		"chunks":        status.RecordCount,
		"index_size_mb": fmt.Sprintf("%.2f", status.IndexSizeMB),
		"embedding": map[string]interface{}{
			"provider":  status.Provider,
			"model":     status.Model,
			"dimension": status.Dimension,
		},
		"health": map[string]interface{}{
			"database_accessible": status.Health.DatabaseAccessible,
			"vectors_available":   status.Health.VectorsAvailable,
		},
	}
	if !status.LastIndexedAt.IsZero() {
		response["last_indexed_at"] = status.LastIndexedAt.Format(time.RFC3339)
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// Helper functions

// indexingError maps pipeline errors onto MCP error codes
func indexingError(err error) error {
	switch {
	case errors.Is(err, types.ErrInvalidInput):
		return newMCPError(ErrorCodeInvalidParams, "invalid document", map[string]interface{}{"error": err.Error()})
	case errors.Is(err, types.ErrVersionMismatch):
		return newMCPError(ErrorCodeVersionMismatch, "embedding configuration changed, re-index with reset", map[string]interface{}{"error": err.Error()})
	case errors.Is(err, types.ErrBackendUnavailable):
		return newMCPError(ErrorCodeBackendFailure, "embedding backend unavailable", map[string]interface{}{"error": err.Error()})
	default:
		return newMCPError(ErrorCodeInternalError, "indexing failed", map[string]interface{}{"error": err.Error()})
	}
}

// retrievalError maps retrieval errors onto MCP error codes
func retrievalError(err error) error {
	switch {
	case errors.Is(err, types.ErrInvalidInput):
		return newMCPError(ErrorCodeInvalidParams, "invalid query", map[string]interface{}{"error": err.Error()})
	case errors.Is(err, types.ErrVersionMismatch):
		return newMCPError(ErrorCodeVersionMismatch, "index built with a different embedding configuration", map[string]interface{}{"error": err.Error()})
	case errors.Is(err, types.ErrBackendUnavailable):
		return newMCPError(ErrorCodeBackendFailure, "embedding backend unavailable", map[string]interface{}{"error": err.Error()})
	default:
		return newMCPError(ErrorCodeInternalError, "search failed", map[string]interface{}{"error": err.Error()})
	}
}

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data interface{}) error {
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// formatJSON formats a map as indented JSON
func formatJSON(data map[string]interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

// getIntDefault extracts an integer parameter with a default value
func getIntDefault(args map[string]interface{}, key string, defaultValue int) int {
	if val, ok := args[key].(float64); ok {
		return int(val)
	}
	if val, ok := args[key].(int); ok {
		return val
	}
	return defaultValue
}
