package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// indexDocumentTool returns the tool definition for index_document
func indexDocumentTool() mcp.Tool {
	return mcp.Tool{
		Name:        "index_document",
		Description: "Index a document to make it searchable. Re-indexing a source replaces its previous chunks.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"source_id": map[string]interface{}{
					"type":        "string",
					"description": "Stable identifier for the document (e.g. a path or URL)",
				},
				"content": map[string]interface{}{
					"type":        "string",
					"description": "Document text to index. Mutually exclusive with path.",
				},
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Absolute path to a file to index. HTML files are converted to text.",
				},
				"reset": map[string]interface{}{
					"type":        "boolean",
					"description": "If true, clear the entire index before indexing this document",
					"default":     false,
				},
			},
			Required: []string{"source_id"},
		},
	}
}

// searchDocsTool returns the tool definition for search_docs
func searchDocsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "search_docs",
		Description: "Search indexed documents with a natural language query",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Search query",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of results to return (1-100)",
					"default":     10,
					"minimum":     1,
					"maximum":     100,
				},
				"source_ids": map[string]interface{}{
					"type":        "array",
					"description": "Restrict results to these sources",
					"items": map[string]interface{}{
						"type": "string",
					},
				},
				"min_score": map[string]interface{}{
					"type":        "number",
					"description": "Minimum similarity score threshold (0.0-1.0)",
					"minimum":     0.0,
					"maximum":     1.0,
				},
			},
			Required: []string{"query"},
		},
	}
}

// removeDocumentTool returns the tool definition for remove_document
func removeDocumentTool() mcp.Tool {
	return mcp.Tool{
		Name:        "remove_document",
		Description: "Remove a document and all its chunks from the index",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"source_id": map[string]interface{}{
					"type":        "string",
					"description": "Identifier of the document to remove",
				},
			},
			Required: []string{"source_id"},
		},
	}
}

// getStatusTool returns the tool definition for get_status
func getStatusTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_status",
		Description: "Query index status and statistics",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}
