// Package mcp exposes the indexing and retrieval engine over the Model
// Context Protocol.
//
// Four tools are registered:
//
//   - index_document: index inline content or a file by source ID, with
//     an optional reset of the whole index.
//   - search_docs: embed a query and return the top ranked chunks.
//   - remove_document: drop a source and all its chunks.
//   - get_status: index statistics and the recorded embedding
//     configuration.
//
// Pipeline errors map onto JSON-RPC error codes: invalid input to
// -32602, version mismatches to -32001, backend failures to -32002.
// The server speaks stdio, matching how MCP clients spawn tool
// processes.
package mcp
