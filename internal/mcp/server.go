package mcp

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/server"

	"github.com/accelnorm/docindex/internal/chunker"
	"github.com/accelnorm/docindex/internal/config"
	"github.com/accelnorm/docindex/internal/embedder"
	"github.com/accelnorm/docindex/internal/indexer"
	"github.com/accelnorm/docindex/internal/retriever"
	"github.com/accelnorm/docindex/internal/store"
)

const (
	// ServerName is the MCP server name
	ServerName = "docindex"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
)

// Server wraps the MCP server with application dependencies
type Server struct {
	mcp       *server.MCPServer
	store     store.Store
	indexer   *indexer.Indexer
	retriever *retriever.Retriever
}

// NewServer creates a new MCP server instance from configuration
func NewServer(cfg *config.Config) (*Server, error) {
	st, err := store.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize store: %w", err)
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

	idx := indexer.New(ch, emb, st, &indexer.Config{Workers: cfg.Workers})
	ret := retriever.New(st, emb)

	mcpServer := server.NewMCPServer(
		ServerName,
		ServerVersion,
	)

	s := &Server{
		mcp:       mcpServer,
		store:     st,
		indexer:   idx,
		retriever: ret,
	}

	s.registerTools()

	return s, nil
}

// Serve starts the MCP server on stdio and blocks until shutdown
func (s *Server) Serve(_ context.Context) error {
	defer func() { _ = s.store.Close() }()
	return server.ServeStdio(s.mcp)
}

// registerTools registers all MCP tools
func (s *Server) registerTools() {
	s.mcp.AddTool(indexDocumentTool(), s.handleIndexDocument)
	s.mcp.AddTool(searchDocsTool(), s.handleSearchDocs)
	s.mcp.AddTool(removeDocumentTool(), s.handleRemoveDocument)
	s.mcp.AddTool(getStatusTool(), s.handleGetStatus)
}
