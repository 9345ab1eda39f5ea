package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/accelnorm/docindex/internal/logger"
	"github.com/accelnorm/docindex/internal/mcp"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the index to MCP clients over stdio",
	Long: `Starts an MCP server on stdin/stdout exposing the index_document,
search_docs, remove_document and get_status tools. Intended to be
launched by an MCP client, not run interactively.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	srv, err := mcp.NewServer(cfg)
	if err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	logger.Info("serving MCP on stdio (db: %s)", cfg.DBPath)
	return srv.Serve(cmd.Context())
}
