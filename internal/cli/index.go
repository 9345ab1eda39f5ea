package cli

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/accelnorm/docindex/internal/document"
	"github.com/accelnorm/docindex/internal/indexer"
)

var (
	indexSourceID string
	indexReset    bool
)

var indexCmd = &cobra.Command{
	Use:   "index [file]",
	Short: "Index a documentation file",
	Long: `Chunks the given file, embeds each chunk and stores the result in the
local index. Re-indexing the same source replaces its previous chunks
atomically. HTML files have their markup stripped before chunking.`,
	Args: cobra.ExactArgs(1),
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().StringVar(&indexSourceID, "source-id", "", "source identifier (default: the file path)")
	indexCmd.Flags().BoolVar(&indexReset, "reset", false, "clear the entire index before indexing")
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	path, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("invalid path %s: %w", args[0], err)
	}

	sourceID := indexSourceID
	if sourceID == "" {
		sourceID = args[0]
	}

	doc, err := document.Load(path, sourceID)
	if err != nil {
		return err
	}

	eng, err := openEngine(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = eng.Close() }()

	mode := indexer.ModeIncremental
	if indexReset {
		mode = indexer.ModeReset
	}

	stats, err := eng.indexer.Run(cmd.Context(), doc, mode)
	if err != nil {
		return fmt.Errorf("indexing failed: %w", err)
	}

	green := color.New(color.FgGreen, color.Bold).SprintFunc()
	cmd.Printf("%s indexed %s\n", green("ok"), sourceID)
	if doc.Title != "" {
		cmd.Printf("  title:    %s\n", doc.Title)
	}
	cmd.Printf("  mode:     %s\n", stats.Mode)
	cmd.Printf("  chunks:   %d\n", stats.ChunksCreated)
	if stats.RecordsDeleted > 0 {
		cmd.Printf("  replaced: %d\n", stats.RecordsDeleted)
	}
	cmd.Printf("  duration: %s\n", stats.Duration.Round(time.Millisecond))
	return nil
}
