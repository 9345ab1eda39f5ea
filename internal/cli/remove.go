package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var removeCmd = &cobra.Command{
	Use:   "remove [source-id]",
	Short: "Remove a source from the index",
	Args:  cobra.ExactArgs(1),
	RunE:  runRemove,
}

func init() {
	rootCmd.AddCommand(removeCmd)
}

func runRemove(cmd *cobra.Command, args []string) error {
	eng, err := openEngine(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = eng.Close() }()

	deleted, err := eng.indexer.Remove(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("removal failed: %w", err)
	}

	cmd.Printf("removed %s (%d chunks)\n", args[0], deleted)
	return nil
}
