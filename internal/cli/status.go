package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var statusJSON bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show index status",
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "output status as JSON")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	eng, err := openEngine(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = eng.Close() }()

	status, err := eng.store.Status(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to read status: %w", err)
	}

	if statusJSON {
		data, err := json.MarshalIndent(status, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal status: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Printf("sources:   %d\n", status.SourceCount)
	cmd.Printf("chunks:    %d\n", status.RecordCount)
	cmd.Printf("size:      %.2f MB\n", status.IndexSizeMB)
	if status.Provider != "" {
		cmd.Printf("embedding: %s/%s (dim %d)\n", status.Provider, status.Model, status.Dimension)
	}
	if !status.LastIndexedAt.IsZero() {
		cmd.Printf("indexed:   %s\n", status.LastIndexedAt.Format(time.RFC3339))
	}
	return nil
}
