package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/accelnorm/docindex/internal/config"
	"github.com/accelnorm/docindex/internal/logger"
)

// version is overridden at build time via -ldflags.
var version = "1.0.0"

var (
	cfgPath string
	verbose bool
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "docindex",
	Short: "Documentation indexing and semantic retrieval",
	Long: `docindex chunks documentation, embeds the chunks and stores them in a
local SQLite index for semantic retrieval. It can serve the index to MCP
clients over stdio or be driven directly from the command line.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		logger.SetVerbose(verbose)

		var err error
		cfg, err = config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "path to config file (default ~/.docindex/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
