package cli

import (
	"encoding/json"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/accelnorm/docindex/internal/retriever"
	"github.com/accelnorm/docindex/internal/store"
	"github.com/accelnorm/docindex/pkg/types"
)

var (
	searchLimit    int
	searchSources  []string
	searchMinScore float64
	searchJSON     bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search the index",
	Long: `Embeds the query and returns the most similar indexed chunks, ranked
by cosine similarity. Results are deterministic for an unchanged index.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 0, "maximum number of results (default from config)")
	searchCmd.Flags().StringSliceVar(&searchSources, "source", nil, "restrict results to these source IDs")
	searchCmd.Flags().Float64Var(&searchMinScore, "min-score", 0, "drop results scoring below this similarity")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	eng, err := openEngine(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = eng.Close() }()

	limit := searchLimit
	if limit == 0 {
		limit = cfg.TopK
	}

	var filters *store.QueryFilters
	if len(searchSources) > 0 || searchMinScore > 0 {
		filters = &store.QueryFilters{
			SourceIDs: searchSources,
			MinScore:  searchMinScore,
		}
	}

	resp, err := eng.retriever.Retrieve(cmd.Context(), retriever.Request{
		Query:   args[0],
		Limit:   limit,
		Filters: filters,
	})
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return outputSearchJSON(cmd, resp.Results)
	}
	return outputSearchText(cmd, resp.Results)
}

func outputSearchJSON(cmd *cobra.Command, results []types.RetrievedChunk) error {
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputSearchText(cmd *cobra.Command, results []types.RetrievedChunk) error {
	if len(results) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	for _, res := range results {
		cmd.Printf("[%d] %s (%.3f)\n", res.Rank, cyan(res.SourceID), res.Score)
		cmd.Printf("    %s\n\n", snippet(res.Content, 200))
	}
	return nil
}

// snippet truncates content to at most n runes for terminal display.
func snippet(content string, n int) string {
	runes := []rune(content)
	if len(runes) <= n {
		return content
	}
	return string(runes[:n]) + "..."
}
