package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cleardesk/hrkb/internal/core/domain"
)

var (
	retrieveTenant   string
	retrieveTopK     int
	retrieveMinScore float64
	retrieveJSON     bool
)

var retrieveCmd = &cobra.Command{
	Use:   "retrieve [query]",
	Short: "Retrieve relevant policy excerpts for a query",
	Long: `Embeds the query, searches the tenant's vector index, and prints
the matching chunks with source attribution. A best match below the
relevance floor prints an explicit no-context notice.`,
	Args: cobra.ExactArgs(1),
	RunE: runRetrieve,
}

func init() {
	retrieveCmd.Flags().StringVarP(&retrieveTenant, "tenant", "t", "", "tenant to search (required)")
	retrieveCmd.Flags().IntVarP(&retrieveTopK, "top-k", "n", 0, "maximum number of chunks")
	retrieveCmd.Flags().Float64Var(&retrieveMinScore, "min-score", 0, "relevance floor override")
	retrieveCmd.Flags().BoolVar(&retrieveJSON, "json", false, "output results as JSON")
	retrieveCmd.MarkFlagRequired("tenant") //nolint:errcheck
	rootCmd.AddCommand(retrieveCmd)
}

func runRetrieve(cmd *cobra.Command, args []string) error {
	opts := domain.RetrieveOptions{TopK: retrieveTopK, MinScore: retrieveMinScore}
	result, err := retrievalService.Retrieve(cmd.Context(), domain.TenantID(retrieveTenant), args[0], opts)
	if err != nil {
		return fmt.Errorf("retrieve failed: %w", err)
	}

	if retrieveJSON {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal result: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if result.NoContext {
		if result.BestScore > 0 {
			cmd.Printf("No relevant context (best score %.2f below floor).\n", result.BestScore)
		} else {
			cmd.Println("No relevant context (index is empty).")
		}
		return nil
	}

	cmd.Println("Context:")
	cmd.Println()
	for i, c := range result.Chunks {
		title := c.DocumentTitle
		if title == "" {
			title = c.DocumentName
		}
		cmd.Printf("  [%d] %s (%.2f)\n", i+1, title, c.Score)
		if c.DocumentName != "" && c.DocumentName != title {
			cmd.Printf("      Source: %s\n", c.DocumentName)
		}
		cmd.Printf("      %s\n", snippet(c.Chunk.Content, 200))
		cmd.Println()
	}
	return nil
}

// snippet truncates text to at most n bytes on a rune boundary.
func snippet(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && s[cut]&0xC0 == 0x80 {
		cut--
	}
	return s[:cut] + "..."
}
