package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cleardesk/hrkb/internal/core/domain"
)

var (
	askTenant string
	askStream bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a question grounded in policy documents",
	Long: `Retrieves relevant policy excerpts for the question and generates
an answer with the configured LLM. When nothing relevant is found, the
answer is generated without context and marked as ungrounded.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVarP(&askTenant, "tenant", "t", "", "tenant to answer from (required)")
	askCmd.Flags().BoolVar(&askStream, "stream", false, "stream the answer as it is generated")
	askCmd.MarkFlagRequired("tenant") //nolint:errcheck
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if askService == nil {
		return errAskUnavailable
	}

	tenant := domain.TenantID(askTenant)
	question := args[0]

	if askStream {
		answer, err := askService.AskStream(cmd.Context(), tenant, question, nil, func(fragment string) error {
			cmd.Print(fragment)
			return nil
		})
		if err != nil {
			return fmt.Errorf("ask failed: %w", err)
		}
		cmd.Println()
		printSources(cmd, answer.Grounded, answer.Sources)
		return nil
	}

	answer, err := askService.Ask(cmd.Context(), tenant, question, nil)
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}
	cmd.Println(answer.Text)
	printSources(cmd, answer.Grounded, answer.Sources)
	return nil
}

func printSources(cmd *cobra.Command, grounded bool, sources []domain.RetrievedChunk) {
	if !grounded {
		cmd.Println()
		cmd.Println("Note: no policy documents matched; answer is not grounded.")
		return
	}
	seen := make(map[string]bool)
	var names []string
	for _, s := range sources {
		if s.DocumentName == "" || seen[s.DocumentName] {
			continue
		}
		seen[s.DocumentName] = true
		names = append(names, s.DocumentName)
	}
	if len(names) == 0 {
		return
	}
	cmd.Println()
	cmd.Println("Sources:")
	for _, n := range names {
		cmd.Printf("  - %s\n", n)
	}
}
