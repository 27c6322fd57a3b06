package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cleardesk/hrkb/internal/core/domain"
	"github.com/cleardesk/hrkb/internal/extractors"
)

var ingestTenant string

var ingestCmd = &cobra.Command{
	Use:   "ingest [file]",
	Short: "Ingest a single document into a tenant's knowledge base",
	Long: `Extracts, chunks, and embeds one document, then rebuilds the
tenant's index with it included. An existing document with the same
file name is replaced.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVarP(&ingestTenant, "tenant", "t", "", "tenant to ingest into (required)")
	ingestCmd.MarkFlagRequired("tenant") //nolint:errcheck
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	path := args[0]
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	name := filepath.Base(path)
	raw := &domain.RawDocument{
		TenantID: domain.TenantID(ingestTenant),
		Name:     name,
		MIMEType: extractors.DetectMIMEType(name),
		Content:  content,
	}

	report, err := ingestService.IngestDocument(cmd.Context(), raw)
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}

	cmd.Printf("Ingested %s: index now holds %d chunks.\n", name, report.Chunks)
	return nil
}
