package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cleardesk/hrkb/internal/core/domain"
)

var reloadAll bool

var reloadCmd = &cobra.Command{
	Use:   "reload [tenant]",
	Short: "Re-ingest a tenant's knowledge directory",
	Long: `Scans the tenant's knowledge directory and rebuilds the index.
Unchanged documents keep their cached embeddings; per-document failures
are reported and do not abort the batch.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runReload,
}

func init() {
	reloadCmd.Flags().BoolVarP(&reloadAll, "all", "a", false, "reload every configured tenant")
	rootCmd.AddCommand(reloadCmd)
}

func runReload(cmd *cobra.Command, args []string) error {
	var tenants []domain.TenantID
	switch {
	case reloadAll:
		for _, t := range cfg.Tenants {
			tenants = append(tenants, domain.TenantID(t.ID))
		}
	case len(args) == 1:
		tenants = []domain.TenantID{domain.TenantID(args[0])}
	default:
		return fmt.Errorf("specify a tenant or --all")
	}

	for _, tenant := range tenants {
		report, err := ingestService.Reload(cmd.Context(), tenant)
		if err != nil {
			return fmt.Errorf("reloading %s: %w", tenant, err)
		}
		cmd.Printf("%s: %d ingested, %d unchanged, %d chunks\n",
			tenant, report.Ingested, report.Skipped, report.Chunks)
		for _, f := range report.Failures {
			cmd.Printf("  failed: %s: %v\n", f.Name, f.Err)
		}
	}
	return nil
}
