package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/cleardesk/hrkb/internal/core/domain"
	"github.com/cleardesk/hrkb/internal/logger"
	"github.com/cleardesk/hrkb/internal/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch knowledge directories and reload on change",
	Long: `Watches every tenant's knowledge directory and re-ingests a tenant
when its files change. Events are debounced so a burst of writes causes
a single reload.`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	w, err := watch.New(cfg.DomainTenants(), watchDebounce(), func(ctx context.Context, tenant domain.TenantID) {
		report, err := ingestService.Reload(ctx, tenant)
		if err != nil {
			if errors.Is(err, domain.ErrReloadInProgress) {
				logger.Debug("Reload for %s already running", tenant)
				return
			}
			logger.Warn("Reload for %s failed: %v", tenant, err)
			return
		}
		logger.Info("Reloaded %s: %d ingested, %d unchanged, %d chunks",
			tenant, report.Ingested, report.Skipped, report.Chunks)
	})
	if err != nil {
		return err
	}

	cmd.Println("Watching knowledge directories. Press Ctrl-C to stop.")
	err = w.Run(cmd.Context())
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
