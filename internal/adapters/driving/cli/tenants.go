package cli

import (
	"strings"

	"github.com/spf13/cobra"
)

var tenantsCmd = &cobra.Command{
	Use:   "tenants",
	Short: "List configured tenants",
	RunE:  runTenants,
}

func init() {
	rootCmd.AddCommand(tenantsCmd)
}

func runTenants(cmd *cobra.Command, _ []string) error {
	cmd.Println("Tenants:")
	for _, t := range cfg.Tenants {
		name := t.Name
		if name == "" {
			name = t.ID
		}
		cmd.Printf("  %s  %s\n", t.ID, name)
		cmd.Printf("      dir: %s\n", t.KnowledgeDir)
		if len(t.Features) > 0 {
			cmd.Printf("      features: %s\n", strings.Join(t.Features, ", "))
		}
	}
	return nil
}
