package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cleardesk/hrkb/internal/adapters/driving/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Model Context Protocol server commands",
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Expose the knowledge base to MCP clients",
	Long: `Serve the retrieve, ask, and reload tools over the Model Context
Protocol so AI assistants can pull grounded HR policy context.

The default transport is stdio JSON-RPC, suitable for assistants that
spawn the server as a subprocess. Pass --port to serve streamable HTTP
instead, e.g. for the MCP Inspector or a shared deployment.

Examples:
  # Stdio transport
  hrkb mcp serve

  # HTTP transport on port 8080
  hrkb mcp serve --port 8080`,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntP("port", "p", 0, "HTTP port (0 = use stdio)")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("getting port flag: %w", err)
	}

	ports := &mcp.Ports{
		Retrieval: retrievalService,
		Ask:       askService,
		Ingest:    ingestService,
	}

	server, err := mcp.NewServer(ports)
	if err != nil {
		return err
	}

	if port > 0 {
		addr := fmt.Sprintf(":%d", port)
		fmt.Fprintf(cmd.OutOrStdout(), "MCP server listening on http://localhost%s\n", addr)
		return server.RunHTTP(cmd.Context(), addr)
	}

	return server.Run(cmd.Context())
}
