package cli

import (
	"context"
	"os"
	"os/signal"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/ppiankov/veritas/internal/server"
)

var mcpRemote string

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the verify_text tool over MCP (stdio)",
	Long: `Mcp runs a Model Context Protocol server on stdin/stdout exposing one
tool, verify_text, which returns the trust report as JSON.

Logs go to stderr so they never corrupt the protocol stream.`,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().StringVar(&mcpRemote, "remote", "", "verify through a remote Veritas service")
	bindPipelineFlags(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	r, err := newRunner(cfg, mcpRemote, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	return server.NewMCPServer(r, Version).Run(ctx, &mcp.StdioTransport{})
}
