package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	mcpadapter "github.com/artpar/duetgate/adapters/mcp"
	"github.com/artpar/duetgate/bootstrap"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP tool server",
	Long: `Start the Model Context Protocol tool server.

Exposes generation and account management as MCP tools over HTTP so
that AI agents can browse packages, purchase credits, and generate UIs.

Tools:
  packages.list      - List credit packages and subscription tiers
  packages.purchase  - Buy a credit package
  generate.v0        - Single-provider generation (design API)
  generate.gateway   - Single-provider generation (AI gateway)
  generate.dual      - Parallel dual-provider generation
  account.status     - Subscription and usage summary

Set mcp.auth_token (or DUETGATE_MCP_AUTH_TOKEN) to require bearer
token authentication.

Examples:
  duetgate mcp
  duetgate mcp --config /etc/duetgate/config.yaml`,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	app, err := bootstrap.New(cfgFile)
	if err != nil {
		return fmt.Errorf("error initializing: %w", err)
	}
	defer app.Shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps := mcpadapter.ToolDependencies{
		Accounts:     app.Accounts,
		Orchestrator: app.Orchestrator,
	}
	if err := mcpadapter.Serve(ctx, app.Config, deps, app.Logger); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
