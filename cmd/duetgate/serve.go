package main

import (
	"fmt"
	"os"

	"github.com/artpar/duetgate/bootstrap"
	"github.com/artpar/duetgate/config"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Start the duetgate HTTP API server.

The server will:
  - Load configuration from duetgate.yaml (or --config)
  - Or load configuration from DUETGATE_* environment variables
  - Open the subscription and usage stores
  - Serve the completions, generate, and account endpoints
  - Fan dual requests out to both providers in parallel

Environment variables (for Docker deployments):
  DUETGATE_V0_API_KEY       - Server-side v0 API key
  DUETGATE_GATEWAY_API_KEY  - Server-side AI gateway API key
  DUETGATE_STORAGE_DRIVER   - Storage driver: memory or sqlite
  DUETGATE_STORAGE_DSN      - SQLite path (default: duetgate.db)
  DUETGATE_SERVER_PORT      - Server port (default: 8080)
  DUETGATE_LOG_LEVEL        - Log level: debug, info, warn, error

Examples:
  duetgate serve
  duetgate serve --config /etc/duetgate/config.yaml

  # Docker (env vars only):
  DUETGATE_V0_API_KEY=v1:... duetgate serve`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	hasConfigFile := false
	if _, err := os.Stat(cfgFile); err == nil {
		hasConfigFile = true
	}

	if !hasConfigFile && !config.HasEnvConfig() {
		fmt.Println("No configuration found.")
		fmt.Println()
		fmt.Printf("Option 1: Create %s\n", cfgFile)
		fmt.Println("Option 2: Set DUETGATE_V0_API_KEY / DUETGATE_GATEWAY_API_KEY")
		fmt.Println()
		fmt.Println("Example (env vars):")
		fmt.Println("  DUETGATE_V0_API_KEY=v1:... duetgate serve")
		return nil
	}

	if !hasConfigFile {
		fmt.Println("Running with environment variables (no config file)")
	}

	app, err := bootstrap.New(cfgFile)
	if err != nil {
		return fmt.Errorf("error initializing: %w", err)
	}

	// Run (blocks until shutdown)
	return app.Run()
}
