package main

import (
	"fmt"
	"os"

	"github.com/artpar/duetgate/adapters/sqlite"
	"github.com/artpar/duetgate/config"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration before deployment",
	Long: `Validate the duetgate configuration file.

Checks:
  - YAML syntax is valid
  - Required fields are present
  - Database is writable (optional)

Examples:
  duetgate validate
  duetgate validate --config /etc/duetgate/config.yaml`,
	RunE: runValidate,
}

var validateCheckDatabase bool

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().BoolVar(&validateCheckDatabase, "check-database", false, "check if database is writable")
}

const (
	checkMark = "\033[32m✓\033[0m"
	crossMark = "\033[31m✗\033[0m"
)

func runValidate(cmd *cobra.Command, args []string) error {
	fmt.Printf("Validating %s...\n\n", cfgFile)

	if _, err := os.Stat(cfgFile); os.IsNotExist(err) {
		fmt.Printf("  %s Config file exists\n", crossMark)
		return fmt.Errorf("config file not found: %s", cfgFile)
	}
	fmt.Printf("  %s Config file exists\n", checkMark)

	cfg, err := config.Load(cfgFile)
	if err != nil {
		fmt.Printf("  %s Config syntax valid\n", crossMark)
		return fmt.Errorf("config error: %w", err)
	}
	fmt.Printf("  %s Config syntax valid\n", checkMark)

	if cfg.Providers.V0.APIKey != "" {
		fmt.Printf("  %s v0 API key configured\n", checkMark)
	} else {
		fmt.Printf("  %s v0 API key not set (server-side calls need trust headers with user keys)\n", crossMark)
	}
	if cfg.Providers.Gateway.APIKey != "" {
		fmt.Printf("  %s Gateway API key configured\n", checkMark)
	} else {
		fmt.Printf("  %s Gateway API key not set (server-side calls need trust headers with user keys)\n", crossMark)
	}

	if validateCheckDatabase && cfg.Storage.Driver == "sqlite" {
		db, err := sqlite.Open(cfg.Storage.DSN)
		if err != nil {
			fmt.Printf("  %s Database writable\n", crossMark)
			return fmt.Errorf("database error: %w", err)
		}
		db.Close()
		fmt.Printf("  %s Database writable\n", checkMark)
	}

	fmt.Println()
	fmt.Println("Configuration valid")
	fmt.Printf("  Listen:   %s:%d\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Printf("  Storage:  %s\n", cfg.Storage.Driver)
	fmt.Printf("  Metrics:  %v\n", cfg.Metrics.Enabled)
	fmt.Printf("  MCP:      %v\n", cfg.MCP.Enabled)
	return nil
}
