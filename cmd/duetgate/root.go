package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "duetgate",
	Short: "Dual-AI UI generation broker",
	Long: `Duetgate brokers UI generation requests across two AI providers:
a frontend design API and an OpenAI-compatible gateway. It classifies
prompts, enforces subscription entitlements, and fans requests out to
both providers in parallel.

Quick start:
  duetgate serve     # Start the HTTP API server
  duetgate mcp       # Start the MCP tool server

Management:
  duetgate accounts  # Manage subscription accounts
  duetgate catalog   # Show tiers and credit packages
  duetgate validate  # Validate configuration`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// .env is optional, env vars stay authoritative.
	_ = godotenv.Load()

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "duetgate.yaml", "config file path")
}
