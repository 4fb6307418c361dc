package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/artpar/duetgate/domain/tier"
	"github.com/spf13/cobra"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Show tiers, credit packages, and request tiers",
	Long: `Show the static pricing catalogs.

Examples:
  duetgate catalog tiers
  duetgate catalog packages
  duetgate catalog requests`,
}

var catalogTiersCmd = &cobra.Command{
	Use:   "tiers",
	Short: "List subscription tiers",
	Run:   runCatalogTiers,
}

var catalogPackagesCmd = &cobra.Command{
	Use:   "packages",
	Short: "List purchasable credit packages",
	Run:   runCatalogPackages,
}

var catalogRequestsCmd = &cobra.Command{
	Use:   "requests",
	Short: "List request quality tiers and their models",
	Run:   runCatalogRequests,
}

func init() {
	rootCmd.AddCommand(catalogCmd)

	catalogCmd.AddCommand(catalogTiersCmd)
	catalogCmd.AddCommand(catalogPackagesCmd)
	catalogCmd.AddCommand(catalogRequestsCmd)
}

func runCatalogTiers(cmd *cobra.Command, args []string) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIER\tPRICE/MO\tCREDITS/MO\tCOMPLETIONS/MO\tPROJECTS\tDUAL AI\tOWN KEYS")
	for _, c := range tier.All() {
		fmt.Fprintf(w, "%s\t$%d\t%.0f\t%s\t%s\t%v\t%v\n",
			c.Tier, c.PriceMonthly, c.MonthlyCredits,
			formatLimit(c.MonthlyCompletions), formatLimit(c.ProjectLimit),
			c.HasDualAI, c.RequiresOwnKeys)
	}
	w.Flush()
}

func runCatalogPackages(cmd *cobra.Command, args []string) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "KEY\tNAME\tPRICE\tCOMPLETIONS\tCREDITS")
	for _, p := range tier.Packages() {
		fmt.Fprintf(w, "%s\t%s\t$%d\t%d\t%.0f\n",
			p.Key, p.Name, p.PriceUSD, p.Completions, p.Credits)
	}
	w.Flush()
}

func runCatalogRequests(cmd *cobra.Command, args []string) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "REQUEST TIER\tV0 MODEL\tGATEWAY MODEL\tEST. COST\tDESCRIPTION")
	for _, rt := range []tier.RequestTier{tier.Basic, tier.Premium, tier.Enterprise} {
		rc := tier.LookupRequest(rt)
		fmt.Fprintf(w, "%s\t%s\t%s\t$%.2f\t%s\n",
			rc.Tier, rc.V0Model, rc.GatewayModel, rc.EstimatedCost, rc.Description)
	}
	w.Flush()
}
