package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/artpar/duetgate/adapters/clock"
	"github.com/artpar/duetgate/adapters/sqlite"
	"github.com/artpar/duetgate/app"
	"github.com/artpar/duetgate/config"
	"github.com/artpar/duetgate/domain/subscription"
	"github.com/artpar/duetgate/domain/tier"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var accountsCmd = &cobra.Command{
	Use:   "accounts",
	Short: "Manage subscription accounts",
	Long: `Manage duetgate subscription accounts.

Accounts track credits, completions, project counts, and Dual AI
Builder access. These commands operate directly on the sqlite store,
so storage.driver must be "sqlite".

Examples:
  duetgate accounts list
  duetgate accounts get user_123
  duetgate accounts purchase user_123 medium
  duetgate accounts upgrade user_123 pro
  duetgate accounts reset user_123`,
}

var accountsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all accounts",
	RunE:  runAccountsList,
}

var accountsGetCmd = &cobra.Command{
	Use:   "get <user-id>",
	Short: "Show an account's subscription status",
	Args:  cobra.ExactArgs(1),
	RunE:  runAccountsGet,
}

var accountsPurchaseCmd = &cobra.Command{
	Use:   "purchase <user-id> <package>",
	Short: "Apply a credit package purchase",
	Args:  cobra.ExactArgs(2),
	RunE:  runAccountsPurchase,
}

var accountsUpgradeCmd = &cobra.Command{
	Use:   "upgrade <user-id> <tier>",
	Short: "Upgrade an account to a subscription tier",
	Args:  cobra.ExactArgs(2),
	RunE:  runAccountsUpgrade,
}

var accountsResetCmd = &cobra.Command{
	Use:   "reset <user-id>",
	Short: "Start a new usage month for an account",
	Args:  cobra.ExactArgs(1),
	RunE:  runAccountsReset,
}

var accountsDeleteCmd = &cobra.Command{
	Use:   "delete <user-id>",
	Short: "Delete an account",
	Args:  cobra.ExactArgs(1),
	RunE:  runAccountsDelete,
}

var (
	upgradeV0Key     string
	upgradeClaudeKey string
)

func init() {
	rootCmd.AddCommand(accountsCmd)

	accountsCmd.AddCommand(accountsListCmd)
	accountsCmd.AddCommand(accountsGetCmd)
	accountsCmd.AddCommand(accountsPurchaseCmd)
	accountsCmd.AddCommand(accountsUpgradeCmd)
	accountsCmd.AddCommand(accountsResetCmd)
	accountsCmd.AddCommand(accountsDeleteCmd)

	accountsUpgradeCmd.Flags().StringVar(&upgradeV0Key, "v0-key", "", "user's own v0 API key (required for byok)")
	accountsUpgradeCmd.Flags().StringVar(&upgradeClaudeKey, "claude-key", "", "user's own gateway API key (required for byok)")
}

// openAccounts opens the sqlite-backed account service for CLI use.
func openAccounts() (*app.AccountService, *sqlite.DB, error) {
	cfg, err := config.LoadWithFallback(cfgFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.Storage.Driver != "sqlite" {
		return nil, nil, fmt.Errorf("accounts commands require storage.driver=sqlite (got %q)", cfg.Storage.Driver)
	}

	db, err := sqlite.Open(cfg.Storage.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to migrate: %w", err)
	}

	accounts := app.NewAccountService(app.AccountDeps{
		Store:  sqlite.NewSubscriptionStore(db),
		Clock:  clock.Real{},
		Logger: zerolog.Nop(),
	})
	return accounts, db, nil
}

func runAccountsList(cmd *cobra.Command, args []string) error {
	accounts, db, err := openAccounts()
	if err != nil {
		return err
	}
	defer db.Close()

	records, err := accounts.List(context.Background())
	if err != nil {
		return fmt.Errorf("failed to list accounts: %w", err)
	}

	if len(records) == 0 {
		fmt.Println("No accounts found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "USER ID\tTIER\tCREDITS\tCOMPLETIONS USED\tPROJECTS\tDUAL AI")
	for _, r := range records {
		fmt.Fprintf(w, "%s\t%s\t%.2f\t%d\t%d\t%v\n",
			r.UserID, r.Tier, r.CreditsRemaining, r.CompletionsUsed, r.ProjectsCreated, subscription.CanUseDualAI(r))
	}
	return w.Flush()
}

func runAccountsGet(cmd *cobra.Command, args []string) error {
	accounts, db, err := openAccounts()
	if err != nil {
		return err
	}
	defer db.Close()

	st, err := accounts.Status(context.Background(), args[0])
	if err != nil {
		return err
	}
	printStatus(st)
	return nil
}

func runAccountsPurchase(cmd *cobra.Command, args []string) error {
	accounts, db, err := openAccounts()
	if err != nil {
		return err
	}
	defer db.Close()

	rec, err := accounts.PurchaseCreditPackage(context.Background(), args[0], args[1])
	if err != nil {
		return err
	}

	pkg, _ := tier.FindPackage(args[1])
	fmt.Printf("Applied %s ($%d) to %s\n\n", pkg.Name, pkg.PriceUSD, rec.UserID)
	printStatus(subscription.Summarize(rec))
	return nil
}

func runAccountsUpgrade(cmd *cobra.Command, args []string) error {
	accounts, db, err := openAccounts()
	if err != nil {
		return err
	}
	defer db.Close()

	target := tier.Tier(strings.ToLower(args[1]))
	rec, err := accounts.Upgrade(context.Background(), args[0], target, upgradeV0Key, upgradeClaudeKey)
	if err != nil {
		return err
	}

	fmt.Printf("Upgraded %s to %s\n\n", rec.UserID, rec.Tier)
	printStatus(subscription.Summarize(rec))
	return nil
}

func runAccountsReset(cmd *cobra.Command, args []string) error {
	accounts, db, err := openAccounts()
	if err != nil {
		return err
	}
	defer db.Close()

	rec, err := accounts.ResetMonthly(context.Background(), args[0])
	if err != nil {
		return err
	}

	fmt.Printf("Reset usage month for %s\n\n", rec.UserID)
	printStatus(subscription.Summarize(rec))
	return nil
}

func runAccountsDelete(cmd *cobra.Command, args []string) error {
	accounts, db, err := openAccounts()
	if err != nil {
		return err
	}
	defer db.Close()

	if err := accounts.Delete(context.Background(), args[0]); err != nil {
		return err
	}
	fmt.Printf("Deleted account %s\n", args[0])
	return nil
}

func printStatus(st subscription.Status) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "User:\t%s\n", st.UserID)
	fmt.Fprintf(w, "Tier:\t%s\n", st.Tier)
	fmt.Fprintf(w, "Credits:\t%.2f\n", st.CreditsRemaining)
	fmt.Fprintf(w, "Completions:\t%d used, %s remaining\n", st.CompletionsUsed, formatLimit(st.CompletionsRemaining))
	fmt.Fprintf(w, "Projects:\t%d of %s\n", st.ProjectsCreated, formatLimit(st.ProjectLimit))
	fmt.Fprintf(w, "Dual AI:\t%v\n", st.HasDualAI)
	if st.RequiresOwnKeys {
		fmt.Fprintf(w, "Keys:\tbring your own\n")
	}
	if !st.SubscriptionEnd.IsZero() {
		fmt.Fprintf(w, "Renews:\t%s\n", st.SubscriptionEnd.Format("2006-01-02"))
	}
	w.Flush()
}

func formatLimit(n int) string {
	if n == tier.Unlimited {
		return "unlimited"
	}
	return fmt.Sprintf("%d", n)
}
