package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for optovka.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "optovka",
		Short: "Crawler for the optoviki.kz wholesale directory",
		Long: `optovka walks the optoviki.kz B2B directory from its front page through
categories, subcategories, supplier listings and supplier profiles down to
individual products, and stores what it finds in SQLite or PostgreSQL.

Repeated runs are idempotent: categories and subcategories are keyed by
slug, suppliers by name, and products by name within a supplier.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().Bool("log-json", false, "Write logs as JSON lines")
	cmd.PersistentFlags().StringP("config", "c", "",
		"Configuration file path (default: .optovka.yaml in current or home directory)")
	cmd.PersistentFlags().String("db-dir", "",
		"SQLite database directory (default: XDG data directory)")
	cmd.PersistentFlags().String("postgres-dsn", "",
		"Use PostgreSQL at this DSN instead of SQLite")

	cmd.AddCommand(NewCrawlCmd())
	cmd.AddCommand(NewListCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
