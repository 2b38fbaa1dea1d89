package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for leadscan.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "leadscan",
		Short: "Collect contacts from business web sites",
		Long: `leadscan crawls web sites and collects their public contacts:
email addresses, phone numbers and links to social network profiles.

Each site is crawled on its own: the start page first, then the pages
that look like contact pages. Results are exported to xlsx, csv, json or
markdown and every run is kept in a local history database.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().String("log-file", "", "Also write JSON logs to this file")

	cmd.AddCommand(NewScanCmd())
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
