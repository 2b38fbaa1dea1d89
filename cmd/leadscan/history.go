package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/nao1215/leadscan/internal/config"
	"github.com/nao1215/leadscan/internal/database"
	"github.com/nao1215/leadscan/internal/model"
	"github.com/nao1215/leadscan/internal/report"
	"github.com/spf13/cobra"
)

const (
	// historyDateLayout is how run and record times are printed.
	historyDateLayout = "2006-01-02 15:04:05"

	// shortIDLength is the printed length of run IDs. Any unique prefix
	// is accepted back.
	shortIDLength = 8

	// defaultHistoryLimit is the number of runs listed by default.
	defaultHistoryLimit = 20

	maxURLWidth = 40
)

// NewHistoryCmd creates the history command.
// Runs are read from the database the scan command writes to.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Browse previous runs",
		Long: `History lists the runs saved by 'leadscan scan' and shows their results.

Run IDs can be shortened to any unique prefix.

Examples:
  # List the latest runs
  leadscan history

  # Show the sites of one run
  leadscan history show 3f2a91c0

  # Export an old run again, as CSV
  leadscan history show 3f2a91c0 -o old-run.csv

  # Show every record of a domain across runs
  leadscan history site example.com

  # Remove a run
  leadscan history delete 3f2a91c0`,
		Args: cobra.NoArgs,
		RunE: runHistoryListCmd,
	}

	cmd.PersistentFlags().StringP("config", "c", "",
		"Configuration file path (default: .leadscan.yaml in current, config or home directory)")
	cmd.PersistentFlags().String("db-dir", "",
		"Directory of the history database (default: XDG data directory)")

	cmd.Flags().IntP("limit", "n", defaultHistoryLimit,
		"Number of runs to list (0 lists all)")

	cmd.AddCommand(newHistoryShowCmd())
	cmd.AddCommand(newHistorySiteCmd())
	cmd.AddCommand(newHistoryDeleteCmd())

	return cmd
}

func newHistoryShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show the results of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  runHistoryShowCmd,
	}

	cmd.Flags().StringP("output", "o", "",
		"Export the run to this file")
	cmd.Flags().StringP("format", "f", "",
		"Export format: xlsx, csv, json or md (default: from the file extension)")

	return cmd
}

func newHistorySiteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "site <domain>",
		Short: "Show every saved record of a domain",
		Args:  cobra.ExactArgs(1),
		RunE:  runHistorySiteCmd,
	}
}

func newHistoryDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <run-id>",
		Short: "Delete a run from the history",
		Args:  cobra.ExactArgs(1),
		RunE:  runHistoryDeleteCmd,
	}
}

// historyDBDir resolves the database directory: --db-dir, then the
// configuration file, then the XDG default.
func historyDBDir(cmd *cobra.Command) (string, error) {
	cfg := config.NewConfig()

	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return "", err
	}
	if err := loadConfigFile(cfg, configPath); err != nil {
		return "", err
	}

	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return "", err
	}
	if dbDir != "" {
		return dbDir, nil
	}
	return cfg.DBDir, nil
}

// openHistory opens an existing database. It returns a nil store when
// no run has been saved yet.
func openHistory(cmd *cobra.Command) (*database.Store, error) {
	dbDir, err := historyDBDir(cmd)
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(filepath.Join(dbDir, database.FileName)); errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}

	db, err := database.Open(dbDir, database.Options{EnableWAL: true})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

func printNoHistory(w io.Writer) {
	fmt.Fprintln(w, "No runs found in the history.")
	fmt.Fprintln(w, "\nUse 'leadscan scan' to crawl sites and save a run.")
}

func runHistoryListCmd(cmd *cobra.Command, _ []string) error {
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}

	db, err := openHistory(cmd)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if db == nil {
		printNoHistory(out)
		return nil
	}
	defer db.Close()

	runs, err := db.ListRuns(context.Background(), limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		printNoHistory(out)
		return nil
	}

	fmt.Fprintf(out, "Runs (%d):\n\n", len(runs))
	fmt.Fprintf(out, "  %-8s  %-19s  %5s  %5s  %6s  %6s  %6s  %s\n",
		"ID", "Date", "Sites", "OK", "Errors", "Emails", "Phones", "Query")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 78))

	for _, run := range runs {
		fmt.Fprintf(out, "  %-8s  %-19s  %5d  %5d  %6d  %6d  %6d  %s\n",
			shortID(run.ID),
			run.StartedAt.Local().Format(historyDateLayout),
			run.Stats.Total,
			run.Stats.Success,
			run.Stats.Errors,
			run.Stats.TotalEmails,
			run.Stats.TotalPhones,
			orNone(run.Query),
		)
	}

	fmt.Fprintln(out, "\nUse 'leadscan history show <id>' to see the sites of a run.")
	return nil
}

func runHistoryShowCmd(cmd *cobra.Command, args []string) error {
	output, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return err
	}

	db, err := openHistory(cmd)
	if err != nil {
		return err
	}
	if db == nil {
		return fmt.Errorf("%w: %s", database.ErrRunNotFound, args[0])
	}
	defer db.Close()

	result, err := db.GetRun(context.Background(), args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if output != "" {
		format, err = exportFormat(format, output)
		if err != nil {
			return err
		}
		if err := writeReportFile(output, format, result); err != nil {
			return err
		}
		fmt.Fprintf(out, "Run %s exported to %s\n", shortID(result.RunID), output)
		return nil
	}

	fmt.Fprintf(out, "Run %s (%s)\n", result.RunID, result.StartedAt.Local().Format(historyDateLayout))
	if result.Query != "" {
		fmt.Fprintf(out, "Query: %s\n", result.Query)
	}
	fmt.Fprintln(out)
	printRecords(out, "#", result.Records, func(r *model.SiteRecord) string {
		return strconv.Itoa(r.Index)
	})
	fmt.Fprintln(out)

	_, err = report.NewSummaryWriter(out).Write(result)
	return err
}

func runHistorySiteCmd(cmd *cobra.Command, args []string) error {
	db, err := openHistory(cmd)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if db == nil {
		printNoHistory(out)
		return nil
	}
	defer db.Close()

	records, err := db.SiteHistory(context.Background(), args[0])
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Fprintf(out, "No records found for %s\n", args[0])
		return nil
	}

	fmt.Fprintf(out, "History of %s (%d records):\n\n", args[0], len(records))
	printRecords(out, "Date", records, func(r *model.SiteRecord) string {
		return r.Timestamp.Local().Format(historyDateLayout)
	})

	for _, r := range records {
		if r.Success {
			fmt.Fprintf(out, "\nLatest contacts (%s):\n", r.Timestamp.Local().Format(historyDateLayout))
			printContacts(out, r)
			break
		}
	}
	return nil
}

func runHistoryDeleteCmd(cmd *cobra.Command, args []string) error {
	db, err := openHistory(cmd)
	if err != nil {
		return err
	}
	if db == nil {
		return fmt.Errorf("%w: %s", database.ErrRunNotFound, args[0])
	}
	defer db.Close()

	ctx := context.Background()
	result, err := db.GetRun(ctx, args[0])
	if err != nil {
		return err
	}
	if err := db.DeleteRun(ctx, result.RunID); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Deleted run %s (%d sites)\n", result.RunID, len(result.Records))
	return nil
}

// exportFormat picks the export format from the flag or, when the flag
// is empty, from the output file extension.
func exportFormat(format, output string) (string, error) {
	if format == "" {
		format = strings.TrimPrefix(filepath.Ext(output), ".")
		if format == "" {
			format = config.DefaultFormat
		}
	}
	return config.NormalizeFormat(format)
}

// printRecords prints one line per record. first renders the first column.
func printRecords(w io.Writer, label string, records []*model.SiteRecord, first func(*model.SiteRecord) string) {
	fmt.Fprintf(w, "  %-19s  %-40s  %6s  %6s  %6s  %s\n",
		label, "URL", "Emails", "Phones", "Social", "Status")
	fmt.Fprintln(w, "  "+strings.Repeat("-", 96))

	for _, r := range records {
		fmt.Fprintf(w, "  %-19s  %-40s  %6d  %6d  %6d  %s\n",
			first(r),
			truncate(r.URL, maxURLWidth),
			len(r.Emails),
			len(r.Phones),
			r.SocialCount(),
			r.StatusText(),
		)
	}
}

func printContacts(w io.Writer, r *model.SiteRecord) {
	for _, email := range r.Emails {
		fmt.Fprintf(w, "  email:  %s\n", email)
	}
	for _, phone := range r.Phones {
		fmt.Fprintf(w, "  phone:  %s\n", phone)
	}
	for _, p := range model.Platforms {
		if link := r.SocialLinks[p]; link != "" {
			fmt.Fprintf(w, "  %-7s %s\n", strings.ToLower(string(p))+":", link)
		}
	}
}

func shortID(id string) string {
	if len(id) > shortIDLength {
		return id[:shortIDLength]
	}
	return id
}

func orNone(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-3]) + "..."
}
