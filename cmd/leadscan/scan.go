package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/nao1215/leadscan/internal/config"
	"github.com/nao1215/leadscan/internal/crawler"
	"github.com/nao1215/leadscan/internal/database"
	"github.com/nao1215/leadscan/internal/extract"
	"github.com/nao1215/leadscan/internal/fetch"
	applog "github.com/nao1215/leadscan/internal/log"
	"github.com/nao1215/leadscan/internal/model"
	"github.com/nao1215/leadscan/internal/pipeline"
	"github.com/nao1215/leadscan/internal/report"
	"github.com/nao1215/leadscan/internal/seed"
	"github.com/spf13/cobra"
)

// NewScanCmd creates the scan command.
func NewScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan [url...]",
		Short: "Crawl sites and collect their contacts",
		Long: `Scan crawls every given site and collects its contacts.

For each site the start page is fetched first. With depth 2 or more the
pages that look like contact pages ("contacts", "about", ...) are fetched
as well. Emails, phone numbers and social network links found on those
pages are merged into one record per site.

Sites are crawled concurrently (--threads). A site that fails is recorded
with the reason and never stops the run. Ctrl+C stops the run and keeps
the results collected so far.

Examples:
  # Crawl two sites
  leadscan scan example.com https://shop.example.org

  # Crawl a list of sites, one URL per line, and write CSV
  leadscan scan --urls sites.txt --format csv

  # Label the run and choose the output file
  leadscan scan -u sites.txt -q "dentists moscow" -o dentists.xlsx

  # Go through a SOCKS5 proxy, at most 5 requests per second
  leadscan scan --proxy socks5://127.0.0.1:1080 --rps 5 -u sites.txt`,
		Args: cobra.ArbitraryArgs,
		RunE: runScanCmd,
	}

	// Input flags
	cmd.Flags().StringP("urls", "u", "",
		"File with one URL per line (# starts a comment)")
	cmd.Flags().StringP("query", "q", "",
		"Label for the run, used in the output file name")

	// Crawl behavior flags
	cmd.Flags().IntP("depth", "d", config.DefaultDepth,
		"Crawl depth: 1 reads only the start page, 2 also reads contact pages")
	cmd.Flags().IntP("threads", "n", config.DefaultConcurrency,
		"Number of sites crawled at the same time")
	cmd.Flags().Duration("delay", config.DefaultCrawlDelay,
		"Pause between requests to the same site")
	cmd.Flags().Duration("site-delay", config.DefaultSiteDelay,
		"Pause before a finished crawl frees its thread")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for each request")

	// HTTP flags
	cmd.Flags().String("proxy", "",
		"Proxy URL (http://, https:// or socks5://)")
	cmd.Flags().Float64("rps", 0,
		"Maximum requests per second for the whole run (0 is unlimited)")
	cmd.Flags().Bool("insecure", false,
		"Skip TLS certificate verification")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .leadscan.yaml in current, config or home directory)")

	// Output flags
	cmd.Flags().StringP("format", "f", config.DefaultFormat,
		"Output format: xlsx, csv, json or md")
	cmd.Flags().StringP("output", "o", "",
		"Write results to this file instead of a generated name")
	cmd.Flags().String("output-dir", config.DefaultOutputDir,
		"Directory for generated result files")
	cmd.Flags().Bool("no-cleanup", false,
		"Keep old result files in the output directory")
	cmd.Flags().Bool("no-db", false,
		"Do not save the run to the history database")

	return cmd
}

func runScanCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger, closeLog, err := setupLogger(cmd.ErrOrStderr(), cfg)
	if err != nil {
		return err
	}
	defer closeLog()
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			logger.Warn("received shutdown signal, stopping crawl")
			fmt.Fprintln(cmd.ErrOrStderr(), "\nStopping... results collected so far will be saved.")
			cancel()
		case <-ctx.Done():
		}
	}()

	return runScan(ctx, cfg, cmd.OutOrStdout(), logger)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// getLogFileFlag retrieves the log-file flag from the command or its parent.
func getLogFileFlag(cmd *cobra.Command) string {
	path, err := cmd.Flags().GetString("log-file")
	if err != nil {
		path, err = cmd.Root().PersistentFlags().GetString("log-file")
		if err != nil {
			return ""
		}
	}
	return path
}

// loadConfigFile applies the configuration file to cfg.
// A path given explicitly must exist; otherwise the standard locations
// are searched and a missing file is not an error.
func loadConfigFile(cfg *config.Config, configPath string) error {
	cfg.ConfigFilePath = configPath

	path := config.FindConfigFile(configPath)
	if path == "" {
		if configPath != "" {
			return fmt.Errorf("configuration file not found: %s", configPath)
		}
		return nil
	}

	file, err := config.LoadConfigFile(path)
	if err != nil {
		return fmt.Errorf("failed to load config file %s: %w", path, err)
	}
	file.Apply(cfg)
	return nil
}

// buildConfig creates a Config from defaults, the configuration file and
// the flags that were set on the command line, in that order.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	flags := cmd.Flags()

	configPath, err := flags.GetString("config")
	if err != nil {
		return nil, err
	}
	if err := loadConfigFile(cfg, configPath); err != nil {
		return nil, err
	}

	if cfg.URLFile, err = flags.GetString("urls"); err != nil {
		return nil, err
	}
	if cfg.Query, err = flags.GetString("query"); err != nil {
		return nil, err
	}
	if cfg.OutputFile, err = flags.GetString("output"); err != nil {
		return nil, err
	}

	if flags.Changed("depth") {
		if cfg.Depth, err = flags.GetInt("depth"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("threads") {
		if cfg.Concurrency, err = flags.GetInt("threads"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("delay") {
		if cfg.CrawlDelay, err = flags.GetDuration("delay"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("site-delay") {
		if cfg.SiteDelay, err = flags.GetDuration("site-delay"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("timeout") {
		if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("proxy") {
		if cfg.ProxyURL, err = flags.GetString("proxy"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("rps") {
		if cfg.RequestsPerSecond, err = flags.GetFloat64("rps"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("insecure") {
		if cfg.InsecureSkipVerify, err = flags.GetBool("insecure"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("format") {
		if cfg.Format, err = flags.GetString("format"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("output-dir") {
		if cfg.OutputDir, err = flags.GetString("output-dir"); err != nil {
			return nil, err
		}
	}

	noCleanup, err := flags.GetBool("no-cleanup")
	if err != nil {
		return nil, err
	}
	if noCleanup {
		cfg.CleanupEnabled = false
	}

	noDB, err := flags.GetBool("no-db")
	if err != nil {
		return nil, err
	}
	if noDB {
		cfg.SaveToDB = false
	}

	cfg.Verbose = getVerboseFlag(cmd)
	cfg.LogFile = getLogFileFlag(cmd)
	cfg.Targets = args

	return cfg, nil
}

// setupLogger creates the run logger. The returned function closes the
// log file, if any.
func setupLogger(console io.Writer, cfg *config.Config) (*slog.Logger, func(), error) {
	if cfg.LogFile == "" {
		return applog.NewLogger(console, nil, cfg.Verbose), func() {}, nil
	}

	if dir := filepath.Dir(cfg.LogFile); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
		}
	}

	f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return applog.NewLogger(console, f, cfg.Verbose), func() { _ = f.Close() }, nil
}

// runScan crawls the configured sites, then exports, stores and
// summarizes the result. A cancelled run still exports what it has.
func runScan(ctx context.Context, cfg *config.Config, out io.Writer, logger *slog.Logger) error {
	seeds, err := seed.Collect(cfg.Targets, cfg.URLFile)
	for _, rejected := range seedRejections(seeds) {
		logger.Warn("skipping invalid URL", "line", rejected.Line, "value", rejected.Value)
	}
	if err != nil {
		return err
	}
	if seeds.Duplicates > 0 {
		logger.Info("removed duplicate URLs", "count", seeds.Duplicates)
	}

	// Open the database before crawling so a broken history does not
	// cost a whole run.
	var db *database.Store
	if cfg.SaveToDB {
		db, err = database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		logger.Debug("database opened", "path", db.Path())
	}

	scheduler, err := newScheduler(ctx, cfg, out, len(seeds.URLs), logger)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Crawling %d sites (threads: %d, depth: %d)...\n\n",
		len(seeds.URLs), cfg.Concurrency, cfg.Depth)

	result, runErr := scheduler.Run(ctx, seeds.URLs, cfg.Query)
	if result == nil {
		return runErr
	}
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}

	fmt.Fprintln(out)

	path, err := exportResult(cfg, result, time.Now(), logger)
	if err != nil {
		return err
	}

	// The run context may be cancelled already; saving must still finish.
	if err := saveRun(context.WithoutCancel(ctx), db, result, logger); err != nil {
		logger.Error("failed to save run", "run", result.RunID, "error", err)
	}

	if _, err := report.NewSummaryWriter(out, report.WithFailures(true)).Write(result); err != nil {
		return err
	}
	fmt.Fprintf(out, "\nResults saved to %s\n", path)
	if db != nil {
		fmt.Fprintf(out, "Run ID: %s\n", result.RunID)
	}

	if runErr != nil {
		return fmt.Errorf("run interrupted: %w", runErr)
	}
	return nil
}

func seedRejections(list *seed.List) []seed.Rejected {
	if list == nil {
		return nil
	}
	return list.Rejected
}

// newScheduler wires the fetch client, the extraction engine and the
// spider into a scheduler.
func newScheduler(ctx context.Context, cfg *config.Config, out io.Writer, total int, logger *slog.Logger) (*pipeline.Scheduler, error) {
	client, err := fetch.NewClient(cfg.ProxyURL,
		fetch.WithTimeout(cfg.Timeout),
		fetch.WithUserAgent(cfg.UserAgent),
		fetch.WithMaxBodySize(cfg.MaxBodySize),
		fetch.WithInsecureSkipVerify(cfg.InsecureSkipVerify),
		fetch.WithRateLimit(cfg.RequestsPerSecond),
		fetch.WithCookie(cfg.Cookie),
		fetch.WithHeaders(cfg.Headers),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}

	if cfg.ProxyURL != "" {
		if status := client.CheckProxy(ctx); status != fetch.ProxyStatusOK {
			return nil, fmt.Errorf("proxy check failed: %w", status.Error())
		}
		logger.Info("proxy connection verified")
	}

	engine, err := extract.NewEngine(cfg.EmailPattern, cfg.PhonePatterns)
	if err != nil {
		return nil, err
	}

	platforms, err := cfg.Platforms()
	if err != nil {
		return nil, err
	}
	social, err := extract.NewSocialResolver(platforms)
	if err != nil {
		return nil, err
	}

	spider := crawler.NewSpider(
		func() fetch.Fetcher { return client.NewFetcher() },
		engine,
		social,
		crawler.WithDepth(cfg.Depth),
		crawler.WithDelay(cfg.CrawlDelay),
		crawler.WithContactHints(cfg.ContactHints),
		crawler.WithIgnorePatterns(cfg.IgnorePatterns),
		crawler.WithSpiderLogger(logger),
	)

	return pipeline.NewScheduler(spider,
		pipeline.WithConcurrency(cfg.Concurrency),
		pipeline.WithReleaseDelay(cfg.SiteDelay),
		pipeline.WithLogger(logger),
		pipeline.WithProgress(progressPrinter(out, total)),
	), nil
}

// progressPrinter prints one line per finished site.
func progressPrinter(w io.Writer, total int) pipeline.ProgressFunc {
	return func(r *model.SiteRecord, stats model.RunStatistics) {
		status := r.StatusText()
		if r.Success {
			status = fmt.Sprintf("OK (emails: %d, phones: %d, social: %d)",
				len(r.Emails), len(r.Phones), r.SocialCount())
		}
		fmt.Fprintf(w, "[%d/%d] %s: %s\n", stats.Processed, total, r.URL, status)
	}
}

// exportResult writes the result file and returns its path. Generated
// file names go into the output directory, which is cleaned of old
// result files first when cleanup is enabled.
func exportResult(cfg *config.Config, result *model.RunResult, now time.Time, logger *slog.Logger) (string, error) {
	format, err := config.NormalizeFormat(cfg.Format)
	if err != nil {
		return "", err
	}

	path := cfg.OutputFile
	if path == "" {
		if cfg.CleanupEnabled {
			removed, err := report.CleanupOldFiles(cfg.OutputDir, cfg.KeepDays, now, logger)
			if err != nil {
				logger.Warn("failed to clean up old results", "dir", cfg.OutputDir, "error", err)
			} else if removed > 0 {
				logger.Info("removed old result files", "count", removed, "dir", cfg.OutputDir)
			}
		}
		path = report.FileName(cfg.FilenameTemplate, cfg.Query, format, cfg.OutputDir, now)
	}

	if err := writeReportFile(path, format, result); err != nil {
		return "", err
	}
	logger.Info("results exported", "path", path, "format", format)
	return path, nil
}

// writeReportFile writes result to path in the given format, creating
// parent directories as needed.
func writeReportFile(path, format string, result *model.RunResult) (err error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	// Results hold contact data, so the file is readable by the owner only.
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close output file: %w", cerr)
		}
	}()

	writer, err := report.NewWriter(format, f)
	if err != nil {
		return err
	}
	if _, err := writer.Write(result); err != nil {
		return fmt.Errorf("failed to write results: %w", err)
	}
	return nil
}

// saveRun saves the run to the database. If db is nil, this is a no-op.
func saveRun(ctx context.Context, db *database.Store, result *model.RunResult, logger *slog.Logger) error {
	if db == nil {
		return nil
	}
	if err := db.SaveRun(ctx, result); err != nil {
		return err
	}
	logger.Info("run saved to database", "run", result.RunID)
	return nil
}
