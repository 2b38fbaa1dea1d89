package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/leadscan/internal/config"
	"github.com/nao1215/leadscan/internal/database"
	"github.com/nao1215/leadscan/internal/model"
)

// TestNewScanCmd tests the scan command creation.
func TestNewScanCmd(t *testing.T) {
	t.Parallel()

	cmd := NewScanCmd()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "scan [url...]" {
			t.Errorf("expected use 'scan [url...]', got %q", cmd.Use)
		}
		if cmd.Short == "" || cmd.Long == "" {
			t.Error("expected non-empty descriptions")
		}
	})

	t.Run("flags have shorthands and defaults", func(t *testing.T) {
		t.Parallel()
		tests := []struct {
			name      string
			shorthand string
			defValue  string
		}{
			{"urls", "u", ""},
			{"query", "q", ""},
			{"depth", "d", "2"},
			{"threads", "n", "3"},
			{"timeout", "t", "30s"},
			{"config", "c", ""},
			{"format", "f", "xlsx"},
			{"output", "o", ""},
			{"delay", "", "2s"},
			{"site-delay", "", "2s"},
			{"output-dir", "", "results"},
			{"proxy", "", ""},
			{"rps", "", "0"},
			{"insecure", "", "false"},
			{"no-cleanup", "", "false"},
			{"no-db", "", "false"},
		}
		for _, tt := range tests {
			flag := cmd.Flags().Lookup(tt.name)
			if flag == nil {
				t.Errorf("expected %s flag", tt.name)
				continue
			}
			if flag.Shorthand != tt.shorthand {
				t.Errorf("flag %s: expected shorthand %q, got %q", tt.name, tt.shorthand, flag.Shorthand)
			}
			if flag.DefValue != tt.defValue {
				t.Errorf("flag %s: expected default %q, got %q", tt.name, tt.defValue, flag.DefValue)
			}
		}
	})
}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "leadscan.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

// TestBuildConfig checks that flags override the file and the file
// overrides defaults.
func TestBuildConfig(t *testing.T) {
	t.Parallel()

	t.Run("file values override defaults", func(t *testing.T) {
		t.Parallel()
		path := writeConfigFile(t, `
crawler:
  depth: 3
  threads: 6
export:
  format: csv
`)
		cmd := NewScanCmd()
		if err := cmd.ParseFlags([]string{"-c", path}); err != nil {
			t.Fatalf("failed to parse flags: %v", err)
		}

		cfg, err := buildConfig(cmd, []string{"example.com"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Depth != 3 {
			t.Errorf("expected depth 3, got %d", cfg.Depth)
		}
		if cfg.Concurrency != 6 {
			t.Errorf("expected threads 6, got %d", cfg.Concurrency)
		}
		if cfg.Format != "csv" {
			t.Errorf("expected format csv, got %q", cfg.Format)
		}
		if cfg.Timeout != config.DefaultTimeout {
			t.Errorf("expected default timeout, got %s", cfg.Timeout)
		}
		if cfg.ConfigFilePath != path {
			t.Errorf("expected config path %q, got %q", path, cfg.ConfigFilePath)
		}
		if len(cfg.Targets) != 1 || cfg.Targets[0] != "example.com" {
			t.Errorf("expected targets from args, got %v", cfg.Targets)
		}
	})

	t.Run("flags override file values", func(t *testing.T) {
		t.Parallel()
		path := writeConfigFile(t, `
crawler:
  depth: 3
  threads: 6
http:
  timeout: 10s
`)
		cmd := NewScanCmd()
		err := cmd.ParseFlags([]string{
			"-c", path, "-d", "1", "-n", "2", "--delay", "500ms",
			"--proxy", "socks5://127.0.0.1:1080", "--rps", "2.5", "--insecure",
			"-f", "json", "-o", "out.json", "-q", "cafes", "-u", "list.txt",
			"--no-db", "--no-cleanup",
		})
		if err != nil {
			t.Fatalf("failed to parse flags: %v", err)
		}

		cfg, err := buildConfig(cmd, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Depth != 1 {
			t.Errorf("expected depth 1, got %d", cfg.Depth)
		}
		if cfg.Concurrency != 2 {
			t.Errorf("expected threads 2, got %d", cfg.Concurrency)
		}
		if cfg.Timeout != 10*time.Second {
			t.Errorf("expected timeout from file, got %s", cfg.Timeout)
		}
		if cfg.CrawlDelay != 500*time.Millisecond {
			t.Errorf("expected delay 500ms, got %s", cfg.CrawlDelay)
		}
		if cfg.ProxyURL != "socks5://127.0.0.1:1080" {
			t.Errorf("unexpected proxy %q", cfg.ProxyURL)
		}
		if cfg.RequestsPerSecond != 2.5 {
			t.Errorf("expected rps 2.5, got %v", cfg.RequestsPerSecond)
		}
		if !cfg.InsecureSkipVerify {
			t.Error("expected insecure to be set")
		}
		if cfg.Format != "json" || cfg.OutputFile != "out.json" {
			t.Errorf("unexpected output %q/%q", cfg.Format, cfg.OutputFile)
		}
		if cfg.Query != "cafes" || cfg.URLFile != "list.txt" {
			t.Errorf("unexpected query %q or url file %q", cfg.Query, cfg.URLFile)
		}
		if cfg.SaveToDB {
			t.Error("expected --no-db to disable the database")
		}
		if cfg.CleanupEnabled {
			t.Error("expected --no-cleanup to disable cleanup")
		}
	})

	t.Run("missing explicit config file is an error", func(t *testing.T) {
		t.Parallel()
		cmd := NewScanCmd()
		missing := filepath.Join(t.TempDir(), "missing.yaml")
		if err := cmd.ParseFlags([]string{"-c", missing}); err != nil {
			t.Fatalf("failed to parse flags: %v", err)
		}

		_, err := buildConfig(cmd, []string{"example.com"})
		if err == nil {
			t.Fatal("expected error for missing config file")
		}
		if !strings.Contains(err.Error(), "not found") {
			t.Errorf("expected 'not found' error, got %v", err)
		}
	})

	t.Run("invalid config file is an error", func(t *testing.T) {
		t.Parallel()
		path := writeConfigFile(t, "crawler: [unclosed")
		cmd := NewScanCmd()
		if err := cmd.ParseFlags([]string{"-c", path}); err != nil {
			t.Fatalf("failed to parse flags: %v", err)
		}

		if _, err := buildConfig(cmd, nil); err == nil {
			t.Error("expected error for invalid config file")
		}
	})
}

func TestRunScanCmdRejectsInvalidConfig(t *testing.T) {
	t.Parallel()

	cmd := NewScanCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"-c", writeConfigFile(t, "{}"), "-d", "9", "example.com"})

	err := cmd.Execute()
	if err == nil {
		t.Fatal("expected configuration error")
	}
	if !strings.Contains(err.Error(), "configuration error") {
		t.Errorf("expected configuration error, got %v", err)
	}
}

func newContactServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, `<html><head><title>Acme Plumbing</title></head><body>
			<p>Write to info@acme.example</p>
			<a href="/contacts">Contacts</a>
		</body></html>`)
	})
	mux.HandleFunc("/contacts", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, `<p>Phone: +7 (495) 123-45-67</p><a href="https://vk.com/acme_plumbing">VK</a>`)
	})
	mux.HandleFunc("/down", func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func newTestConfig(t *testing.T, targets ...string) *config.Config {
	t.Helper()
	cfg := config.NewConfig()
	cfg.Targets = targets
	cfg.CrawlDelay = 0
	cfg.SiteDelay = 0
	cfg.Timeout = 5 * time.Second
	cfg.OutputDir = t.TempDir()
	cfg.DBDir = t.TempDir()
	cfg.Format = config.FormatJSON
	return cfg
}

// TestRunScan crawls a local server end to end.
func TestRunScan(t *testing.T) {
	t.Parallel()

	server := newContactServer(t)
	cfg := newTestConfig(t, server.URL, server.URL+"/down")
	cfg.Query = "plumbers"

	var out bytes.Buffer
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if err := runScan(context.Background(), cfg, &out, logger); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	output := out.String()
	for _, want := range []string{"Crawling 2 sites", "[2/2]", "HTTP 503", "Results saved to"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, output)
		}
	}

	t.Run("writes the result file", func(t *testing.T) {
		matches, err := filepath.Glob(filepath.Join(cfg.OutputDir, "results_*_plumbers.json"))
		if err != nil || len(matches) != 1 {
			t.Fatalf("expected one result file, got %v (err %v)", matches, err)
		}
		data, err := os.ReadFile(matches[0])
		if err != nil {
			t.Fatalf("failed to read result: %v", err)
		}

		var result model.RunResult
		if err := json.Unmarshal(data, &result); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if len(result.Records) != 2 {
			t.Fatalf("expected 2 records, got %d", len(result.Records))
		}

		site := result.Records[0]
		if !site.Success {
			t.Fatalf("expected first site to succeed, got %q", site.ErrorReason)
		}
		if site.Title != "Acme Plumbing" {
			t.Errorf("unexpected title %q", site.Title)
		}
		if len(site.Emails) != 1 || site.Emails[0] != "info@acme.example" {
			t.Errorf("unexpected emails %v", site.Emails)
		}
		if len(site.Phones) != 1 || site.Phones[0] != "+7 (495) 123-45-67" {
			t.Errorf("unexpected phones %v", site.Phones)
		}
		if site.SocialLinks[model.PlatformVK] != "https://vk.com/acme_plumbing" {
			t.Errorf("unexpected VK link %q", site.SocialLinks[model.PlatformVK])
		}

		if result.Records[1].Success {
			t.Error("expected second site to fail")
		}
		if result.Stats.Success != 1 || result.Stats.Errors != 1 {
			t.Errorf("unexpected stats %+v", result.Stats)
		}
	})

	t.Run("saves the run", func(t *testing.T) {
		db, err := database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()

		runs, err := db.ListRuns(context.Background(), 0)
		if err != nil {
			t.Fatalf("failed to list runs: %v", err)
		}
		if len(runs) != 1 {
			t.Fatalf("expected 1 run, got %d", len(runs))
		}
		if runs[0].Query != "plumbers" || runs[0].Stats.TotalEmails != 1 {
			t.Errorf("unexpected run %+v", runs[0])
		}
	})
}

func TestRunScanWithoutDatabase(t *testing.T) {
	t.Parallel()

	server := newContactServer(t)
	cfg := newTestConfig(t, server.URL)
	cfg.SaveToDB = false
	cfg.Format = config.FormatCSV
	cfg.OutputFile = filepath.Join(t.TempDir(), "nested", "out.csv")

	var out bytes.Buffer
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if err := runScan(context.Background(), cfg, &out, logger); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := os.Stat(cfg.OutputFile); err != nil {
		t.Errorf("expected output file: %v", err)
	}
	if _, err := os.Stat(filepath.Join(cfg.DBDir, database.FileName)); !os.IsNotExist(err) {
		t.Error("expected no database to be created")
	}
	if strings.Contains(out.String(), "Run ID:") {
		t.Error("expected no run ID without database")
	}
}

func TestRunScanNoValidURLs(t *testing.T) {
	t.Parallel()

	cfg := newTestConfig(t, "ftp://files.example.com", "   ")

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	err := runScan(context.Background(), cfg, io.Discard, logger)
	if err == nil {
		t.Fatal("expected error without valid URLs")
	}
	if _, statErr := os.Stat(filepath.Join(cfg.DBDir, database.FileName)); !os.IsNotExist(statErr) {
		t.Error("expected no database to be created")
	}
}

func TestRunScanCancelled(t *testing.T) {
	t.Parallel()

	server := newContactServer(t)
	cfg := newTestConfig(t, server.URL, server.URL+"/contacts")
	cfg.SaveToDB = false

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	err := runScan(ctx, cfg, io.Discard, logger)
	if err == nil || !strings.Contains(err.Error(), "interrupted") {
		t.Fatalf("expected interrupted error, got %v", err)
	}

	matches, _ := filepath.Glob(filepath.Join(cfg.OutputDir, "*.json"))
	if len(matches) != 1 {
		t.Errorf("expected partial results to be exported, got %v", matches)
	}
}

func TestExportFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		format string
		output string
		want   string
	}{
		{"", "run.csv", "csv"},
		{"", "run.md", "md"},
		{"", "run", config.DefaultFormat},
		{"json", "run.csv", "json"},
		{"excel", "run", "xlsx"},
	}
	for _, tt := range tests {
		got, err := exportFormat(tt.format, tt.output)
		if err != nil {
			t.Errorf("exportFormat(%q, %q): unexpected error %v", tt.format, tt.output, err)
			continue
		}
		if got != tt.want {
			t.Errorf("exportFormat(%q, %q): expected %q, got %q", tt.format, tt.output, tt.want, got)
		}
	}

	if _, err := exportFormat("pdf", "run.pdf"); err == nil {
		t.Error("expected error for unsupported format")
	}
}
