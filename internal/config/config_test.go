package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nao1215/leadscan/internal/model"
)

// TestNewConfig verifies that NewConfig returns a Config with all expected default values.
// Changes to defaults must be intentional: these tests fail otherwise.
func TestNewConfig(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()

	t.Run("default Depth is 2", func(t *testing.T) {
		t.Parallel()
		if cfg.Depth != 2 {
			t.Errorf("expected Depth to be 2, got %d", cfg.Depth)
		}
	})

	t.Run("default Timeout is 30 seconds", func(t *testing.T) {
		t.Parallel()
		if cfg.Timeout != 30*time.Second {
			t.Errorf("expected Timeout to be 30s, got %v", cfg.Timeout)
		}
	})

	t.Run("default Concurrency is 3", func(t *testing.T) {
		t.Parallel()
		if cfg.Concurrency != 3 {
			t.Errorf("expected Concurrency to be 3, got %d", cfg.Concurrency)
		}
	})

	t.Run("default delays are 2 seconds", func(t *testing.T) {
		t.Parallel()
		if cfg.CrawlDelay != 2*time.Second {
			t.Errorf("expected CrawlDelay to be 2s, got %v", cfg.CrawlDelay)
		}
		if cfg.SiteDelay != 2*time.Second {
			t.Errorf("expected SiteDelay to be 2s, got %v", cfg.SiteDelay)
		}
	})

	t.Run("default Format is xlsx", func(t *testing.T) {
		t.Parallel()
		if cfg.Format != FormatXLSX {
			t.Errorf("expected Format to be xlsx, got %q", cfg.Format)
		}
	})

	t.Run("default phone patterns cover +7 and 8 prefixes", func(t *testing.T) {
		t.Parallel()
		if len(cfg.PhonePatterns) != 2 {
			t.Fatalf("expected 2 phone patterns, got %d", len(cfg.PhonePatterns))
		}
	})

	t.Run("default social patterns cover every platform", func(t *testing.T) {
		t.Parallel()
		patterns, err := cfg.Platforms()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for _, p := range model.Platforms {
			if patterns[p] == "" {
				t.Errorf("expected a default pattern for %s", p)
			}
		}
	})

	t.Run("defaults are copies", func(t *testing.T) {
		t.Parallel()
		other := NewConfig()
		other.SocialPatterns["VK"] = "changed"
		other.PhonePatterns[0] = "changed"
		if DefaultSocialPatterns["VK"] != "vk.com" {
			t.Error("expected DefaultSocialPatterns to stay untouched")
		}
		if DefaultPhonePatterns[0] == "changed" {
			t.Error("expected DefaultPhonePatterns to stay untouched")
		}
	})
}

// TestConfigValidate tests the Validate method with various configurations.
// Each test case is designed to test one specific validation rule.
func TestConfigValidate(t *testing.T) {
	t.Parallel()

	validConfig := func() *Config {
		cfg := NewConfig()
		cfg.Targets = []string{"https://example.com"}
		return cfg
	}

	t.Run("valid config returns nil", func(t *testing.T) {
		t.Parallel()
		if err := validConfig().Validate(); err != nil {
			t.Errorf("expected nil error, got %v", err)
		}
	})

	t.Run("URL file is enough as target", func(t *testing.T) {
		t.Parallel()
		cfg := validConfig()
		cfg.Targets = nil
		cfg.URLFile = "urls.txt"
		if err := cfg.Validate(); err != nil {
			t.Errorf("expected nil error, got %v", err)
		}
	})

	tests := []struct {
		name   string
		modify func(*Config)
		want   error
	}{
		{"no target", func(c *Config) { c.Targets = nil }, ErrNoTarget},
		{"zero timeout", func(c *Config) { c.Timeout = 0 }, ErrInvalidTimeout},
		{"zero depth", func(c *Config) { c.Depth = 0 }, ErrInvalidDepth},
		{"depth above max", func(c *Config) { c.Depth = MaxDepth + 1 }, ErrInvalidDepth},
		{"zero concurrency", func(c *Config) { c.Concurrency = 0 }, ErrInvalidConcurrency},
		{"negative crawl delay", func(c *Config) { c.CrawlDelay = -time.Second }, ErrInvalidCrawlDelay},
		{"negative site delay", func(c *Config) { c.SiteDelay = -time.Second }, ErrInvalidSiteDelay},
		{"negative body size", func(c *Config) { c.MaxBodySize = -1 }, ErrInvalidMaxBodySize},
		{"negative rate", func(c *Config) { c.RequestsPerSecond = -1 }, ErrInvalidRateLimit},
		{"empty email pattern", func(c *Config) { c.EmailPattern = " " }, ErrNoEmailPattern},
		{"unknown format", func(c *Config) { c.Format = "pdf" }, ErrUnsupportedFormat},
		{"negative keep days", func(c *Config) { c.KeepDays = -1 }, ErrInvalidKeepDays},
		{"unknown platform", func(c *Config) { c.SocialPatterns["MySpace"] = "myspace.com" }, ErrUnknownPlatform},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := validConfig()
			tt.modify(cfg)
			if err := cfg.Validate(); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestNormalizeFormat(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"xlsx":     FormatXLSX,
		"Excel":    FormatXLSX,
		"csv":      FormatCSV,
		" JSON ":   FormatJSON,
		"md":       FormatMarkdown,
		"markdown": FormatMarkdown,
	}
	for in, want := range tests {
		got, err := NormalizeFormat(in)
		if err != nil {
			t.Errorf("NormalizeFormat(%q) unexpected error: %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("NormalizeFormat(%q): expected %q, got %q", in, want, got)
		}
	}

	if _, err := NormalizeFormat("txt"); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestConfigPlatforms(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()
	cfg.SocialPatterns = map[string]string{
		"telegram": "t.me",
		"VK":       "",
	}

	patterns, err := cfg.Platforms()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if patterns[model.PlatformTelegram] != "t.me" {
		t.Errorf("expected case-insensitive platform name, got %v", patterns)
	}
	if _, ok := patterns[model.PlatformVK]; ok {
		t.Error("expected empty pattern to disable the platform")
	}
}

// TestLoadConfigFile tests the LoadConfigFile function.
func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("returns ErrConfigNotFound for non-existent file", func(t *testing.T) {
		t.Parallel()

		cf, err := LoadConfigFile("/nonexistent/path/.leadscan.yaml")
		if !errors.Is(err, ErrConfigNotFound) {
			t.Fatalf("expected ErrConfigNotFound, got: %v", err)
		}
		if cf != nil {
			t.Error("expected nil config when file not found")
		}
	})

	t.Run("loads valid YAML config", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), DefaultConfigFile)
		content := `crawler:
  depth: 3
  threads: 5
  crawl_delay: 500ms
  ignore_patterns:
    - "*.pdf"
http:
  timeout: 10s
  insecure_skip_verify: true
  headers:
    X-Test: "1"
extractor:
  phone_patterns:
    - '\d{10}'
  social:
    VK: "vk.com|vkontakte.ru"
export:
  format: csv
  cleanup: false
database:
  enabled: false
`
		if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		cf, err := LoadConfigFile(configPath)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		cfg := NewConfig()
		cf.Apply(cfg)

		if cfg.Depth != 3 {
			t.Errorf("expected depth 3, got %d", cfg.Depth)
		}
		if cfg.Concurrency != 5 {
			t.Errorf("expected concurrency 5, got %d", cfg.Concurrency)
		}
		if cfg.CrawlDelay != 500*time.Millisecond {
			t.Errorf("expected crawl delay 500ms, got %v", cfg.CrawlDelay)
		}
		if cfg.SiteDelay != DefaultSiteDelay {
			t.Errorf("expected unset site delay to keep default, got %v", cfg.SiteDelay)
		}
		if cfg.Timeout != 10*time.Second {
			t.Errorf("expected timeout 10s, got %v", cfg.Timeout)
		}
		if !cfg.InsecureSkipVerify {
			t.Error("expected InsecureSkipVerify true")
		}
		if cfg.Headers["X-Test"] != "1" {
			t.Errorf("expected X-Test header, got %v", cfg.Headers)
		}
		if len(cfg.PhonePatterns) != 1 || cfg.PhonePatterns[0] != `\d{10}` {
			t.Errorf("expected phone patterns to be replaced, got %v", cfg.PhonePatterns)
		}
		if cfg.SocialPatterns["VK"] != "vk.com|vkontakte.ru" {
			t.Errorf("expected VK pattern override, got %q", cfg.SocialPatterns["VK"])
		}
		if cfg.SocialPatterns["Telegram"] != "t.me|telegram.me" {
			t.Errorf("expected Telegram default to survive, got %q", cfg.SocialPatterns["Telegram"])
		}
		if cfg.Format != FormatCSV {
			t.Errorf("expected format csv, got %q", cfg.Format)
		}
		if cfg.CleanupEnabled {
			t.Error("expected cleanup disabled")
		}
		if cfg.SaveToDB {
			t.Error("expected database disabled")
		}
		if cfg.KeepDays != DefaultKeepDays {
			t.Errorf("expected default keep days, got %d", cfg.KeepDays)
		}
	})

	t.Run("returns error for invalid YAML", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), DefaultConfigFile)
		if err := os.WriteFile(configPath, []byte(`invalid: yaml: content: [}`), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		if _, err := LoadConfigFile(configPath); err == nil {
			t.Error("expected error for invalid YAML")
		}
	})
}

// TestFindConfigFile tests the FindConfigFile function.
func TestFindConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("returns explicit path if exists", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), "custom.yaml")
		if err := os.WriteFile(configPath, []byte("crawler: {}"), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		if result := FindConfigFile(configPath); result != configPath {
			t.Errorf("expected %q, got %q", configPath, result)
		}
	})

	t.Run("returns empty for non-existent explicit path", func(t *testing.T) {
		t.Parallel()

		if result := FindConfigFile("/nonexistent/path/config.yaml"); result != "" {
			t.Errorf("expected empty string, got %q", result)
		}
	})
}

// TestXDGDirs tests XDG directory functions.
func TestXDGDirs(t *testing.T) {
	t.Parallel()

	if dir := XDGDataDir(); filepath.Base(dir) != AppName {
		t.Errorf("expected data dir to end with %q, got %q", AppName, dir)
	}
	if dir := XDGConfigDir(); filepath.Base(dir) != AppName {
		t.Errorf("expected config dir to end with %q, got %q", AppName, dir)
	}
}
