package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/nao1215/leadscan/internal/model"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "leadscan"

	// DefaultTimeout is the per-request timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultDepth crawls the seed page and one tier of internal pages.
	DefaultDepth = 2

	// MaxDepth bounds the depth a user can ask for. The per-site page cap
	// is depth×10, so 5 already allows 50 requests per site.
	MaxDepth = 5

	// DefaultConcurrency is the number of sites crawled at once.
	// Small on purpose: small business sites are easily overloaded.
	DefaultConcurrency = 3

	// DefaultCrawlDelay is the pause between two requests to the same site.
	DefaultCrawlDelay = 2 * time.Second

	// DefaultSiteDelay is how long a finished site keeps its worker slot.
	DefaultSiteDelay = 2 * time.Second

	// DefaultUserAgent is a desktop browser user agent.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	// DefaultMaxBodySize limits the response body size to read.
	DefaultMaxBodySize = 5 * 1024 * 1024 // 5MB

	// DefaultEmailPattern matches email addresses anywhere in markup.
	DefaultEmailPattern = `[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`

	// DefaultFormat is the export format.
	DefaultFormat = FormatXLSX

	// DefaultOutputDir is the export directory, relative to the working directory.
	DefaultOutputDir = "results"

	// DefaultFilenameTemplate names export files. {date} and {query} are replaced.
	DefaultFilenameTemplate = "results_{date}_{query}"

	// DefaultKeepDays is how long old export files are kept.
	DefaultKeepDays = 1
)

// Export formats.
const (
	FormatXLSX     = "xlsx"
	FormatCSV      = "csv"
	FormatJSON     = "json"
	FormatMarkdown = "md"
)

// DefaultPhonePatterns match Russian numbers with the +7 and 8 prefixes.
var DefaultPhonePatterns = []string{
	`\+7\s?\(?\d{3}\)?\s?\d{3}-?\d{2}-?\d{2}`,
	`8\s?\(?\d{3}\)?\s?\d{3}-?\d{2}-?\d{2}`,
}

// DefaultContactHints are URL substrings of typical contact and about pages.
var DefaultContactHints = []string{"контакты", "contact", "contacts", "о-нас", "about", "o-nas"}

// DefaultSocialPatterns maps platform names to pipe-delimited domains.
var DefaultSocialPatterns = map[string]string{
	"VK":        "vk.com",
	"Telegram":  "t.me|telegram.me",
	"WhatsApp":  "wa.me|api.whatsapp.com",
	"Instagram": "instagram.com",
	"Facebook":  "facebook.com",
	"OK":        "ok.ru",
	"YouTube":   "youtube.com",
}

// Config holds all configuration options for leadscan.
// It is populated from defaults, then the config file, then CLI flags,
// and passed down explicitly.
type Config struct {
	// Targets are seed URLs given on the command line.
	Targets []string

	// URLFile is a file with one seed URL per line.
	URLFile string

	// Query labels the run in exports and history, e.g. the search query
	// that produced the URL list.
	Query string

	// Depth is the crawl depth per site. 1 fetches only the seed page.
	Depth int

	// Timeout is the timeout of each HTTP request.
	Timeout time.Duration

	// Concurrency is the number of sites crawled at once.
	Concurrency int

	// CrawlDelay is the pause between requests to the same site.
	CrawlDelay time.Duration

	// SiteDelay is how long a finished site keeps its worker slot.
	SiteDelay time.Duration

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string

	// MaxBodySize is the maximum response body size in bytes to read.
	MaxBodySize int64

	// ProxyURL routes requests through an http(s) or socks5 proxy when set.
	ProxyURL string

	// RequestsPerSecond caps the request rate of the whole run. 0 disables it.
	RequestsPerSecond float64

	// InsecureSkipVerify disables TLS certificate verification.
	InsecureSkipVerify bool

	// Cookie is sent with every request.
	Cookie string

	// Headers are sent with every request.
	Headers map[string]string

	// IgnorePatterns are URL path globs that are never fetched.
	IgnorePatterns []string

	// EmailPattern is the regular expression for email addresses.
	EmailPattern string

	// PhonePatterns are the regular expressions for phone numbers, tried in order.
	PhonePatterns []string

	// ContactHints are URL substrings that mark contact-like pages.
	ContactHints []string

	// SocialPatterns maps platform names to pipe-delimited domains.
	SocialPatterns map[string]string

	// Format is the export format: xlsx, csv, json or md.
	Format string

	// OutputFile is an explicit export path. When empty a name is
	// generated from FilenameTemplate inside OutputDir.
	OutputFile string

	// OutputDir is the directory for generated export files.
	OutputDir string

	// FilenameTemplate is the template for generated export file names.
	FilenameTemplate string

	// CleanupEnabled removes export files older than KeepDays before exporting.
	CleanupEnabled bool

	// KeepDays is the age in days after which export files are removed.
	KeepDays int

	// DBDir is the directory of the SQLite run history.
	DBDir string

	// SaveToDB stores every run in the database.
	SaveToDB bool

	// Verbose enables debug logging.
	Verbose bool

	// LogFile additionally writes JSON logs to this file when set.
	LogFile string

	// ConfigFilePath is the path to the configuration file.
	ConfigFilePath string
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		Depth:            DefaultDepth,
		Timeout:          DefaultTimeout,
		Concurrency:      DefaultConcurrency,
		CrawlDelay:       DefaultCrawlDelay,
		SiteDelay:        DefaultSiteDelay,
		UserAgent:        DefaultUserAgent,
		MaxBodySize:      DefaultMaxBodySize,
		EmailPattern:     DefaultEmailPattern,
		PhonePatterns:    append([]string(nil), DefaultPhonePatterns...),
		ContactHints:     append([]string(nil), DefaultContactHints...),
		SocialPatterns:   copyMap(DefaultSocialPatterns),
		Format:           DefaultFormat,
		OutputDir:        DefaultOutputDir,
		FilenameTemplate: DefaultFilenameTemplate,
		CleanupEnabled:   true,
		KeepDays:         DefaultKeepDays,
		DBDir:            XDGDataDir(),
		SaveToDB:         true,
	}
}

// XDGDataDir returns the XDG data directory for leadscan.
// On Linux: ~/.local/share/leadscan
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for leadscan.
// On Linux: ~/.config/leadscan
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// NormalizeFormat returns the canonical name of an export format.
// "excel" is accepted for xlsx and "markdown" for md.
func NormalizeFormat(format string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case FormatXLSX, "excel":
		return FormatXLSX, nil
	case FormatCSV:
		return FormatCSV, nil
	case FormatJSON:
		return FormatJSON, nil
	case FormatMarkdown, "markdown":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// Platforms converts SocialPatterns to platform keys.
// Platforms with an empty pattern are left out, which disables them.
func (c *Config) Platforms() (map[model.Platform]string, error) {
	patterns := make(map[model.Platform]string, len(c.SocialPatterns))
	for name, pattern := range c.SocialPatterns {
		p, ok := model.ParsePlatform(name)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownPlatform, name)
		}
		if strings.TrimSpace(pattern) == "" {
			continue
		}
		patterns[p] = pattern
	}
	return patterns, nil
}

// Validate checks if the configuration is valid.
// It returns the first problem found as a sentinel error.
func (c *Config) Validate() error {
	if len(c.Targets) == 0 && c.URLFile == "" {
		return ErrNoTarget
	}

	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.Depth < 1 || c.Depth > MaxDepth {
		return ErrInvalidDepth
	}

	if c.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}

	if c.CrawlDelay < 0 {
		return ErrInvalidCrawlDelay
	}

	if c.SiteDelay < 0 {
		return ErrInvalidSiteDelay
	}

	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}

	if c.RequestsPerSecond < 0 {
		return ErrInvalidRateLimit
	}

	if strings.TrimSpace(c.EmailPattern) == "" {
		return ErrNoEmailPattern
	}

	if _, err := NormalizeFormat(c.Format); err != nil {
		return err
	}

	if c.KeepDays < 0 {
		return ErrInvalidKeepDays
	}

	if _, err := c.Platforms(); err != nil {
		return err
	}

	return nil
}

func copyMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
