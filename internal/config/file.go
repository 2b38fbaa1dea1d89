package config

import "time"

// File represents the structure of the leadscan YAML configuration file.
// Zero values mean "not set" and leave the current configuration untouched.
type File struct {
	Crawler   CrawlerSection   `yaml:"crawler,omitempty"`
	HTTP      HTTPSection      `yaml:"http,omitempty"`
	Extractor ExtractorSection `yaml:"extractor,omitempty"`
	Export    ExportSection    `yaml:"export,omitempty"`
	Database  DatabaseSection  `yaml:"database,omitempty"`
}

// CrawlerSection controls how sites are scheduled and crawled.
type CrawlerSection struct {
	Depth       int           `yaml:"depth,omitempty"`
	Threads     int           `yaml:"threads,omitempty"`
	CrawlDelay  time.Duration `yaml:"crawl_delay,omitempty"`
	SiteDelay   time.Duration `yaml:"site_delay,omitempty"`
	MaxBodySize int64         `yaml:"max_body_size,omitempty"`

	// IgnorePatterns are URL path globs that are never fetched.
	IgnorePatterns []string `yaml:"ignore_patterns,omitempty"`
}

// HTTPSection holds request settings.
type HTTPSection struct {
	Timeout            time.Duration     `yaml:"timeout,omitempty"`
	UserAgent          string            `yaml:"user_agent,omitempty"`
	Proxy              string            `yaml:"proxy,omitempty"`
	RequestsPerSecond  float64           `yaml:"requests_per_second,omitempty"`
	InsecureSkipVerify *bool             `yaml:"insecure_skip_verify,omitempty"`
	Cookie             string            `yaml:"cookie,omitempty"`
	Headers            map[string]string `yaml:"headers,omitempty"`
}

// ExtractorSection holds the extraction patterns.
type ExtractorSection struct {
	EmailPattern  string   `yaml:"email_pattern,omitempty"`
	PhonePatterns []string `yaml:"phone_patterns,omitempty"`
	ContactHints  []string `yaml:"contact_pages,omitempty"`

	// Social maps platform names to pipe-delimited domains, e.g.
	// Telegram: "t.me|telegram.me". Listed platforms replace the defaults,
	// an empty value disables the platform.
	Social map[string]string `yaml:"social,omitempty"`
}

// ExportSection controls result files.
type ExportSection struct {
	Format           string `yaml:"format,omitempty"`
	OutputDir        string `yaml:"output_dir,omitempty"`
	FilenameTemplate string `yaml:"filename_template,omitempty"`
	Cleanup          *bool  `yaml:"cleanup,omitempty"`
	KeepDays         int    `yaml:"keep_days,omitempty"`
}

// DatabaseSection controls the run history.
type DatabaseSection struct {
	Enabled *bool  `yaml:"enabled,omitempty"`
	Dir     string `yaml:"dir,omitempty"`
}

// Apply overrides cfg with every value set in the file.
func (cf *File) Apply(cfg *Config) {
	c := cf.Crawler
	setInt(&cfg.Depth, c.Depth)
	setInt(&cfg.Concurrency, c.Threads)
	setDuration(&cfg.CrawlDelay, c.CrawlDelay)
	setDuration(&cfg.SiteDelay, c.SiteDelay)
	if c.MaxBodySize != 0 {
		cfg.MaxBodySize = c.MaxBodySize
	}
	if len(c.IgnorePatterns) > 0 {
		cfg.IgnorePatterns = c.IgnorePatterns
	}

	h := cf.HTTP
	setDuration(&cfg.Timeout, h.Timeout)
	setString(&cfg.UserAgent, h.UserAgent)
	setString(&cfg.ProxyURL, h.Proxy)
	if h.RequestsPerSecond != 0 {
		cfg.RequestsPerSecond = h.RequestsPerSecond
	}
	setBool(&cfg.InsecureSkipVerify, h.InsecureSkipVerify)
	setString(&cfg.Cookie, h.Cookie)
	if len(h.Headers) > 0 {
		if cfg.Headers == nil {
			cfg.Headers = make(map[string]string, len(h.Headers))
		}
		for k, v := range h.Headers {
			cfg.Headers[k] = v
		}
	}

	e := cf.Extractor
	setString(&cfg.EmailPattern, e.EmailPattern)
	if len(e.PhonePatterns) > 0 {
		cfg.PhonePatterns = e.PhonePatterns
	}
	if len(e.ContactHints) > 0 {
		cfg.ContactHints = e.ContactHints
	}
	if len(e.Social) > 0 {
		if cfg.SocialPatterns == nil {
			cfg.SocialPatterns = make(map[string]string, len(e.Social))
		}
		for name, pattern := range e.Social {
			cfg.SocialPatterns[name] = pattern
		}
	}

	x := cf.Export
	setString(&cfg.Format, x.Format)
	setString(&cfg.OutputDir, x.OutputDir)
	setString(&cfg.FilenameTemplate, x.FilenameTemplate)
	setBool(&cfg.CleanupEnabled, x.Cleanup)
	setInt(&cfg.KeepDays, x.KeepDays)

	setBool(&cfg.SaveToDB, cf.Database.Enabled)
	setString(&cfg.DBDir, cf.Database.Dir)
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v time.Duration) {
	if v != 0 {
		*dst = v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}
