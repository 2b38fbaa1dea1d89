package config

import "errors"

// Configuration validation errors returned by Config.Validate.
var (
	// ErrNoTarget is returned when neither seed URLs nor a URL file is given.
	ErrNoTarget = errors.New("no target specified: provide URLs or use --urls")

	// ErrInvalidTimeout is returned when the timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidDepth is returned when the depth is outside 1..MaxDepth.
	ErrInvalidDepth = errors.New("invalid depth: must be between 1 and 5")

	// ErrInvalidConcurrency is returned when the number of threads is not positive.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be positive")

	// ErrInvalidCrawlDelay is returned when the crawl delay is negative.
	ErrInvalidCrawlDelay = errors.New("invalid crawl delay: must be non-negative")

	// ErrInvalidSiteDelay is returned when the site delay is negative.
	ErrInvalidSiteDelay = errors.New("invalid site delay: must be non-negative")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrInvalidRateLimit is returned when the request rate is negative.
	ErrInvalidRateLimit = errors.New("invalid requests per second: must be non-negative")

	// ErrNoEmailPattern is returned when the email pattern is empty.
	ErrNoEmailPattern = errors.New("email pattern must not be empty")

	// ErrUnsupportedFormat is returned for unknown export formats.
	ErrUnsupportedFormat = errors.New("unsupported export format: use xlsx, csv, json or md")

	// ErrInvalidKeepDays is returned when keep_days is negative.
	ErrInvalidKeepDays = errors.New("invalid keep days: must be non-negative")

	// ErrUnknownPlatform is returned for social patterns of unsupported platforms.
	ErrUnknownPlatform = errors.New("unknown social platform")
)
