// Package config provides configuration structures and utilities for leadscan.
// Values start from built-in defaults, are overridden by an optional YAML
// file and finally by command line flags.
package config
