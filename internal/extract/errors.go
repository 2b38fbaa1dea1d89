package extract

import "errors"

var (
	// ErrInvalidPattern is returned when a configured regular expression does not compile.
	ErrInvalidPattern = errors.New("invalid extraction pattern")

	// ErrEmptyPattern is returned when a required pattern is empty.
	ErrEmptyPattern = errors.New("extraction pattern is empty")

	// ErrUnknownPlatform is returned for social patterns keyed by an unsupported platform.
	ErrUnknownPlatform = errors.New("unknown social platform")
)
