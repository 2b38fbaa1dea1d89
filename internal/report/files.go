package report

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// fileDateLayout is the {date} placeholder format (ddMMyyyy_HHmmss).
const fileDateLayout = "02012006_150405"

// maxQueryLength caps the {query} placeholder in runes.
const maxQueryLength = 50

// exportExtensions are the files CleanupOldFiles may remove.
var exportExtensions = map[string]bool{
	".xlsx": true,
	".csv":  true,
	".json": true,
	".md":   true,
}

// FileName builds the export path from a template with {date} and
// {query} placeholders, e.g. "results_{date}_{query}". The format's
// extension is appended when the template does not end with it.
func FileName(template, query, format, dir string, now time.Time) string {
	name := strings.ReplaceAll(template, "{date}", now.Format(fileDateLayout))
	name = strings.ReplaceAll(name, "{query}", sanitizeFileName(query))
	if ext := "." + format; !strings.HasSuffix(name, ext) {
		name += ext
	}
	return filepath.Join(dir, name)
}

// sanitizeFileName replaces characters that are invalid in file names on
// common platforms with '_'.
func sanitizeFileName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "query"
	}

	s = strings.Map(func(r rune) rune {
		switch {
		case r < 0x20:
			return '_'
		case strings.ContainsRune(`<>:"/\|?*`, r):
			return '_'
		default:
			return r
		}
	}, s)

	if runes := []rune(s); len(runes) > maxQueryLength {
		s = string(runes[:maxQueryLength])
	}
	return s
}

// CleanupOldFiles removes export files in dir last modified more than
// keepDays ago. It returns the number of files removed. A missing
// directory is not an error, and files that cannot be removed are logged
// and skipped.
func CleanupOldFiles(dir string, keepDays int, now time.Time, logger *slog.Logger) (int, error) {
	if logger == nil {
		logger = slog.Default()
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read output directory: %w", err)
	}

	cutoff := now.AddDate(0, 0, -keepDays)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || !exportExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			logger.Warn("failed to stat export file", "file", entry.Name(), "error", err)
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(dir, entry.Name())); err != nil {
			logger.Warn("failed to remove old export file", "file", entry.Name(), "error", err)
			continue
		}
		logger.Info("removed old export file", "file", entry.Name(), "size", info.Size())
		removed++
	}
	return removed, nil
}
