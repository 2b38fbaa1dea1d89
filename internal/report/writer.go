package report

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/leadscan/internal/model"
)

// ErrUnsupportedFormat is returned by NewWriter for unknown formats.
var ErrUnsupportedFormat = errors.New("unsupported export format")

// dateLayout is the timestamp format of tabular exports (dd.MM.yyyy HH:mm:ss).
const dateLayout = "02.01.2006 15:04:05"

// Writer defines the interface for result output.
type Writer interface {
	// Write outputs the run to the configured destination.
	// Returns the number of bytes written and any error encountered.
	Write(result *model.RunResult) (int, error)
}

// NewWriter returns the writer for a canonical export format
// (xlsx, csv, json or md).
func NewWriter(format string, output io.Writer) (Writer, error) {
	switch format {
	case "xlsx":
		return NewExcelWriter(output), nil
	case "csv":
		return NewCSVWriter(output), nil
	case "json":
		return NewJSONWriter(output, WithPrettyPrint()), nil
	case "md":
		return NewMarkdownWriter(output), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// MultiWriter writes to multiple Writers, e.g. an export file and a
// terminal summary.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the run to all configured Writers.
// Returns the total bytes written. Stops on first error encountered.
func (m *MultiWriter) Write(result *model.RunResult) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(result)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// columns is the header row shared by tabular exports.
func columns() []string {
	header := []string{"#", "Title", "URL", "Emails", "Phones"}
	for _, p := range model.Platforms {
		header = append(header, string(p))
	}
	return append(header, "Date", "Status")
}

// recordRow renders one record in column order. Multi-valued cells are
// joined with sep.
func recordRow(r *model.SiteRecord, sep string) []string {
	row := []string{
		strconv.Itoa(r.Index),
		r.Title,
		r.URL,
		strings.Join(r.Emails, sep),
		strings.Join(r.Phones, sep),
	}
	for _, p := range model.Platforms {
		row = append(row, r.SocialLinks[p])
	}
	return append(row, r.Timestamp.Format(dateLayout), r.StatusText())
}

// countingWriter counts bytes written through it.
type countingWriter struct {
	w io.Writer
	n int
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += n
	return n, err
}
