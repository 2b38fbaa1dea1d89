package report

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/nao1215/leadscan/internal/model"
)

// utf8BOM makes Excel open the file as UTF-8 instead of the locale's code page.
const utf8BOM = "\ufeff"

// CSVWriter outputs one semicolon separated row per site.
type CSVWriter struct {
	baseWriter
}

// NewCSVWriter creates a CSVWriter that outputs to the given writer.
func NewCSVWriter(output io.Writer) *CSVWriter {
	return &CSVWriter{baseWriter: newBaseWriter(output)}
}

// Write outputs the records of the run.
func (w *CSVWriter) Write(result *model.RunResult) (int, error) {
	out := &countingWriter{w: w.output}
	if _, err := io.WriteString(out, utf8BOM); err != nil {
		return out.n, err
	}

	cw := csv.NewWriter(out)
	cw.Comma = ';'
	cw.UseCRLF = true

	if err := cw.Write(columns()); err != nil {
		return out.n, fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, r := range result.Records {
		if err := cw.Write(recordRow(r, ", ")); err != nil {
			return out.n, fmt.Errorf("failed to write CSV row %d: %w", r.Index, err)
		}
	}
	cw.Flush()
	return out.n, cw.Error()
}
