package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/nao1215/leadscan/internal/model"
)

// SummaryWriter prints run statistics for the terminal.
type SummaryWriter struct {
	baseWriter

	// showFailures lists every failed site with its reason.
	showFailures bool
}

// SummaryWriterOption configures a SummaryWriter.
type SummaryWriterOption func(*SummaryWriter)

// WithFailures lists failed sites below the statistics.
func WithFailures(show bool) SummaryWriterOption {
	return func(w *SummaryWriter) {
		w.showFailures = show
	}
}

// NewSummaryWriter creates a SummaryWriter that outputs to the given writer.
func NewSummaryWriter(output io.Writer, opts ...SummaryWriterOption) *SummaryWriter {
	w := &SummaryWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the statistics of the run.
func (w *SummaryWriter) Write(result *model.RunResult) (int, error) {
	var sb strings.Builder
	s := result.Stats

	sb.WriteString("\nStatistics:\n")
	fmt.Fprintf(&sb, "├─ Sites processed: %d/%d\n", s.Processed, s.Total)
	fmt.Fprintf(&sb, "├─ Emails found:    %d\n", s.TotalEmails)
	fmt.Fprintf(&sb, "├─ Phones found:    %d\n", s.TotalPhones)
	fmt.Fprintf(&sb, "├─ Social links:    %d\n", s.TotalSocial)
	fmt.Fprintf(&sb, "├─ Successful:      %d\n", s.Success)
	fmt.Fprintf(&sb, "├─ Failed:          %d\n", s.Errors)
	if s.Skipped > 0 {
		fmt.Fprintf(&sb, "├─ Skipped:         %d\n", s.Skipped)
	}
	fmt.Fprintf(&sb, "└─ Elapsed:         %s\n", formatElapsed(s.Elapsed))

	if w.showFailures {
		w.writeFailures(&sb, result.Records)
	}
	sb.WriteString("\n")

	return io.WriteString(w.output, sb.String())
}

func (w *SummaryWriter) writeFailures(sb *strings.Builder, records []*model.SiteRecord) {
	header := false
	for _, r := range records {
		if r.Success || r.Skipped {
			continue
		}
		if !header {
			sb.WriteString("\nFailed sites:\n")
			header = true
		}
		fmt.Fprintf(sb, "  [%d] %s: %s\n", r.Index, r.URL, r.ErrorReason)
	}
}

// formatElapsed renders d as hh:mm:ss.
func formatElapsed(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	return fmt.Sprintf("%02d:%02d:%02d", h, m, d/time.Second)
}
