package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/leadscan/internal/model"
	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
)

// MarkdownWriter outputs a run summary and results table in Markdown,
// for pasting into issues, wikis or chats.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{baseWriter: newBaseWriter(output)}
}

// Write outputs the run in Markdown format.
func (w *MarkdownWriter) Write(result *model.RunResult) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, result)
	w.writeStatistics(md, result.Stats)
	w.writeResults(md, result.Records)
	w.writeFailures(md, result.Records)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, result *model.RunResult) {
	md.H1("Lead Scan Results")
	md.PlainText("")

	query := result.Query
	if query == "" {
		query = "-"
	}
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Run ID", "`" + result.RunID + "`"},
			{"Query", query},
			{"Started", result.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Elapsed", result.Stats.Elapsed.Round(time.Second).String()},
		},
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeStatistics(md *markdown.Markdown, stats model.RunStatistics) {
	md.H2("Statistics")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Count"},
		Rows: [][]string{
			{"Sites processed", strconv.Itoa(stats.Processed) + "/" + strconv.Itoa(stats.Total)},
			{"Successful", strconv.Itoa(stats.Success)},
			{"Failed", strconv.Itoa(stats.Errors)},
			{"Skipped", strconv.Itoa(stats.Skipped)},
			{"Emails", strconv.Itoa(stats.TotalEmails)},
			{"Phones", strconv.Itoa(stats.TotalPhones)},
			{"Social links", strconv.Itoa(stats.TotalSocial)},
		},
	})
	md.PlainText("")

	if stats.Processed > 0 {
		chart := piechart.NewPieChart(
			io.Discard,
			piechart.WithTitle("Site Outcomes"),
			piechart.WithShowData(true),
		)
		if stats.Success > 0 {
			chart.LabelAndIntValue("Success", uint64(stats.Success))
		}
		if stats.Errors > 0 {
			chart.LabelAndIntValue("Error", uint64(stats.Errors))
		}
		if stats.Skipped > 0 {
			chart.LabelAndIntValue("Skipped", uint64(stats.Skipped))
		}
		md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
		md.PlainText("")
	}

	switch {
	case stats.Skipped > 0:
		md.Warningf("Run was cancelled: %d site(s) were not crawled.", stats.Skipped)
	case stats.Processed > 0 && stats.Errors == stats.Processed:
		md.Cautionf("All %d site(s) failed. Check the network or proxy settings.", stats.Errors)
	case stats.TotalEmails+stats.TotalPhones == 0:
		md.Note("No contacts were found.")
	default:
		md.Tip(fmt.Sprintf("Found %d email(s) and %d phone(s).", stats.TotalEmails, stats.TotalPhones))
	}
	md.PlainText("")
}

func (w *MarkdownWriter) writeResults(md *markdown.Markdown, records []*model.SiteRecord) {
	md.H2("Results")
	md.PlainText("")

	if len(records) == 0 {
		md.PlainText("No sites were crawled.")
		md.PlainText("")
		return
	}

	rows := make([][]string, 0, len(records))
	for _, r := range records {
		if !r.Success {
			continue
		}
		rows = append(rows, []string{
			strconv.Itoa(r.Index),
			escapeCell(truncateString(r.Title, 40)),
			r.Domain(),
			escapeCell(orDash(strings.Join(r.Emails, "<br>"))),
			escapeCell(orDash(strings.Join(r.Phones, "<br>"))),
			escapeCell(orDash(socialCell(r))),
		})
	}
	if len(rows) == 0 {
		md.PlainText("No site loaded successfully.")
		md.PlainText("")
		return
	}

	md.Table(markdown.TableSet{
		Header: []string{"#", "Title", "Site", "Emails", "Phones", "Social"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeFailures(md *markdown.Markdown, records []*model.SiteRecord) {
	var failed []string
	for _, r := range records {
		if !r.Success {
			failed = append(failed, "`"+r.URL+"`: "+r.ErrorReason)
		}
	}
	if len(failed) == 0 {
		return
	}

	md.H2("Failed Sites")
	md.PlainText("")
	md.BulletList(failed...)
	md.PlainText("")
}

func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Generated by [leadscan](https://github.com/nao1215/leadscan)*")
}

// socialCell lists found platforms as links in platform order.
func socialCell(r *model.SiteRecord) string {
	var links []string
	for _, p := range model.Platforms {
		if link := r.SocialLinks[p]; link != "" {
			links = append(links, "["+string(p)+"]("+link+")")
		}
	}
	return strings.Join(links, " ")
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// truncateString truncates s to maxLen runes with an ellipsis.
func truncateString(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}
