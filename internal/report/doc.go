// Package report writes crawl results.
//
// Writers for the export formats:
//   - ExcelWriter: xlsx workbook, one row per site
//   - CSVWriter: semicolon separated, UTF-8 with BOM so spreadsheet apps
//     pick the right encoding
//   - JSONWriter: the complete run as JSON
//   - MarkdownWriter: a shareable summary with a results table
//
// SummaryWriter prints run statistics to the terminal. FileName and
// CleanupOldFiles manage the export directory.
package report
