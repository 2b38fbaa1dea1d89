package report

import (
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/nao1215/leadscan/internal/model"
	"github.com/xuri/excelize/v2"
)

// SheetName is the worksheet holding the results.
const SheetName = "Results"

// maxColumnWidth caps auto-sized columns so long URLs stay readable.
const maxColumnWidth = 50

// Status cell colors.
const (
	colorError   = "FF0000"
	colorContact = "008000"
)

// ExcelWriter outputs an xlsx workbook with one row per site.
// Failed sites get a red status cell, sites with contacts a green one.
type ExcelWriter struct {
	baseWriter
}

// NewExcelWriter creates an ExcelWriter that outputs to the given writer.
func NewExcelWriter(output io.Writer) *ExcelWriter {
	return &ExcelWriter{baseWriter: newBaseWriter(output)}
}

// Write builds the workbook and writes it to the output.
func (w *ExcelWriter) Write(result *model.RunResult) (int, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return 0, err
	}

	header := columns()
	widths := make([]int, len(header))
	if err := setRow(f, 1, header, widths); err != nil {
		return 0, err
	}
	if err := styleHeader(f, len(header)); err != nil {
		return 0, err
	}

	styles, err := newStatusStyles(f)
	if err != nil {
		return 0, err
	}

	statusCol := len(header)
	for i, r := range result.Records {
		row := i + 2
		if err := setRow(f, row, recordRow(r, "; "), widths); err != nil {
			return 0, err
		}
		// Index as a number so the column sorts numerically.
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return 0, err
		}
		if err := f.SetCellValue(SheetName, cell, r.Index); err != nil {
			return 0, err
		}
		if style, ok := styles.forRecord(r); ok {
			cell, err := excelize.CoordinatesToCellName(statusCol, row)
			if err != nil {
				return 0, err
			}
			if err := f.SetCellStyle(SheetName, cell, cell, style); err != nil {
				return 0, err
			}
		}
	}

	for i, width := range widths {
		name, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return 0, err
		}
		if err := f.SetColWidth(SheetName, name, name, float64(min(width+2, maxColumnWidth))); err != nil {
			return 0, err
		}
	}

	n, err := f.WriteTo(w.output)
	if err != nil {
		return int(n), fmt.Errorf("failed to write workbook: %w", err)
	}
	return int(n), nil
}

// setRow writes values into row and widens widths to fit them.
func setRow(f *excelize.File, row int, values []string, widths []int) error {
	for i, v := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(SheetName, cell, v); err != nil {
			return err
		}
		if n := utf8.RuneCountInString(v); n > widths[i] {
			widths[i] = n
		}
	}
	return nil
}

func styleHeader(f *excelize.File, cols int) error {
	style, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"ADD8E6"}},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(cols, 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetName, "A1", last, style); err != nil {
		return err
	}
	return f.SetPanes(SheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

type statusStyles struct {
	failed  int
	contact int
}

func newStatusStyles(f *excelize.File) (statusStyles, error) {
	failed, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Color: colorError}})
	if err != nil {
		return statusStyles{}, err
	}
	contact, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Color: colorContact}})
	if err != nil {
		return statusStyles{}, err
	}
	return statusStyles{failed: failed, contact: contact}, nil
}

func (s statusStyles) forRecord(r *model.SiteRecord) (int, bool) {
	switch {
	case !r.Success:
		return s.failed, true
	case len(r.Emails) > 0 || len(r.Phones) > 0:
		return s.contact, true
	default:
		return 0, false
	}
}
