package fileio

import (
	"io"

	"github.com/pkg/errors"
	excelize "github.com/xuri/excelize/v2"

	"material-recon/internal/reconcile/model"
)

const (
	rowsSheet    = "Rows"
	summarySheet = "Summary"
)

var rowsHeader = []string{
	"Description", "PDF qty", "PDF unit", "Excel qty", "Excel unit", "Status", "Similarity %", "Difference",
}

// WriteReportXLSX пишет отчёт в книгу из двух листов: строки и сводка.
func WriteReportXLSX(w io.Writer, rep model.Report) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", rowsSheet); err != nil {
		return errors.Wrap(err, "rename sheet")
	}
	if err := f.SetSheetRow(rowsSheet, "A1", &rowsHeader); err != nil {
		return errors.Wrap(err, "write header")
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E2E8F0"}, Pattern: 1},
	})
	if err == nil {
		_ = f.SetRowStyle(rowsSheet, 1, 1, headerStyle)
	}

	for i, r := range rep.Rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		vals := []any{
			r.Description,
			optQty(r.PDFQuantity), r.PDFUnit,
			optQty(r.ExcelQuantity), r.ExcelUnit,
			string(r.Status),
			model.SimilarityPercent(r.Similarity),
			r.Difference,
		}
		if err := f.SetSheetRow(rowsSheet, cell, &vals); err != nil {
			return errors.Wrapf(err, "write row %d", i+1)
		}
	}
	_ = f.SetColWidth(rowsSheet, "A", "A", 48)

	if _, err := f.NewSheet(summarySheet); err != nil {
		return errors.Wrap(err, "add summary sheet")
	}
	s := rep.Summary
	summary := [][]any{
		{"Total", s.Total},
		{"Match", s.Match},
		{"Mismatch", s.Mismatch},
		{"Missing", s.Missing},
		{"Extra", s.Extra},
		{"Needs attention", s.NeedsAttention},
	}
	for i, row := range summary {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return errors.Wrap(err, "write summary")
		}
	}

	if err := f.Write(w); err != nil {
		return errors.Wrap(err, "write xlsx")
	}
	return nil
}

// пустая ячейка, если стороны нет
func optQty(q *float64) any {
	if q == nil {
		return nil
	}
	return *q
}
