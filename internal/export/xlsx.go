// Package export writes expense views to spreadsheet files.
package export

import (
	"fmt"
	"io"

	"bill-tracker/internal/report"

	"github.com/xuri/excelize/v2"
)

// Sheet names used in exported workbooks.
const (
	ExpensesSheet = "Expenses"
	SummarySheet  = "Summary"
)

var expenseHeader = []any{"ID", "Name", "Amount", "Due Date", "Category", "Paid"}

// WriteXLSX writes view as a workbook with an expenses sheet and a summary sheet.
func WriteXLSX(w io.Writer, view report.View) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", ExpensesSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := writeRow(f, ExpensesSheet, 1, expenseHeader); err != nil {
		return err
	}
	for i, e := range view.Expenses {
		var amount any = e.Amount.String()
		if d, ok := e.Amount.Decimal(); ok {
			amount = d.InexactFloat64()
		}
		row := []any{e.ID, e.Name, amount, e.DueDate, e.Category, e.Paid}
		if err := writeRow(f, ExpensesSheet, i+2, row); err != nil {
			return err
		}
	}

	if _, err := f.NewSheet(SummarySheet); err != nil {
		return fmt.Errorf("create summary sheet: %w", err)
	}
	sel := view.Selection
	rows := [][]any{
		{"Category filter", sel.Category},
		{"Month filter", sel.Month},
		{"Year filter", sel.Year},
		{},
		{"Total", view.Summary.Total.InexactFloat64()},
		{"Paid", view.Summary.Paid.InexactFloat64()},
		{"Unpaid", view.Summary.Unpaid.InexactFloat64()},
		{},
		{"Category", "Amount", "Count"},
	}
	for _, b := range view.Breakdown {
		rows = append(rows, []any{b.Name, b.Amount.InexactFloat64(), b.Count})
	}
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		if err := writeRow(f, SummarySheet, i+1, row); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write %s row %d: %w", sheet, row, err)
	}
	return nil
}
