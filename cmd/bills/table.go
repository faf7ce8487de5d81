package main

import (
	"fmt"
	"io"

	"bill-tracker/internal/report"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

func printExpenses(w io.Writer, view report.View) {
	sel := view.Selection
	fmt.Fprintf(w, "Showing: category %s, month %s, year %s\n", sel.Category, sel.Month, sel.Year)

	if len(view.Expenses) == 0 {
		fmt.Fprintln(w, "No expenses found.")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"ID", "Name", "Due", "Category", "Status", "Amount"})

	for _, e := range view.Expenses {
		status := text.FgYellow.Sprint("UNPAID")
		if e.Paid {
			status = text.FgGreen.Sprint("PAID")
		}
		t.AppendRow(table.Row{e.ID, e.Name, e.DueDate, e.Category, status, e.Amount.String()})
	}

	s := view.Summary
	t.AppendSeparator()
	t.AppendFooter(table.Row{"", "", "", "", text.Bold.Sprint("Total"), text.Bold.Sprint(s.Total.StringFixed(2))})
	t.AppendFooter(table.Row{"", "", "", "", "Paid", s.Paid.StringFixed(2)})
	t.AppendFooter(table.Row{"", "", "", "", "Unpaid", s.Unpaid.StringFixed(2)})

	t.SetStyle(table.StyleRounded)
	t.Style().Format.Header = text.FormatDefault
	t.Style().Format.Footer = text.FormatDefault
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 6, Align: text.AlignRight, AlignFooter: text.AlignRight},
	})

	t.Render()
}

func printBreakdown(w io.Writer, view report.View) {
	total := view.Summary.Total

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Category", "Count", "Amount", "Share"})
	for _, b := range view.Breakdown {
		t.AppendRow(table.Row{b.Name, b.Count, b.Amount.StringFixed(2), fmt.Sprintf("%.1f%%", report.Percentage(b.Amount, total))})
	}

	t.SetStyle(table.StyleRounded)
	t.Style().Format.Header = text.FormatDefault
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
	})

	t.Render()
}
