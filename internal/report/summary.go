package report

import (
	"bill-tracker/internal/models"

	"github.com/shopspring/decimal"
)

// Summary holds the totals of an expense subset. Non-numeric amounts count
// as zero.
type Summary struct {
	Total     decimal.Decimal `json:"total"`
	Paid      decimal.Decimal `json:"paidTotal"`
	Unpaid    decimal.Decimal `json:"unpaidTotal"`
	Count     int             `json:"count"`
	PaidCount int             `json:"paidCount"`
}

// Summarize totals expenses. Unpaid is always exactly Total - Paid.
func Summarize(expenses []models.Expense) Summary {
	s := Summary{Total: decimal.Zero, Paid: decimal.Zero}
	for _, e := range expenses {
		v := e.Amount.Value()
		s.Total = s.Total.Add(v)
		s.Count++
		if e.Paid {
			s.Paid = s.Paid.Add(v)
			s.PaidCount++
		}
	}
	s.Unpaid = s.Total.Sub(s.Paid)
	return s
}

// CategoryAmount is one bucket of a category breakdown.
type CategoryAmount struct {
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
	Count  int             `json:"count"`
}

// Breakdown sums amounts per category in first-seen order. Expenses with a
// non-numeric amount are skipped entirely.
func Breakdown(expenses []models.Expense) []CategoryAmount {
	out := make([]CategoryAmount, 0)
	index := make(map[string]int)
	for _, e := range expenses {
		v, ok := e.Amount.Decimal()
		if !ok {
			continue
		}
		i, seen := index[e.Category]
		if !seen {
			i = len(out)
			index[e.Category] = i
			out = append(out, CategoryAmount{Name: e.Category, Amount: decimal.Zero})
		}
		out[i].Amount = out[i].Amount.Add(v)
		out[i].Count++
	}
	return out
}

// Slice is a chart segment.
type Slice struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// ChartData converts a breakdown into chart segments.
func ChartData(breakdown []CategoryAmount) []Slice {
	out := make([]Slice, 0, len(breakdown))
	for _, b := range breakdown {
		out = append(out, Slice{Name: b.Name, Value: b.Amount.InexactFloat64()})
	}
	return out
}

// Percentage returns part as a share of total in percent, or zero for an
// empty total.
func Percentage(part, total decimal.Decimal) float64 {
	if !total.IsPositive() {
		return 0
	}
	return part.Div(total).Mul(decimal.NewFromInt(100)).Round(2).InexactFloat64()
}
