// Package report derives filtered views and totals from an expense
// collection. Everything is recomputed from scratch on each call.
package report

import (
	"slices"
	"sort"
	"strconv"
	"strings"

	"bill-tracker/internal/models"
)

// All is the filter value that matches everything.
const All = "All"

// Selection is the (category, month, year) filter triple. Month is
// zero-indexed: "0" is January.
type Selection struct {
	Category string `json:"category"`
	Month    string `json:"month"`
	Year     string `json:"year"`
}

// DefaultSelection matches every expense.
func DefaultSelection() Selection {
	return Selection{Category: All, Month: All, Year: All}
}

// Normalize replaces empty fields with All.
func (s Selection) Normalize() Selection {
	if strings.TrimSpace(s.Category) == "" {
		s.Category = All
	}
	if strings.TrimSpace(s.Month) == "" {
		s.Month = All
	}
	if strings.TrimSpace(s.Year) == "" {
		s.Year = All
	}
	return s
}

// Matches reports whether e passes every predicate of the selection.
// Expenses whose due date does not parse never match.
func (s Selection) Matches(e models.Expense) bool {
	due, ok := e.Due()
	if !ok {
		return false
	}
	if s.Category != All && e.Category != s.Category {
		return false
	}
	if s.Year != All && !numberEquals(s.Year, due.Year()) {
		return false
	}
	if s.Month != All && !numberEquals(s.Month, int(due.Month())-1) {
		return false
	}
	return true
}

func numberEquals(filter string, v int) bool {
	n, err := strconv.Atoi(strings.TrimSpace(filter))
	return err == nil && n == v
}

// Filter returns the expenses matching sel, keeping their relative order.
func Filter(expenses []models.Expense, sel Selection) []models.Expense {
	sel = sel.Normalize()
	out := make([]models.Expense, 0, len(expenses))
	for _, e := range expenses {
		if sel.Matches(e) {
			out = append(out, e)
		}
	}
	return out
}

// SortByDueDate sorts in place, earliest due date first. Ties keep their
// order and unparseable dates go last.
func SortByDueDate(expenses []models.Expense) {
	sort.SliceStable(expenses, func(i, j int) bool {
		a, okA := expenses[i].Due()
		b, okB := expenses[j].Due()
		if okA != okB {
			return okA
		}
		return a.Before(b)
	})
}

// AvailableYears lists the distinct due-date years of the collection,
// newest first, prefixed with All.
func AvailableYears(expenses []models.Expense) []string {
	var years []int
	for _, e := range expenses {
		if due, ok := e.Due(); ok && !slices.Contains(years, due.Year()) {
			years = append(years, due.Year())
		}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(years)))

	out := make([]string, 0, len(years)+1)
	out = append(out, All)
	for _, y := range years {
		out = append(out, strconv.Itoa(y))
	}
	return out
}
