package report

import "bill-tracker/internal/models"

// View is everything a screen needs to render one filter selection.
type View struct {
	Selection      Selection        `json:"selection"`
	Expenses       []models.Expense `json:"expenses"`
	Summary        Summary          `json:"summary"`
	AvailableYears []string         `json:"availableYears"`
	Breakdown      []CategoryAmount `json:"breakdown"`
	Chart          []Slice          `json:"chart"`
}

// Build filters all by sel and derives totals and the breakdown from the
// filtered subset. Available years come from the unfiltered collection.
func Build(all []models.Expense, sel Selection) View {
	sel = sel.Normalize()
	filtered := Filter(all, sel)
	SortByDueDate(filtered)

	breakdown := Breakdown(filtered)
	return View{
		Selection:      sel,
		Expenses:       filtered,
		Summary:        Summarize(filtered),
		AvailableYears: AvailableYears(all),
		Breakdown:      breakdown,
		Chart:          ChartData(breakdown),
	}
}
