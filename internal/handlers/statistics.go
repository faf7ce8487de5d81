package handlers

import (
	"net/http"

	"bill-tracker/internal/report"

	"github.com/shopspring/decimal"
)

// StatsCategoryItem represents a category with its spending statistics.
type StatsCategoryItem struct {
	Category      string          `json:"category"`
	Total         decimal.Decimal `json:"total"`
	Count         int             `json:"count"`
	Percentage    float64         `json:"percentage"`
	CategoryStyle CategoryStyle   `json:"style"`
}

// StatsViewModel is the body of the statistics response.
type StatsViewModel struct {
	Selection  report.Selection    `json:"selection"`
	Total      decimal.Decimal     `json:"total"`
	Paid       decimal.Decimal     `json:"paidTotal"`
	Unpaid     decimal.Decimal     `json:"unpaidTotal"`
	Categories []StatsCategoryItem `json:"categories"`
	Chart      []report.Slice      `json:"chart"`
}

// Statistics returns the category breakdown of the filtered expenses.
func (h *Handlers) Statistics(w http.ResponseWriter, r *http.Request) {
	view := report.Build(h.ledger.All(), selectionFromQuery(r))

	items := make([]StatsCategoryItem, 0, len(view.Breakdown))
	for _, b := range view.Breakdown {
		items = append(items, StatsCategoryItem{
			Category:      b.Name,
			Total:         b.Amount,
			Count:         b.Count,
			Percentage:    report.Percentage(b.Amount, view.Summary.Total),
			CategoryStyle: getCategoryStyle(b.Name),
		})
	}

	h.writeJSON(w, http.StatusOK, StatsViewModel{
		Selection:  view.Selection,
		Total:      view.Summary.Total,
		Paid:       view.Summary.Paid,
		Unpaid:     view.Summary.Unpaid,
		Categories: items,
		Chart:      view.Chart,
	})
}
