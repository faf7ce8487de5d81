package models

import (
	"slices"
	"time"
)

// Category labels an expense. The set is fixed.
const (
	CategoryUtilities      = "Utilities"
	CategoryCreditCard     = "Credit Card"
	CategoryGroceries      = "Groceries"
	CategoryRentMortgage   = "Rent/Mortgage"
	CategoryTransportation = "Transportation"
	CategoryEntertainment  = "Entertainment"
	CategoryOther          = "Other"
)

// Categories lists every selectable category in display order.
var Categories = []string{
	CategoryUtilities,
	CategoryCreditCard,
	CategoryGroceries,
	CategoryRentMortgage,
	CategoryTransportation,
	CategoryEntertainment,
	CategoryOther,
}

// IsCategory reports whether name is one of the known categories.
func IsCategory(name string) bool {
	return slices.Contains(Categories, name)
}

// DateLayout is the ISO calendar date format used for due dates.
const DateLayout = "2006-01-02"

// Expense represents a tracked bill or one-off payment.
type Expense struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Amount   Amount `json:"amount"`
	DueDate  string `json:"dueDate"`
	Category string `json:"category"`
	Paid     bool   `json:"paid"`
}

// Due parses the due date. Calendar fields are in UTC.
func (e Expense) Due() (time.Time, bool) {
	return ParseDate(e.DueDate)
}

// Apply replaces every mutable field with the draft's values.
func (e *Expense) Apply(d Draft) {
	e.Name = d.Name
	e.Amount = d.Amount
	e.DueDate = d.DueDate
	e.Category = d.Category
}

// ParseDate accepts a plain ISO date or a full RFC 3339 timestamp.
func ParseDate(s string) (time.Time, bool) {
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), true
	}
	return time.Time{}, false
}
