package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
)

// User-facing validation messages.
const (
	MsgFieldsRequired  = "All fields are required."
	MsgAmountPositive  = "Amount must be greater than zero."
	MsgInvalidDueDate  = "Due date must be a valid date."
	MsgUnknownCategory = "Category must be one of the listed categories."
)

// ErrValidation is wrapped by every ValidationError.
var ErrValidation = errors.New("validation failed")

// ValidationError carries a message that can be shown to the user as is.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// DraftInput is the raw form submission for creating or editing an expense.
type DraftInput struct {
	Name     string `json:"name"`
	Amount   string `json:"amount"`
	DueDate  string `json:"dueDate"`
	Category string `json:"category"`
}

// UnmarshalJSON accepts amount as a JSON string or number, the two forms
// an Expense is served in. A null or missing amount decodes as empty.
func (in *DraftInput) UnmarshalJSON(b []byte) error {
	var raw struct {
		Name     string          `json:"name"`
		Amount   json.RawMessage `json:"amount"`
		DueDate  string          `json:"dueDate"`
		Category string          `json:"category"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	var amount Amount
	if len(raw.Amount) > 0 && !bytes.Equal(raw.Amount, []byte("null")) {
		if err := amount.UnmarshalJSON(raw.Amount); err != nil {
			return err
		}
	}
	*in = DraftInput{
		Name:     raw.Name,
		Amount:   amount.String(),
		DueDate:  raw.DueDate,
		Category: raw.Category,
	}
	return nil
}

// Draft is a validated set of mutable expense fields.
type Draft struct {
	Name     string
	Amount   Amount
	DueDate  string
	Category string
}

// ParseDraft validates raw input. It never returns a partially filled draft.
func ParseDraft(in DraftInput) (Draft, error) {
	name := strings.TrimSpace(in.Name)
	amount := strings.TrimSpace(in.Amount)
	due := strings.TrimSpace(in.DueDate)
	category := strings.TrimSpace(in.Category)

	if name == "" || amount == "" || due == "" || category == "" {
		return Draft{}, &ValidationError{Message: MsgFieldsRequired}
	}

	a := NewAmount(amount)
	if d, ok := a.Decimal(); !ok || !d.IsPositive() {
		return Draft{}, &ValidationError{Field: "amount", Message: MsgAmountPositive}
	}
	if _, ok := ParseDate(due); !ok {
		return Draft{}, &ValidationError{Field: "dueDate", Message: MsgInvalidDueDate}
	}
	if !IsCategory(category) {
		return Draft{}, &ValidationError{Field: "category", Message: MsgUnknownCategory}
	}

	return Draft{Name: name, Amount: a, DueDate: due, Category: category}, nil
}

// Input converts an expense back into form input, e.g. to prefill an edit.
func (e Expense) Input() DraftInput {
	return DraftInput{
		Name:     e.Name,
		Amount:   e.Amount.String(),
		DueDate:  e.DueDate,
		Category: e.Category,
	}
}
