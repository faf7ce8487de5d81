package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"bill-tracker/internal/export"
	"bill-tracker/internal/ledger"
	applog "bill-tracker/internal/log"
	"bill-tracker/internal/models"
	"bill-tracker/internal/report"
)

// Handlers holds dependencies for HTTP handlers.
type Handlers struct {
	ledger *ledger.Ledger
	logger *applog.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(l *ledger.Ledger, logger *applog.Logger) *Handlers {
	if logger == nil {
		logger = applog.Nop()
	}
	return &Handlers{ledger: l, logger: logger.WithComponent(applog.ComponentHTTP)}
}

// CategoryDef defines the properties of a category.
type CategoryDef struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Icon  string `json:"icon"`
	Color string `json:"color"`
}

var categories = []CategoryDef{
	{"utilities", models.CategoryUtilities, "💡", "#fbbf24"},
	{"credit-card", models.CategoryCreditCard, "💳", "#f87171"},
	{"groceries", models.CategoryGroceries, "🛒", "#60a5fa"},
	{"rent-mortgage", models.CategoryRentMortgage, "🏠", "#818cf8"},
	{"transportation", models.CategoryTransportation, "🚌", "#a78bfa"},
	{"entertainment", models.CategoryEntertainment, "🎮", "#f472b6"},
	{"other", models.CategoryOther, "📦", "#94a3b8"},
}

// CategoryStyle defines the visual style for a category.
type CategoryStyle struct {
	Icon  string `json:"icon"`
	Color string `json:"color"`
}

func getCategoryStyle(category string) CategoryStyle {
	for _, c := range categories {
		if c.Name == category {
			return CategoryStyle{Icon: c.Icon, Color: c.Color}
		}
	}
	return CategoryStyle{Icon: "📦", Color: "#94a3b8"}
}

// ExpenseItem represents an expense in the list view.
type ExpenseItem struct {
	models.Expense
	CategoryStyle CategoryStyle `json:"style"`
	Overdue       bool          `json:"overdue"`
}

// ListViewModel is the body of the expense list response.
type ListViewModel struct {
	report.View
	Expenses []ExpenseItem `json:"expenses"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Categories lists the selectable categories.
func (h *Handlers) Categories(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, categories)
}

// ListExpenses returns the filtered expenses together with totals.
func (h *Handlers) ListExpenses(w http.ResponseWriter, r *http.Request) {
	view := report.Build(h.ledger.All(), selectionFromQuery(r))

	today := time.Now().UTC().Truncate(24 * time.Hour)
	items := make([]ExpenseItem, 0, len(view.Expenses))
	for _, e := range view.Expenses {
		due, _ := e.Due()
		items = append(items, ExpenseItem{
			Expense:       e,
			CategoryStyle: getCategoryStyle(e.Category),
			Overdue:       !e.Paid && due.Before(today),
		})
	}

	h.writeJSON(w, http.StatusOK, ListViewModel{View: view, Expenses: items})
}

// GetExpense returns a single expense, e.g. to prefill an edit form.
func (h *Handlers) GetExpense(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	e, err := h.ledger.Get(id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, e)
}

// CreateExpense handles the creation of a new expense.
func (h *Handlers) CreateExpense(w http.ResponseWriter, r *http.Request) {
	d, err := parseDraft(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	e := h.ledger.Add(r.Context(), d)
	w.Header().Set("Location", fmt.Sprintf("/expenses/%d", e.ID))
	h.writeJSON(w, http.StatusCreated, e)
}

// UpdateExpense handles the update of an existing expense.
func (h *Handlers) UpdateExpense(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	d, err := parseDraft(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	e, err := h.ledger.Update(r.Context(), id, d)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, e)
}

// DeleteExpense removes an expense. The client must pass confirm=true once
// the user has confirmed the deletion.
func (h *Handlers) DeleteExpense(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if confirmed, _ := strconv.ParseBool(r.URL.Query().Get("confirm")); !confirmed {
		h.writeJSON(w, http.StatusPreconditionRequired, ErrorResponse{Error: "Deletion must be confirmed."})
		return
	}
	h.ledger.Delete(r.Context(), id)
	w.WriteHeader(http.StatusNoContent)
}

// TogglePaid flips the paid flag of an expense.
func (h *Handlers) TogglePaid(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	e, err := h.ledger.TogglePaid(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, e)
}

// writeWorkbook renders exports; tests replace it to simulate failures.
var writeWorkbook = export.WriteXLSX

// Export sends the filtered view as an xlsx workbook. The workbook is
// rendered completely before any header is written.
func (h *Handlers) Export(w http.ResponseWriter, r *http.Request) {
	view := report.Build(h.ledger.All(), selectionFromQuery(r))

	var buf bytes.Buffer
	if err := writeWorkbook(&buf, view); err != nil {
		h.writeError(w, fmt.Errorf("rendering export: %w", err))
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="expenses.xlsx"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.ErrorContext(r.Context(), "export write failed", "error", err)
	}
}

func selectionFromQuery(r *http.Request) report.Selection {
	q := r.URL.Query()
	return report.Selection{
		Category: q.Get("category"),
		Month:    q.Get("month"),
		Year:     q.Get("year"),
	}.Normalize()
}

func parseDraft(r *http.Request) (models.Draft, error) {
	var in models.DraftInput
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			return models.Draft{}, &models.ValidationError{Message: "Invalid request body."}
		}
	} else {
		if err := r.ParseForm(); err != nil {
			return models.Draft{}, &models.ValidationError{Message: "Invalid form submission."}
		}
		in = models.DraftInput{
			Name:     r.FormValue("name"),
			Amount:   r.FormValue("amount"),
			DueDate:  r.FormValue("dueDate"),
			Category: r.FormValue("category"),
		}
	}
	return models.ParseDraft(in)
}

func (h *Handlers) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid expense id."})
		return 0, false
	}
	return id, true
}

func (h *Handlers) writeError(w http.ResponseWriter, err error) {
	var ve *models.ValidationError
	switch {
	case errors.As(err, &ve):
		h.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: ve.Message})
	case errors.Is(err, ledger.ErrNotFound):
		h.writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "Expense not found."})
	default:
		h.logger.Error("request failed", "error", err)
		h.writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "Internal server error"})
	}
}

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Warn("response encoding failed", "error", err)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// LogRequests logs method, path, status and duration of every request.
func (h *Handlers) LogRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		h.logger.InfoContext(r.Context(), "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds())
	})
}
