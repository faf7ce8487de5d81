package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"bill-tracker/internal/ledger"
	"bill-tracker/internal/models"
	"bill-tracker/internal/report"
	"bill-tracker/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/xuri/excelize/v2"
)

// HandlersTestSuite drives the handlers through a mux like the server's
type HandlersTestSuite struct {
	suite.Suite
	kv     *storage.MemoryKV
	ledger *ledger.Ledger
	mux    *http.ServeMux
}

func (suite *HandlersTestSuite) SetupTest() {
	suite.kv = storage.NewMemoryKV()
	suite.load()
}

// load rebuilds the ledger and routes from whatever the store holds.
func (suite *HandlersTestSuite) load() {
	store := storage.NewExpenseStore(suite.kv, "", nil)
	suite.ledger = ledger.New(context.Background(), store)
	h := NewHandlers(suite.ledger, nil)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /categories", h.Categories)
	mux.HandleFunc("GET /expenses", h.ListExpenses)
	mux.HandleFunc("POST /expenses", h.CreateExpense)
	mux.HandleFunc("GET /expenses/{id}", h.GetExpense)
	mux.HandleFunc("PUT /expenses/{id}", h.UpdateExpense)
	mux.HandleFunc("DELETE /expenses/{id}", h.DeleteExpense)
	mux.HandleFunc("POST /expenses/{id}/toggle", h.TogglePaid)
	mux.HandleFunc("GET /statistics", h.Statistics)
	mux.HandleFunc("GET /export.xlsx", h.Export)
	suite.mux = mux
}

func (suite *HandlersTestSuite) do(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	suite.mux.ServeHTTP(w, req)
	return w
}

func (suite *HandlersTestSuite) create(name, amount, due, category string) models.Expense {
	body := fmt.Sprintf(`{"name":%q,"amount":%q,"dueDate":%q,"category":%q}`, name, amount, due, category)
	w := suite.do("POST", "/expenses", body)
	require.Equal(suite.T(), http.StatusCreated, w.Code, w.Body.String())

	var e models.Expense
	require.NoError(suite.T(), json.Unmarshal(w.Body.Bytes(), &e))
	return e
}

type listBody struct {
	Expenses       []ExpenseItem `json:"expenses"`
	AvailableYears []string      `json:"availableYears"`
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func (suite *HandlersTestSuite) TestCreateExpense() {
	e := suite.create("Rent", "1000", "2025-01-01", models.CategoryRentMortgage)
	assert.False(suite.T(), e.Paid)
	assert.Equal(suite.T(), 1, suite.ledger.Len())

	list := decode[map[string]any](suite.T(), suite.do("GET", "/expenses", ""))
	summary := list["summary"].(map[string]any)
	assert.Equal(suite.T(), "1000", summary["total"])
	assert.Equal(suite.T(), "0", summary["paidTotal"])
}

func (suite *HandlersTestSuite) TestCreateExpenseFromForm() {
	form := url.Values{"name": {"Power"}, "amount": {"42"}, "dueDate": {"2025-02-01"}, "category": {models.CategoryUtilities}}
	req := httptest.NewRequest("POST", "/expenses", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	suite.mux.ServeHTTP(w, req)

	assert.Equal(suite.T(), http.StatusCreated, w.Code)
	assert.NotEmpty(suite.T(), w.Header().Get("Location"))
}

func (suite *HandlersTestSuite) TestCreateExpenseValidation() {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"negative amount", `{"name":"x","amount":"-5","dueDate":"2025-01-01","category":"Other"}`, models.MsgAmountPositive},
		{"missing name", `{"amount":"5","dueDate":"2025-01-01","category":"Other"}`, models.MsgFieldsRequired},
		{"broken body", `{`, "Invalid request body."},
	}
	for _, tt := range tests {
		suite.Run(tt.name, func() {
			w := suite.do("POST", "/expenses", tt.body)
			assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
			assert.Equal(suite.T(), tt.want, decode[ErrorResponse](suite.T(), w).Error)
		})
	}
	assert.Zero(suite.T(), suite.ledger.Len())
}

func (suite *HandlersTestSuite) TestListExpensesFilters() {
	suite.create("A", "10", "2025-03-01", models.CategoryGroceries)
	suite.create("B", "20", "2024-11-01", models.CategoryGroceries)

	w := suite.do("GET", "/expenses?year=2025", "")
	require.Equal(suite.T(), http.StatusOK, w.Code)

	body := decode[listBody](suite.T(), w)

	require.Len(suite.T(), body.Expenses, 1)
	assert.Equal(suite.T(), "A", body.Expenses[0].Name)
	assert.Equal(suite.T(), "🛒", body.Expenses[0].CategoryStyle.Icon)
	assert.True(suite.T(), body.Expenses[0].Overdue)
	assert.Equal(suite.T(), []string{"All", "2025", "2024"}, body.AvailableYears)
}

func (suite *HandlersTestSuite) TestUpdateExpense() {
	e := suite.create("Rent", "1000", "2025-01-01", models.CategoryRentMortgage)

	w := suite.do("PUT", fmt.Sprintf("/expenses/%d", e.ID), `{"name":"Rent","amount":"1100","dueDate":"2025-01-01","category":"Rent/Mortgage"}`)
	require.Equal(suite.T(), http.StatusOK, w.Code)
	assert.Equal(suite.T(), "1100", decode[models.Expense](suite.T(), w).Amount.String())

	w = suite.do("PUT", "/expenses/999", `{"name":"Rent","amount":"1","dueDate":"2025-01-01","category":"Other"}`)
	assert.Equal(suite.T(), http.StatusNotFound, w.Code)

	w = suite.do("PUT", "/expenses/abc", `{}`)
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
}

func (suite *HandlersTestSuite) TestCreateExpenseNumberAmount() {
	w := suite.do("POST", "/expenses", `{"name":"Rent","amount":1000,"dueDate":"2025-01-01","category":"Rent/Mortgage"}`)
	require.Equal(suite.T(), http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(suite.T(), "1000", decode[models.Expense](suite.T(), w).Amount.String())
}

func (suite *HandlersTestSuite) TestUpdateEchoesNumberAmount() {
	blob := `[{"id":7,"name":"Power","amount":42.5,"dueDate":"2025-03-01","category":"Utilities","paid":false}]`
	require.NoError(suite.T(), suite.kv.Set(context.Background(), storage.DefaultKey, []byte(blob)))
	suite.load()

	w := suite.do("GET", "/expenses/7", "")
	require.Equal(suite.T(), http.StatusOK, w.Code)
	assert.Contains(suite.T(), w.Body.String(), `"amount":42.5`)

	w = suite.do("PUT", "/expenses/7", w.Body.String())
	require.Equal(suite.T(), http.StatusOK, w.Code, w.Body.String())
	got := decode[models.Expense](suite.T(), w)
	assert.Equal(suite.T(), "42.5", got.Amount.String())
	assert.Equal(suite.T(), "Power", got.Name)
}

func (suite *HandlersTestSuite) TestGetExpense() {
	e := suite.create("Rent", "1000", "2025-01-01", models.CategoryRentMortgage)

	w := suite.do("GET", fmt.Sprintf("/expenses/%d", e.ID), "")
	require.Equal(suite.T(), http.StatusOK, w.Code)
	assert.Equal(suite.T(), e, decode[models.Expense](suite.T(), w))

	assert.Equal(suite.T(), http.StatusNotFound, suite.do("GET", "/expenses/1", "").Code)
}

func (suite *HandlersTestSuite) TestDeleteRequiresConfirmation() {
	e := suite.create("Rent", "1000", "2025-01-01", models.CategoryRentMortgage)
	path := fmt.Sprintf("/expenses/%d", e.ID)

	w := suite.do("DELETE", path, "")
	assert.Equal(suite.T(), http.StatusPreconditionRequired, w.Code)
	assert.Equal(suite.T(), 1, suite.ledger.Len())

	w = suite.do("DELETE", path+"?confirm=true", "")
	assert.Equal(suite.T(), http.StatusNoContent, w.Code)
	assert.Zero(suite.T(), suite.ledger.Len())

	// Absent ids are a no-op
	w = suite.do("DELETE", path+"?confirm=true", "")
	assert.Equal(suite.T(), http.StatusNoContent, w.Code)
}

func (suite *HandlersTestSuite) TestTogglePaid() {
	e := suite.create("Rent", "1000", "2025-01-01", models.CategoryRentMortgage)
	path := fmt.Sprintf("/expenses/%d/toggle", e.ID)

	w := suite.do("POST", path, "")
	require.Equal(suite.T(), http.StatusOK, w.Code)
	assert.True(suite.T(), decode[models.Expense](suite.T(), w).Paid)

	list := decode[map[string]any](suite.T(), suite.do("GET", "/expenses", ""))
	summary := list["summary"].(map[string]any)
	assert.Equal(suite.T(), "1000", summary["paidTotal"])
	assert.Equal(suite.T(), "0", summary["unpaidTotal"])

	assert.Equal(suite.T(), http.StatusNotFound, suite.do("POST", "/expenses/1/toggle", "").Code)
}

func (suite *HandlersTestSuite) TestStatistics() {
	suite.create("Rent A", "800", "2025-01-01", models.CategoryRentMortgage)
	suite.create("Rent B", "200", "2025-02-01", models.CategoryRentMortgage)
	suite.create("Power", "1000", "2025-02-05", models.CategoryUtilities)

	w := suite.do("GET", "/statistics", "")
	require.Equal(suite.T(), http.StatusOK, w.Code)
	stats := decode[StatsViewModel](suite.T(), w)

	require.Len(suite.T(), stats.Categories, 2)
	assert.Equal(suite.T(), models.CategoryRentMortgage, stats.Categories[0].Category)
	assert.Equal(suite.T(), "1000", stats.Categories[0].Total.String())
	assert.Equal(suite.T(), 2, stats.Categories[0].Count)
	assert.Equal(suite.T(), 50.0, stats.Categories[0].Percentage)
	assert.Equal(suite.T(), "2000", stats.Total.String())

	w = suite.do("GET", "/statistics?month=1", "")
	stats = decode[StatsViewModel](suite.T(), w)
	assert.Equal(suite.T(), "1200", stats.Total.String())
}

func (suite *HandlersTestSuite) TestStatisticsSkipsNonNumericAmounts() {
	blob := `[
		{"id":1,"name":"Power","amount":"75","dueDate":"2025-03-01","category":"Utilities","paid":false},
		{"id":2,"name":"Card","amount":"n/a","dueDate":"2025-03-02","category":"Credit Card","paid":false},
		{"id":3,"name":"Food","amount":25,"dueDate":"2025-03-03","category":"Groceries","paid":true}
	]`
	require.NoError(suite.T(), suite.kv.Set(context.Background(), storage.DefaultKey, []byte(blob)))
	suite.load()

	stats := decode[StatsViewModel](suite.T(), suite.do("GET", "/statistics", ""))
	assert.Equal(suite.T(), "100", stats.Total.String())
	require.Len(suite.T(), stats.Categories, 2)
	assert.Equal(suite.T(), 75.0, stats.Categories[0].Percentage)
	assert.Equal(suite.T(), 25.0, stats.Categories[1].Percentage)
}

func (suite *HandlersTestSuite) TestCategories() {
	w := suite.do("GET", "/categories", "")
	cats := decode[[]CategoryDef](suite.T(), w)
	require.Len(suite.T(), cats, len(models.Categories))
	for i, c := range cats {
		assert.Equal(suite.T(), models.Categories[i], c.Name)
	}
}

func (suite *HandlersTestSuite) TestExport() {
	suite.create("Rent", "1000", "2025-01-01", models.CategoryRentMortgage)

	w := suite.do("GET", "/export.xlsx", "")
	require.Equal(suite.T(), http.StatusOK, w.Code)
	assert.Contains(suite.T(), w.Header().Get("Content-Disposition"), "expenses.xlsx")
	assert.Equal(suite.T(), strconv.Itoa(w.Body.Len()), w.Header().Get("Content-Length"))

	f, err := excelize.OpenReader(w.Body)
	require.NoError(suite.T(), err)
	defer f.Close()
	name, err := f.GetCellValue("Expenses", "B2")
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "Rent", name)
}

func (suite *HandlersTestSuite) TestExportFailure() {
	suite.create("Rent", "1000", "2025-01-01", models.CategoryRentMortgage)

	orig := writeWorkbook
	writeWorkbook = func(io.Writer, report.View) error { return errors.New("disk full") }
	defer func() { writeWorkbook = orig }()

	w := suite.do("GET", "/export.xlsx", "")
	assert.Equal(suite.T(), http.StatusInternalServerError, w.Code)
	assert.Equal(suite.T(), "application/json", w.Header().Get("Content-Type"))
	assert.Empty(suite.T(), w.Header().Get("Content-Disposition"))
	assert.Contains(suite.T(), w.Body.String(), "Internal server error")
}

func TestHandlersSuite(t *testing.T) {
	suite.Run(t, new(HandlersTestSuite))
}

func TestLogRequests(t *testing.T) {
	h := NewHandlers(nil, nil)
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	w := httptest.NewRecorder()
	h.LogRequests(next).ServeHTTP(w, httptest.NewRequest("GET", "/", http.NoBody))
	assert.Equal(t, http.StatusTeapot, w.Code)
}
