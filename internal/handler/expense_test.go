package handler

import (
	"net/http"
	"strings"
	"testing"

	"github.com/planbook/planbook/internal/handler/dto"
)

func TestExpenseHandler_CRUD(t *testing.T) {
	api := newTestAPI(t)
	token := api.register("grace")
	stranger := api.register("heidi")

	rec := api.do(http.MethodPost, "/expenses", `{"amount": 12.345, "category": " food ", "description": "lunch", "date": "2026-03-04"}`, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"amount":12.35`) {
		t.Errorf("amount not rendered as a two-decimal number: %s", rec.Body.String())
	}
	created := decode[dto.ExpenseEnvelope](t, rec)
	id := created.Expense.ID
	if created.Message == "" || created.Expense.Category != "food" {
		t.Errorf("created = %+v", created)
	}
	if got := created.Expense.Date.Format("2006-01-02T15:04:05Z07:00"); got != "2026-03-04T00:00:00Z" {
		t.Errorf("date = %s", got)
	}

	rec = api.do(http.MethodGet, "/expenses/"+id, nil, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}

	expectError(t, api.do(http.MethodGet, "/expenses/"+id, nil, stranger), http.StatusNotFound, "not_found")
	expectError(t, api.do(http.MethodPut, "/expenses/"+id, `{"amount": 1}`, stranger), http.StatusNotFound, "not_found")
	expectError(t, api.do(http.MethodDelete, "/expenses/"+id, nil, stranger), http.StatusNotFound, "not_found")

	rec = api.do(http.MethodPut, "/expenses/"+id, `{"amount": "20", "description": ""}`, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d: %s", rec.Code, rec.Body.String())
	}
	updated := decode[dto.ExpenseEnvelope](t, rec)
	if updated.Expense.Amount != "20.00" || updated.Expense.Description != nil {
		t.Errorf("updated = %+v", updated.Expense)
	}

	expectError(t, api.do(http.MethodPut, "/expenses/"+id, `{}`, token), http.StatusBadRequest, "invalid_input")
	expectError(t, api.do(http.MethodPut, "/expenses/"+id, `{"amount": -3}`, token), http.StatusBadRequest, "invalid_input")

	if rec := api.do(http.MethodDelete, "/expenses/"+id, nil, token); rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d", rec.Code)
	}
	expectError(t, api.do(http.MethodGet, "/expenses/"+id, nil, token), http.StatusNotFound, "not_found")
}

func TestExpenseHandler_CreateValidation(t *testing.T) {
	api := newTestAPI(t)
	token := api.register("ivan")

	tests := []struct {
		name string
		body string
	}{
		{"missing amount", `{"category": "food"}`},
		{"zero amount", `{"amount": 0, "category": "food"}`},
		{"negative amount", `{"amount": -1, "category": "food"}`},
		{"non numeric amount", `{"amount": "lots", "category": "food"}`},
		{"blank category", `{"amount": 3, "category": "  "}`},
		{"bad date", `{"amount": 3, "category": "food", "date": "yesterday"}`},
		{"unknown trailing data", `{"amount": 3, "category": "food"} {}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectError(t, api.do(http.MethodPost, "/expenses", tt.body, token), http.StatusBadRequest, "invalid_input")
		})
	}
}

func TestExpenseHandler_ListPagination(t *testing.T) {
	api := newTestAPI(t)
	token := api.register("judy")

	for _, day := range []string{"01", "02", "03", "04", "05"} {
		body := `{"amount": 1, "category": "food", "date": "2026-05-` + day + `"}`
		if rec := api.do(http.MethodPost, "/expenses", body, token); rec.Code != http.StatusCreated {
			t.Fatalf("create status = %d", rec.Code)
		}
	}
	api.do(http.MethodPost, "/expenses", `{"amount": 1, "category": "rent", "date": "2026-05-06"}`, token)

	rec := api.do(http.MethodGet, "/expenses?page=2&per_page=2&category=food", nil, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	list := decode[dto.ExpenseListResponse](t, rec)
	if list.Total != 5 || list.Pages != 3 || list.CurrentPage != 2 || len(list.Expenses) != 2 {
		t.Errorf("list = total %d pages %d page %d len %d", list.Total, list.Pages, list.CurrentPage, len(list.Expenses))
	}

	rec = api.do(http.MethodGet, "/expenses?category=food,rent&start_date=2026-05-05&end_date=2026-05-31", nil, token)
	if list := decode[dto.ExpenseListResponse](t, rec); list.Total != 2 {
		t.Errorf("filtered total = %d, want 2", list.Total)
	}

	expectError(t, api.do(http.MethodGet, "/expenses?page=abc", nil, token), http.StatusBadRequest, "invalid_input")
	expectError(t, api.do(http.MethodGet, "/expenses?start_date=nope", nil, token), http.StatusBadRequest, "invalid_input")
	expectError(t, api.do(http.MethodGet, "/expenses?start_date=2026-06-01&end_date=2026-05-01", nil, token),
		http.StatusBadRequest, "invalid_input")
	expectError(t, api.do(http.MethodGet, "/expenses", nil, ""), http.StatusUnauthorized, "authentication")
}

func TestExpenseHandler_Aggregates(t *testing.T) {
	api := newTestAPI(t)
	token := api.register("ken")

	for _, body := range []string{
		`{"amount": 10, "category": "food", "date": "2026-04-01"}`,
		`{"amount": 5.5, "category": "food", "date": "2026-04-20"}`,
		`{"amount": 30, "category": "rent", "date": "2026-04-02"}`,
		`{"amount": 2, "category": "fun", "date": "2026-05-03"}`,
	} {
		if rec := api.do(http.MethodPost, "/expenses", body, token); rec.Code != http.StatusCreated {
			t.Fatalf("create status = %d: %s", rec.Code, rec.Body.String())
		}
	}

	rec := api.do(http.MethodGet, "/expenses/summary", nil, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("summary status = %d", rec.Code)
	}
	summary := decode[dto.ExpenseSummaryResponse](t, rec)
	if len(summary.CategorySummary) != 3 || summary.CategorySummary[0].Category != "rent" {
		t.Errorf("category summary = %+v", summary.CategorySummary)
	}
	if len(summary.MonthlySummary) != 2 {
		t.Errorf("monthly summary = %+v", summary.MonthlySummary)
	}

	rec = api.do(http.MethodGet, "/expenses/top-categories?limit=2", nil, token)
	top := decode[dto.TopCategoriesResponse](t, rec).TopCategories
	if len(top) != 2 || top[0].Category != "rent" || top[1].Category != "food" || top[1].TotalAmount != "15.50" || top[1].Count != 2 {
		t.Errorf("top categories = %+v", top)
	}

	rec = api.do(http.MethodGet, "/expenses/report?start_date=2026-04-01&end_date=2026-04-30", nil, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("report status = %d", rec.Code)
	}
	report := decode[dto.ExpenseReportResponse](t, rec)
	if report.TotalSpending != "45.50" || len(report.CategoryBreakdown) != 2 {
		t.Errorf("report = %+v", report)
	}

	if rec := api.do(http.MethodGet, "/expenses/monthly", nil, token); rec.Code != http.StatusOK {
		t.Errorf("monthly status = %d", rec.Code)
	}
	if rec := api.do(http.MethodGet, "/expenses/forecast", nil, token); rec.Code != http.StatusOK {
		t.Errorf("forecast status = %d", rec.Code)
	} else if decode[dto.ForecastResponse](t, rec).Predictions == nil {
		t.Error("predictions should be an object, not null")
	}

	tests := []struct {
		name string
		path string
	}{
		{"months zero", "/expenses/monthly?months=0"},
		{"months not a number", "/expenses/monthly?months=six"},
		{"limit zero", "/expenses/top-categories?limit=0"},
		{"report inverted", "/expenses/report?start_date=2026-05-01&end_date=2026-04-01"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectError(t, api.do(http.MethodGet, tt.path, nil, token), http.StatusBadRequest, "invalid_input")
		})
	}
}
