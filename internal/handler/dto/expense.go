package dto

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/planbook/planbook/internal/model"
)

// CreateExpenseRequest is the body of POST /expenses.
// Amount accepts a JSON number or a numeric string.
type CreateExpenseRequest struct {
	Amount      *decimal.Decimal `json:"amount"`
	Category    string           `json:"category"`
	Description *string          `json:"description,omitempty"`
	Date        *Time            `json:"date,omitempty"`
}

// UpdateExpenseRequest is the body of PUT /expenses/{id}. Omitted fields
// are left unchanged; an empty description clears it.
type UpdateExpenseRequest struct {
	Amount      *decimal.Decimal `json:"amount,omitempty"`
	Category    *string          `json:"category,omitempty"`
	Description *string          `json:"description,omitempty"`
	Date        *Time            `json:"date,omitempty"`
}

// Patch converts the request to a model patch.
func (r UpdateExpenseRequest) Patch() model.ExpensePatch {
	return model.ExpensePatch{
		Amount:      r.Amount,
		Category:    r.Category,
		Description: r.Description,
		Date:        r.Date.Ptr(),
	}
}

// ExpenseResponse represents an expense in API responses.
type ExpenseResponse struct {
	ID          string      `json:"id"`
	UserID      string      `json:"user_id"`
	Amount      json.Number `json:"amount"`
	Category    string      `json:"category"`
	Description *string     `json:"description"`
	Date        time.Time   `json:"date"`
}

// ExpenseEnvelope wraps a single expense with a confirmation message.
type ExpenseEnvelope struct {
	Message string          `json:"message,omitempty"`
	Expense ExpenseResponse `json:"expense"`
}

// ExpenseListResponse is one page of expenses.
type ExpenseListResponse struct {
	Expenses    []ExpenseResponse `json:"expenses"`
	Total       int               `json:"total"`
	Pages       int               `json:"pages"`
	CurrentPage int               `json:"current_page"`
}

// CategoryTotalResponse is the spend of one category.
type CategoryTotalResponse struct {
	Category    string      `json:"category"`
	TotalAmount json.Number `json:"total_amount"`
	Count       int64       `json:"count"`
}

// MonthlyTotalResponse is the spend of one calendar month.
type MonthlyTotalResponse struct {
	Month       string      `json:"month"`
	TotalAmount json.Number `json:"total_amount"`
}

// ExpenseSummaryResponse is returned by GET /expenses/summary.
type ExpenseSummaryResponse struct {
	CategorySummary []CategoryTotalResponse `json:"category_summary"`
	MonthlySummary  []MonthlyTotalResponse  `json:"monthly_summary"`
}

// MonthlySpendingResponse is returned by GET /expenses/monthly.
type MonthlySpendingResponse struct {
	MonthlySpending []MonthlyTotalResponse `json:"monthly_spending"`
}

// TopCategoriesResponse is returned by GET /expenses/top-categories.
type TopCategoriesResponse struct {
	TopCategories []CategoryTotalResponse `json:"top_categories"`
}

// ForecastResponse is returned by GET /expenses/forecast.
type ForecastResponse struct {
	Predictions map[string]json.Number `json:"predictions"`
}

// ExpenseReportResponse is returned by GET /expenses/report.
type ExpenseReportResponse struct {
	TotalSpending     json.Number             `json:"total_spending"`
	StartDate         time.Time               `json:"start_date"`
	EndDate           time.Time               `json:"end_date"`
	CategoryBreakdown []CategoryTotalResponse `json:"category_breakdown"`
}

// ToExpenseResponse converts an Expense model to its DTO.
func ToExpenseResponse(e *model.Expense) ExpenseResponse {
	return ExpenseResponse{
		ID:          e.ID,
		UserID:      e.UserID,
		Amount:      Amount(e.Amount),
		Category:    e.Category,
		Description: e.Description,
		Date:        e.Date,
	}
}

// ToExpenseResponses converts a slice of expenses.
func ToExpenseResponses(expenses []*model.Expense) []ExpenseResponse {
	out := make([]ExpenseResponse, 0, len(expenses))
	for _, e := range expenses {
		out = append(out, ToExpenseResponse(e))
	}
	return out
}

// ToCategoryTotals converts category totals.
func ToCategoryTotals(totals []model.CategoryTotal) []CategoryTotalResponse {
	out := make([]CategoryTotalResponse, 0, len(totals))
	for _, t := range totals {
		out = append(out, CategoryTotalResponse{
			Category:    t.Category,
			TotalAmount: Amount(t.Total),
			Count:       t.Count,
		})
	}
	return out
}

// ToMonthlyTotals converts monthly totals.
func ToMonthlyTotals(totals []model.MonthlyTotal) []MonthlyTotalResponse {
	out := make([]MonthlyTotalResponse, 0, len(totals))
	for _, t := range totals {
		out = append(out, MonthlyTotalResponse{Month: t.Month, TotalAmount: Amount(t.Total)})
	}
	return out
}

// ToForecast converts per-category predictions.
func ToForecast(predictions map[string]decimal.Decimal) ForecastResponse {
	out := make(map[string]json.Number, len(predictions))
	for cat, amount := range predictions {
		out[cat] = Amount(amount)
	}
	return ForecastResponse{Predictions: out}
}
