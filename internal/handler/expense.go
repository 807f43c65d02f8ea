package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/planbook/planbook/internal/auth"
	"github.com/planbook/planbook/internal/handler/dto"
	"github.com/planbook/planbook/internal/model"
	"github.com/planbook/planbook/internal/service"
)

// ExpenseHandler handles HTTP requests for expense operations.
type ExpenseHandler struct {
	svc    *service.ExpenseService
	logger *slog.Logger
}

// NewExpenseHandler creates a new ExpenseHandler.
func NewExpenseHandler(svc *service.ExpenseService, logger *slog.Logger) *ExpenseHandler {
	return &ExpenseHandler{svc: svc, logger: logger}
}

// Create handles POST /expenses.
func (h *ExpenseHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateExpenseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeRequestError(w, err)
		return
	}
	if req.Amount == nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "amount: is required")
		return
	}

	userID := auth.UserIDFromContext(r.Context())
	e, err := h.svc.AddExpense(r.Context(), userID, service.AddExpenseInput{
		Amount:      *req.Amount,
		Category:    req.Category,
		Description: req.Description,
		Date:        req.Date.Ptr(),
	})
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	h.logger.Info("expense_created", "expense_id", e.ID, "user_id", userID, "category", e.Category)
	writeJSON(w, http.StatusCreated, dto.ExpenseEnvelope{
		Message: "expense created successfully",
		Expense: dto.ToExpenseResponse(e),
	})
}

// List handles GET /expenses.
func (h *ExpenseHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	page, err := queryPage(q)
	if err != nil {
		writeRequestError(w, err)
		return
	}
	filter := model.ExpenseFilter{Categories: queryCategories(q)}
	if filter.StartDate, err = queryTime(q, "start_date"); err != nil {
		writeRequestError(w, err)
		return
	}
	if filter.EndDate, err = queryTime(q, "end_date"); err != nil {
		writeRequestError(w, err)
		return
	}

	result, err := h.svc.ListExpenses(r.Context(), auth.UserIDFromContext(r.Context()), filter, page)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ExpenseListResponse{
		Expenses:    dto.ToExpenseResponses(result.Items),
		Total:       result.Total,
		Pages:       result.Pages,
		CurrentPage: result.Page,
	})
}

// Get handles GET /expenses/{id}.
func (h *ExpenseHandler) Get(w http.ResponseWriter, r *http.Request) {
	e, err := h.svc.GetExpense(r.Context(), auth.UserIDFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ExpenseEnvelope{Expense: dto.ToExpenseResponse(e)})
}

// Update handles PUT /expenses/{id}.
func (h *ExpenseHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateExpenseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeRequestError(w, err)
		return
	}

	userID := auth.UserIDFromContext(r.Context())
	e, err := h.svc.UpdateExpense(r.Context(), userID, chi.URLParam(r, "id"), req.Patch())
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	h.logger.Info("expense_updated", "expense_id", e.ID, "user_id", userID)
	writeJSON(w, http.StatusOK, dto.ExpenseEnvelope{
		Message: "expense updated successfully",
		Expense: dto.ToExpenseResponse(e),
	})
}

// Delete handles DELETE /expenses/{id}.
func (h *ExpenseHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	id := chi.URLParam(r, "id")

	if err := h.svc.DeleteExpense(r.Context(), userID, id); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	h.logger.Info("expense_deleted", "expense_id", id, "user_id", userID)
	writeJSON(w, http.StatusOK, dto.MessageResponse{Message: "expense deleted successfully"})
}

// Summary handles GET /expenses/summary.
func (h *ExpenseHandler) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.svc.Summary(r.Context(), auth.UserIDFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ExpenseSummaryResponse{
		CategorySummary: dto.ToCategoryTotals(summary.Categories),
		MonthlySummary:  dto.ToMonthlyTotals(summary.Monthly),
	})
}

// Monthly handles GET /expenses/monthly?months=N.
func (h *ExpenseHandler) Monthly(w http.ResponseWriter, r *http.Request) {
	months, err := queryInt(r.URL.Query(), "months", service.DefaultSpendingMonths)
	if err != nil {
		writeRequestError(w, err)
		return
	}

	totals, err := h.svc.CalculateMonthlySpending(r.Context(), auth.UserIDFromContext(r.Context()), months)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.MonthlySpendingResponse{MonthlySpending: dto.ToMonthlyTotals(totals)})
}

// TopCategories handles GET /expenses/top-categories?limit=N.
func (h *ExpenseHandler) TopCategories(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r.URL.Query(), "limit", service.DefaultTopCategories)
	if err != nil {
		writeRequestError(w, err)
		return
	}

	totals, err := h.svc.GetTopExpensesByCategory(r.Context(), auth.UserIDFromContext(r.Context()), limit)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.TopCategoriesResponse{TopCategories: dto.ToCategoryTotals(totals)})
}

// Forecast handles GET /expenses/forecast.
func (h *ExpenseHandler) Forecast(w http.ResponseWriter, r *http.Request) {
	predictions, err := h.svc.PredictNextMonthExpenses(r.Context(), auth.UserIDFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToForecast(predictions))
}

// Report handles GET /expenses/report?start_date&end_date.
func (h *ExpenseHandler) Report(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	start, err := queryTime(q, "start_date")
	if err != nil {
		writeRequestError(w, err)
		return
	}
	end, err := queryTime(q, "end_date")
	if err != nil {
		writeRequestError(w, err)
		return
	}

	report, err := h.svc.GenerateExpenseReport(r.Context(), auth.UserIDFromContext(r.Context()), start, end)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ExpenseReportResponse{
		TotalSpending:     dto.Amount(report.Total),
		StartDate:         report.Start,
		EndDate:           report.End,
		CategoryBreakdown: dto.ToCategoryTotals(report.Categories),
	})
}
