package service

import (
	"context"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/planbook/planbook/internal/metrics"
	"github.com/planbook/planbook/internal/model"
	"github.com/planbook/planbook/internal/validation"
)

// Expense aggregate defaults and limits.
const (
	DefaultSpendingMonths = 3
	MaxSpendingMonths     = 120
	DefaultTopCategories  = 5
	MaxTopCategories      = 100
	forecastWindow        = 90 * 24 * time.Hour
	reportWindow          = 90 * 24 * time.Hour
	daysPerMonth          = 30
)

// ExpenseService handles expense business logic.
type ExpenseService struct {
	store   ExpenseStore
	metrics metrics.Recorder
	now     func() time.Time
}

// NewExpenseService creates a new ExpenseService.
func NewExpenseService(store ExpenseStore, recorder metrics.Recorder) *ExpenseService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &ExpenseService{store: store, metrics: recorder, now: time.Now}
}

// AddExpenseInput defines input for recording an expense.
type AddExpenseInput struct {
	Amount      decimal.Decimal
	Category    string
	Description *string
	Date        *time.Time
}

// AddExpense validates and stores a new expense. Date defaults to now.
func (s *ExpenseService) AddExpense(ctx context.Context, userID string, input AddExpenseInput) (*model.Expense, error) {
	e := &model.Expense{
		ID:          ulid.Make().String(),
		UserID:      userID,
		Amount:      input.Amount.Round(2),
		Category:    strings.TrimSpace(input.Category),
		Description: normalizeText(input.Description),
		Date:        s.now().UTC(),
	}
	if input.Date != nil {
		e.Date = input.Date.UTC()
	}

	if err := validateExpense(e); err != nil {
		return nil, err
	}

	if err := s.store.CreateExpense(ctx, e); err != nil {
		return nil, storeError("user", "save expense", err)
	}

	s.metrics.IncExpenseCreated()
	return e, nil
}

// GetExpense returns an expense owned by userID.
func (s *ExpenseService) GetExpense(ctx context.Context, userID, id string) (*model.Expense, error) {
	e, err := s.store.GetExpense(ctx, userID, id)
	if err != nil {
		return nil, storeError("expense", "load expense", err)
	}
	return e, nil
}

// ListExpenses returns one page of a user's expenses, newest first.
func (s *ExpenseService) ListExpenses(ctx context.Context, userID string, filter model.ExpenseFilter, page model.Page) (*PageResult[*model.Expense], error) {
	if filter.StartDate != nil && filter.EndDate != nil && filter.StartDate.After(*filter.EndDate) {
		return nil, invalidInput("start_date must not be after end_date")
	}
	page = normalizePage(page)

	items, total, err := s.store.ListExpenses(ctx, userID, filter, page)
	if err != nil {
		return nil, persistence("list expenses", err)
	}
	return newPageResult(items, total, page), nil
}

// UpdateExpense applies the set fields of patch and re-validates the result.
func (s *ExpenseService) UpdateExpense(ctx context.Context, userID, id string, patch model.ExpensePatch) (*model.Expense, error) {
	if patch.IsEmpty() {
		return nil, invalidInput("no fields to update")
	}
	if patch.Amount != nil {
		rounded := patch.Amount.Round(2)
		patch.Amount = &rounded
	}
	if patch.Category != nil {
		trimmed := strings.TrimSpace(*patch.Category)
		patch.Category = &trimmed
	}

	e, err := s.store.UpdateExpense(ctx, userID, id, func(e *model.Expense) error {
		patch.Apply(e)
		e.Description = normalizeText(e.Description)
		return validateExpense(e)
	})
	if err != nil {
		return nil, storeError("expense", "update expense", err)
	}

	s.metrics.IncExpenseUpdated()
	return e, nil
}

// DeleteExpense removes an expense owned by userID.
func (s *ExpenseService) DeleteExpense(ctx context.Context, userID, id string) error {
	if err := s.store.DeleteExpense(ctx, userID, id); err != nil {
		return storeError("expense", "delete expense", err)
	}
	s.metrics.IncExpenseDeleted()
	return nil
}

// CalculateMonthlySpending sums spending per calendar month over the trailing
// months*30 days, oldest month first. Months without expenses are omitted.
func (s *ExpenseService) CalculateMonthlySpending(ctx context.Context, userID string, months int) ([]model.MonthlyTotal, error) {
	if months < 1 || months > MaxSpendingMonths {
		return nil, invalidInput("months must be between 1 and %d", MaxSpendingMonths)
	}
	defer s.observe(s.now())

	since := s.now().UTC().AddDate(0, 0, -months*daysPerMonth)
	totals, err := s.store.MonthlyTotals(ctx, userID, &since)
	if err != nil {
		return nil, persistence("calculate monthly spending", err)
	}
	return totals, nil
}

// GetTopExpensesByCategory returns the limit categories with the highest
// all-time spend. Ties are ordered by category name.
func (s *ExpenseService) GetTopExpensesByCategory(ctx context.Context, userID string, limit int) ([]model.CategoryTotal, error) {
	if limit < 1 || limit > MaxTopCategories {
		return nil, invalidInput("limit must be between 1 and %d", MaxTopCategories)
	}
	defer s.observe(s.now())

	totals, err := s.store.CategoryTotals(ctx, userID, nil, nil, limit)
	if err != nil {
		return nil, persistence("rank categories", err)
	}
	return totals, nil
}

// PredictNextMonthExpenses estimates next month's spend per category as the
// mean expense amount of the last 90 days.
func (s *ExpenseService) PredictNextMonthExpenses(ctx context.Context, userID string) (map[string]decimal.Decimal, error) {
	defer s.observe(s.now())

	since := s.now().UTC().Add(-forecastWindow)
	averages, err := s.store.CategoryAverages(ctx, userID, since)
	if err != nil {
		return nil, persistence("forecast expenses", err)
	}

	predictions := make(map[string]decimal.Decimal, len(averages))
	for _, a := range averages {
		predictions[a.Category] = a.Average.Round(2)
	}
	return predictions, nil
}

// ExpenseReport summarizes spending within a window.
type ExpenseReport struct {
	Start      time.Time
	End        time.Time
	Total      decimal.Decimal
	Categories []model.CategoryTotal
}

// GenerateExpenseReport totals spending per category within [start, end].
// The window defaults to the last 90 days.
func (s *ExpenseService) GenerateExpenseReport(ctx context.Context, userID string, start, end *time.Time) (*ExpenseReport, error) {
	now := s.now().UTC()
	report := &ExpenseReport{Start: now.Add(-reportWindow), End: now}
	if start != nil {
		report.Start = start.UTC()
	}
	if end != nil {
		report.End = end.UTC()
	}
	if report.Start.After(report.End) {
		return nil, invalidInput("start_date must not be after end_date")
	}
	defer s.observe(s.now())

	totals, err := s.store.CategoryTotals(ctx, userID, &report.Start, &report.End, 0)
	if err != nil {
		return nil, persistence("generate expense report", err)
	}

	report.Categories = totals
	for _, ct := range totals {
		report.Total = report.Total.Add(ct.Total)
	}
	return report, nil
}

// ExpenseSummary is the all-time spend per category and per month.
type ExpenseSummary struct {
	Categories []model.CategoryTotal
	Monthly    []model.MonthlyTotal
}

// Summary runs the all-time category and monthly aggregates concurrently.
func (s *ExpenseService) Summary(ctx context.Context, userID string) (*ExpenseSummary, error) {
	defer s.observe(s.now())

	var summary ExpenseSummary
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		totals, err := s.store.CategoryTotals(gctx, userID, nil, nil, 0)
		if err != nil {
			return err
		}
		summary.Categories = totals
		return nil
	})
	g.Go(func() error {
		monthly, err := s.store.MonthlyTotals(gctx, userID, nil)
		if err != nil {
			return err
		}
		summary.Monthly = monthly
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, persistence("summarize expenses", err)
	}
	return &summary, nil
}

func (s *ExpenseService) observe(start time.Time) {
	s.metrics.ObserveAggregateDuration(s.now().Sub(start))
}

func validateExpense(e *model.Expense) error {
	if err := validation.Expense(e.Amount, e.Category); err != nil {
		return err
	}
	return validation.OptionalText("description", e.Description, validation.MaxDescriptionLength)
}

// normalizeText trims an optional text field; blank values become nil.
func normalizeText(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
