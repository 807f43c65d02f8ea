package service

import (
	"context"
	"math"
	"time"

	"github.com/planbook/planbook/internal/model"
)

// UserStore persists users.
type UserStore interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	UserTaken(ctx context.Context, username, email string) (usernameTaken, emailTaken bool, err error)
	DeleteUser(ctx context.Context, id string) error
}

// ExpenseStore persists expenses and runs expense aggregates.
type ExpenseStore interface {
	CreateExpense(ctx context.Context, e *model.Expense) error
	GetExpense(ctx context.Context, userID, id string) (*model.Expense, error)
	ListExpenses(ctx context.Context, userID string, filter model.ExpenseFilter, page model.Page) ([]*model.Expense, int, error)
	UpdateExpense(ctx context.Context, userID, id string, mutate func(*model.Expense) error) (*model.Expense, error)
	DeleteExpense(ctx context.Context, userID, id string) error
	MonthlyTotals(ctx context.Context, userID string, since *time.Time) ([]model.MonthlyTotal, error)
	CategoryTotals(ctx context.Context, userID string, from, to *time.Time, limit int) ([]model.CategoryTotal, error)
	CategoryAverages(ctx context.Context, userID string, since time.Time) ([]model.CategoryAverage, error)
}

// EventStore persists events and runs event aggregates.
type EventStore interface {
	CreateEvent(ctx context.Context, ev *model.Event) error
	GetEvent(ctx context.Context, userID, id string) (*model.Event, error)
	ListEvents(ctx context.Context, userID string, filter model.EventFilter, page model.Page) ([]*model.Event, int, error)
	UpdateEvent(ctx context.Context, userID, id string, mutate func(*model.Event) error) (*model.Event, error)
	DeleteEvent(ctx context.Context, userID, id string) error
	EventsStartingBetween(ctx context.Context, userID string, from, to time.Time) ([]*model.Event, error)
	EventsByCategory(ctx context.Context, userID, category string) ([]*model.Event, error)
	OverlappingEvents(ctx context.Context, userID string, start, end time.Time, excludeID string) ([]*model.Event, error)
	CountEvents(ctx context.Context, userID string, from, to time.Time) (int64, error)
	EventCategoryCounts(ctx context.Context, userID string, from, to time.Time) ([]model.CategoryCount, error)
	BusiestDays(ctx context.Context, userID string, from, to time.Time, limit int) ([]model.DayCount, error)
}

// Store is implemented by every storage backend.
type Store interface {
	UserStore
	ExpenseStore
	EventStore
	Ping(ctx context.Context) error
}

// PageResult is one page of a listing.
type PageResult[T any] struct {
	Items []T
	Total int
	Pages int
	Page  int
}

func newPageResult[T any](items []T, total int, page model.Page) *PageResult[T] {
	return &PageResult[T]{
		Items: items,
		Total: total,
		Pages: page.PageCount(total),
		Page:  page.Number,
	}
}

// Pagination limits.
const (
	DefaultPerPage = 10
	MaxPerPage     = 100
)

// normalizePage clamps a page request to valid bounds.
func normalizePage(page model.Page) model.Page {
	if page.Number < 1 {
		page.Number = 1
	}
	if page.PerPage < 1 {
		page.PerPage = DefaultPerPage
	}
	if page.PerPage > MaxPerPage {
		page.PerPage = MaxPerPage
	}
	// keep (Number-1)*PerPage within int
	if maxPage := math.MaxInt / page.PerPage; page.Number > maxPage {
		page.Number = maxPage
	}
	return page
}
