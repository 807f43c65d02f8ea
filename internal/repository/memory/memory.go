// Package memory is an in-process storage backend with the same semantics as
// the PostgreSQL repository. Data is lost on restart.
package memory

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/planbook/planbook/internal/model"
	"github.com/planbook/planbook/internal/repository"
	"github.com/shopspring/decimal"
)

// Store keeps users, expenses and events in maps guarded by one RWMutex.
type Store struct {
	mu       sync.RWMutex
	users    map[string]*model.User
	expenses map[string]*model.Expense
	events   map[string]*model.Event
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		users:    make(map[string]*model.User),
		expenses: make(map[string]*model.Expense),
		events:   make(map[string]*model.Event),
	}
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error {
	return nil
}

// ============================================================================
// Users
// ============================================================================

// CreateUser inserts a new user.
func (s *Store) CreateUser(_ context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Username == user.Username {
			return repository.ErrUsernameExists
		}
		if u.Email == user.Email {
			return repository.ErrEmailExists
		}
	}
	cp := *user
	s.users[user.ID] = &cp
	return nil
}

// GetUserByID retrieves a user by their ID.
func (s *Store) GetUserByID(_ context.Context, id string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

// GetUserByUsername retrieves a user by their username.
func (s *Store) GetUserByUsername(_ context.Context, username string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

// UserTaken reports whether the username or the email is already registered.
func (s *Store) UserTaken(_ context.Context, username, email string) (bool, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var usernameTaken, emailTaken bool
	for _, u := range s.users {
		usernameTaken = usernameTaken || u.Username == username
		emailTaken = emailTaken || u.Email == email
	}
	return usernameTaken, emailTaken, nil
}

// DeleteUser removes a user together with all of their expenses and events.
func (s *Store) DeleteUser(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[id]; !ok {
		return repository.ErrUserNotFound
	}
	for eid, e := range s.expenses {
		if e.UserID == id {
			delete(s.expenses, eid)
		}
	}
	for eid, ev := range s.events {
		if ev.UserID == id {
			delete(s.events, eid)
		}
	}
	delete(s.users, id)
	return nil
}

// ============================================================================
// Expenses
// ============================================================================

// CreateExpense inserts a new expense.
func (s *Store) CreateExpense(_ context.Context, e *model.Expense) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[e.UserID]; !ok {
		return repository.ErrUserNotFound
	}
	s.expenses[e.ID] = copyExpense(e)
	return nil
}

// GetExpense retrieves an expense owned by userID.
func (s *Store) GetExpense(_ context.Context, userID, id string) (*model.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.expenses[id]
	if !ok || e.UserID != userID {
		return nil, repository.ErrExpenseNotFound
	}
	return copyExpense(e), nil
}

// ListExpenses returns one page of a user's expenses, newest first.
func (s *Store) ListExpenses(_ context.Context, userID string, filter model.ExpenseFilter, page model.Page) ([]*model.Expense, int, error) {
	s.mu.RLock()
	matched := s.filterExpenses(func(e *model.Expense) bool {
		if e.UserID != userID {
			return false
		}
		if len(filter.Categories) > 0 && !slices.Contains(filter.Categories, e.Category) {
			return false
		}
		return inRange(e.Date, filter.StartDate, filter.EndDate)
	})
	s.mu.RUnlock()

	slices.SortFunc(matched, func(a, b *model.Expense) int {
		if c := b.Date.Compare(a.Date); c != 0 {
			return c
		}
		return strings.Compare(b.ID, a.ID)
	})

	return paginate(matched, page), len(matched), nil
}

// UpdateExpense applies mutate to a copy of the expense and stores it when
// mutate succeeds.
func (s *Store) UpdateExpense(_ context.Context, userID, id string, mutate func(*model.Expense) error) (*model.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.expenses[id]
	if !ok || cur.UserID != userID {
		return nil, repository.ErrExpenseNotFound
	}

	next := copyExpense(cur)
	if err := mutate(next); err != nil {
		return nil, err
	}
	s.expenses[id] = copyExpense(next)
	return next, nil
}

// DeleteExpense removes an expense owned by userID.
func (s *Store) DeleteExpense(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.expenses[id]
	if !ok || e.UserID != userID {
		return repository.ErrExpenseNotFound
	}
	delete(s.expenses, id)
	return nil
}

// MonthlyTotals sums a user's expenses per UTC calendar month, oldest first.
func (s *Store) MonthlyTotals(_ context.Context, userID string, since *time.Time) ([]model.MonthlyTotal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sums := make(map[string]decimal.Decimal)
	for _, e := range s.expenses {
		if e.UserID != userID || !inRange(e.Date, since, nil) {
			continue
		}
		month := e.Date.UTC().Format("2006-01")
		sums[month] = sums[month].Add(e.Amount)
	}

	totals := make([]model.MonthlyTotal, 0, len(sums))
	for month, total := range sums {
		totals = append(totals, model.MonthlyTotal{Month: month, Total: total})
	}
	slices.SortFunc(totals, func(a, b model.MonthlyTotal) int {
		return strings.Compare(a.Month, b.Month)
	})
	return totals, nil
}

// CategoryTotals sums a user's expenses per category within [from, to].
func (s *Store) CategoryTotals(_ context.Context, userID string, from, to *time.Time, limit int) ([]model.CategoryTotal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byCat := make(map[string]*model.CategoryTotal)
	for _, e := range s.expenses {
		if e.UserID != userID || !inRange(e.Date, from, to) {
			continue
		}
		ct, ok := byCat[e.Category]
		if !ok {
			ct = &model.CategoryTotal{Category: e.Category}
			byCat[e.Category] = ct
		}
		ct.Total = ct.Total.Add(e.Amount)
		ct.Count++
	}

	totals := make([]model.CategoryTotal, 0, len(byCat))
	for _, ct := range byCat {
		totals = append(totals, *ct)
	}
	slices.SortFunc(totals, func(a, b model.CategoryTotal) int {
		if c := b.Total.Cmp(a.Total); c != 0 {
			return c
		}
		return strings.Compare(a.Category, b.Category)
	})

	if limit > 0 && len(totals) > limit {
		totals = totals[:limit]
	}
	return totals, nil
}

// CategoryAverages returns the mean expense amount per category since the given time.
func (s *Store) CategoryAverages(ctx context.Context, userID string, since time.Time) ([]model.CategoryAverage, error) {
	totals, err := s.CategoryTotals(ctx, userID, &since, nil, 0)
	if err != nil {
		return nil, err
	}

	averages := make([]model.CategoryAverage, 0, len(totals))
	for _, ct := range totals {
		averages = append(averages, model.CategoryAverage{
			Category: ct.Category,
			Average:  ct.Total.DivRound(decimal.NewFromInt(ct.Count), 16),
		})
	}
	slices.SortFunc(averages, func(a, b model.CategoryAverage) int {
		return strings.Compare(a.Category, b.Category)
	})
	return averages, nil
}

func (s *Store) filterExpenses(keep func(*model.Expense) bool) []*model.Expense {
	var out []*model.Expense
	for _, e := range s.expenses {
		if keep(e) {
			out = append(out, copyExpense(e))
		}
	}
	return out
}

func copyExpense(e *model.Expense) *model.Expense {
	cp := *e
	if e.Description != nil {
		cp.Description = ptr(*e.Description)
	}
	return &cp
}

// inRange reports whether t lies in [from, to]; nil bounds are open.
func inRange(t time.Time, from, to *time.Time) bool {
	if from != nil && t.Before(*from) {
		return false
	}
	if to != nil && t.After(*to) {
		return false
	}
	return true
}

func paginate[T any](items []T, page model.Page) []T {
	off := page.Offset()
	if off >= len(items) {
		return []T{}
	}
	end := min(off+page.PerPage, len(items))
	return items[off:end]
}

func ptr[T any](v T) *T {
	return &v
}

func byStart(a, b *model.Event) int {
	if c := a.StartTime.Compare(b.StartTime); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}
