package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/planbook/planbook/internal/model"
	"github.com/planbook/planbook/internal/repository"
	"github.com/planbook/planbook/internal/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStoreWithUser(t *testing.T, name string) (*Store, *model.User) {
	t.Helper()
	s := New()
	u := testutil.NewTestUser(t, name)
	require.NoError(t, s.CreateUser(context.Background(), u))
	return s, u
}

func TestStore_UserUniqueness(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, u := newStoreWithUser(t, "alice")

	dupName := testutil.NewTestUser(t, "alice")
	dupName.Email = "x@example.com"
	assert.ErrorIs(t, s.CreateUser(ctx, dupName), repository.ErrUsernameExists)

	dupEmail := testutil.NewTestUser(t, "alice2")
	dupEmail.Email = u.Email
	assert.ErrorIs(t, s.CreateUser(ctx, dupEmail), repository.ErrEmailExists)

	nameTaken, emailTaken, err := s.UserTaken(ctx, "nobody", u.Email)
	require.NoError(t, err)
	assert.False(t, nameTaken)
	assert.True(t, emailTaken)
}

func TestStore_DeleteUserCascades(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, u := newStoreWithUser(t, "bob")
	other := testutil.NewTestUser(t, "other")
	require.NoError(t, s.CreateUser(ctx, other))

	now := time.Now()
	require.NoError(t, s.CreateExpense(ctx, testutil.NewTestExpense(t, u.ID, "3", "food", now)))
	require.NoError(t, s.CreateEvent(ctx, testutil.NewTestEvent(t, u.ID, "Gym", now, time.Hour)))
	kept := testutil.NewTestExpense(t, other.ID, "4", "food", now)
	require.NoError(t, s.CreateExpense(ctx, kept))

	require.NoError(t, s.DeleteUser(ctx, u.ID))

	_, total, err := s.ListExpenses(ctx, u.ID, model.ExpenseFilter{}, model.Page{Number: 1, PerPage: 10})
	require.NoError(t, err)
	assert.Zero(t, total)
	_, total, err = s.ListEvents(ctx, u.ID, model.EventFilter{}, model.Page{Number: 1, PerPage: 10})
	require.NoError(t, err)
	assert.Zero(t, total)

	_, err = s.GetExpense(ctx, other.ID, kept.ID)
	assert.NoError(t, err)
	assert.ErrorIs(t, s.DeleteUser(ctx, u.ID), repository.ErrUserNotFound)
}

func TestStore_ExpenseOwnership(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, u := newStoreWithUser(t, "carol")

	e := testutil.NewTestExpense(t, u.ID, "10", "food", time.Now())
	require.NoError(t, s.CreateExpense(ctx, e))

	_, err := s.GetExpense(ctx, "someone-else", e.ID)
	assert.ErrorIs(t, err, repository.ErrExpenseNotFound)
	assert.ErrorIs(t, s.DeleteExpense(ctx, "someone-else", e.ID), repository.ErrExpenseNotFound)
	_, err = s.UpdateExpense(ctx, "someone-else", e.ID, func(*model.Expense) error { return nil })
	assert.ErrorIs(t, err, repository.ErrExpenseNotFound)

	assert.ErrorIs(t, s.CreateExpense(ctx, testutil.NewTestExpense(t, "ghost", "1", "x", time.Now())), repository.ErrUserNotFound)
}

func TestStore_UpdateExpenseAbortKeepsRow(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, u := newStoreWithUser(t, "dave")

	e := testutil.NewTestExpense(t, u.ID, "10", "food", time.Now())
	require.NoError(t, s.CreateExpense(ctx, e))

	boom := errors.New("boom")
	_, err := s.UpdateExpense(ctx, u.ID, e.ID, func(x *model.Expense) error {
		x.Category = "changed"
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := s.GetExpense(ctx, u.ID, e.ID)
	require.NoError(t, err)
	assert.Equal(t, "food", got.Category)
}

func TestStore_ListExpensesPaginationAndFilter(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, u := newStoreWithUser(t, "erin")

	base := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	var ids []string
	for i := 0; i < 5; i++ {
		cat := "food"
		if i%2 == 1 {
			cat = "travel"
		}
		e := testutil.NewTestExpense(t, u.ID, "1", cat, base.AddDate(0, 0, i))
		require.NoError(t, s.CreateExpense(ctx, e))
		ids = append(ids, e.ID)
	}

	page, total, err := s.ListExpenses(ctx, u.ID, model.ExpenseFilter{}, model.Page{Number: 2, PerPage: 2})
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	require.Len(t, page, 2)
	assert.Equal(t, ids[2], page[0].ID)
	assert.Equal(t, ids[1], page[1].ID)

	end := base.AddDate(0, 0, 3)
	filtered, total, err := s.ListExpenses(ctx, u.ID, model.ExpenseFilter{
		Categories: []string{"travel"},
		EndDate:    &end,
	}, model.Page{Number: 1, PerPage: 10})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Equal(t, ids[3], filtered[0].ID)
	assert.Equal(t, ids[1], filtered[1].ID)

	beyond, _, err := s.ListExpenses(ctx, u.ID, model.ExpenseFilter{}, model.Page{Number: 9, PerPage: 2})
	require.NoError(t, err)
	assert.Empty(t, beyond)
}

func TestStore_ExpenseAggregates(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, u := newStoreWithUser(t, "frank")

	for _, e := range []*model.Expense{
		testutil.NewTestExpense(t, u.ID, "10.00", "rent", time.Date(2026, 1, 31, 23, 0, 0, 0, time.UTC)),
		testutil.NewTestExpense(t, u.ID, "4.00", "food", time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)),
		testutil.NewTestExpense(t, u.ID, "6.00", "food", time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)),
	} {
		require.NoError(t, s.CreateExpense(ctx, e))
	}

	monthly, err := s.MonthlyTotals(ctx, u.ID, nil)
	require.NoError(t, err)
	require.Len(t, monthly, 2)
	assert.Equal(t, "2026-01", monthly[0].Month)
	assert.Equal(t, "2026-03", monthly[1].Month)
	assert.True(t, monthly[1].Total.Equal(decimal.NewFromInt(10)))

	totals, err := s.CategoryTotals(ctx, u.ID, nil, nil, 1)
	require.NoError(t, err)
	require.Len(t, totals, 1)
	assert.Equal(t, "food", totals[0].Category, "tie on 10.00 resolves by name")

	since := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	avgs, err := s.CategoryAverages(ctx, u.ID, since)
	require.NoError(t, err)
	require.Len(t, avgs, 1)
	assert.True(t, avgs[0].Average.Equal(decimal.NewFromInt(5)))
}

func TestStore_EventQueries(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, u := newStoreWithUser(t, "gina")

	ten := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	a := testutil.NewTestEvent(t, u.ID, "A", ten, time.Hour)
	a.Category = testutil.Ptr("work")
	b := testutil.NewTestEvent(t, u.ID, "B", ten.AddDate(0, 0, 1), time.Hour)
	b.Category = testutil.Ptr("work")
	c := testutil.NewTestEvent(t, u.ID, "C", ten.AddDate(0, 0, 1).Add(3*time.Hour), time.Hour)
	for _, ev := range []*model.Event{a, b, c} {
		require.NoError(t, s.CreateEvent(ctx, ev))
	}

	conflicts, err := s.OverlappingEvents(ctx, u.ID, ten.Add(time.Hour), ten.Add(2*time.Hour), "")
	require.NoError(t, err)
	assert.Empty(t, conflicts)

	conflicts, err = s.OverlappingEvents(ctx, u.ID, ten.Add(30*time.Minute), ten.Add(90*time.Minute), "")
	require.NoError(t, err)
	require.Len(t, conflicts, 1)
	assert.Equal(t, a.ID, conflicts[0].ID)

	byCat, err := s.EventsByCategory(ctx, u.ID, "work")
	require.NoError(t, err)
	require.Len(t, byCat, 2)
	assert.Equal(t, b.ID, byCat[0].ID)

	from, to := ten.AddDate(0, 0, -1), ten.AddDate(0, 0, 2)
	cats, err := s.EventCategoryCounts(ctx, u.ID, from, to)
	require.NoError(t, err)
	assert.Equal(t, []model.CategoryCount{{Category: "work", Count: 2}, {Category: "", Count: 1}}, cats)

	days, err := s.BusiestDays(ctx, u.ID, from, to, 5)
	require.NoError(t, err)
	assert.Equal(t, []model.DayCount{{Date: "2026-04-02", Count: 2}, {Date: "2026-04-01", Count: 1}}, days)

	end := ten.AddDate(0, 0, 1).Add(time.Hour)
	listed, total, err := s.ListEvents(ctx, u.ID, model.EventFilter{StartDate: &ten, EndDate: &end}, model.Page{Number: 1, PerPage: 10})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Equal(t, a.ID, listed[0].ID)
	assert.Equal(t, b.ID, listed[1].ID)
}
