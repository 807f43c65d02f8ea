package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/planbook/planbook/internal/auth"
	"github.com/planbook/planbook/internal/metrics"
	"github.com/planbook/planbook/internal/model"
	"github.com/planbook/planbook/internal/repository/memory"
)

const testSecret = "0123456789abcdef0123456789abcdef"

var fixedNow = time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)

type fakeRevoker struct {
	mu      sync.Mutex
	revoked map[string]time.Duration
	err     error
}

func (f *fakeRevoker) RevokeToken(_ context.Context, jti string, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if f.revoked == nil {
		f.revoked = make(map[string]time.Duration)
	}
	f.revoked[jti] = ttl
	return nil
}

type testEnv struct {
	store    *memory.Store
	recorder *metrics.InMemoryRecorder
	revoker  *fakeRevoker
	tokens   *auth.TokenManager
	users    *UserService
	expenses *ExpenseService
	events   *EventService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	tokens, err := auth.NewTokenManager(testSecret, time.Hour)
	require.NoError(t, err)
	tokens.WithClock(func() time.Time { return fixedNow })

	env := &testEnv{
		store:    memory.New(),
		recorder: metrics.NewInMemory(),
		revoker:  &fakeRevoker{},
		tokens:   tokens,
	}
	env.users = NewUserService(env.store, tokens, env.revoker, env.recorder)
	env.expenses = NewExpenseService(env.store, env.recorder)
	env.events = NewEventService(env.store, env.recorder)

	clock := func() time.Time { return fixedNow }
	env.users.now = clock
	env.expenses.now = clock
	env.events.now = clock
	return env
}

// registerUser creates an account and returns its id.
func (e *testEnv) registerUser(t *testing.T, username string) string {
	t.Helper()
	res, err := e.users.Register(context.Background(), RegisterInput{
		Username: username,
		Email:    username + "@example.com",
		Password: "Passw0rd!",
	})
	require.NoError(t, err)
	return res.User.ID
}

// failingStore wraps a memory store and fails every aggregate read.
type failingStore struct {
	*memory.Store
}

var errStoreDown = errors.New("store down")

func (f failingStore) MonthlyTotals(context.Context, string, *time.Time) ([]model.MonthlyTotal, error) {
	return nil, errStoreDown
}

func (f failingStore) BusiestDays(context.Context, string, time.Time, time.Time, int) ([]model.DayCount, error) {
	return nil, errStoreDown
}

func (f failingStore) CreateExpense(context.Context, *model.Expense) error {
	return errStoreDown
}
