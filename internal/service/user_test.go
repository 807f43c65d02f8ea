package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planbook/planbook/internal/auth"
	"github.com/planbook/planbook/internal/model"
)

func TestUserService_Register(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	res, err := env.users.Register(ctx, RegisterInput{
		Username: "alice",
		Email:    "Alice@Example.com",
		Password: "Passw0rd!",
	})
	require.NoError(t, err)
	assert.Equal(t, "alice", res.User.Username)
	assert.Equal(t, "Alice@example.com", res.User.Email)
	assert.NotEqual(t, "Passw0rd!", res.User.PasswordHash)
	assert.Equal(t, fixedNow.Add(time.Hour), res.ExpiresAt)

	claims, err := env.tokens.Parse(res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, claims.UserID)
	assert.Equal(t, uint64(1), env.recorder.Snapshot().UsersRegistered)
}

func TestUserService_RegisterValidation(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	tests := []struct {
		name  string
		input RegisterInput
		want  error
	}{
		{"short username", RegisterInput{"ab", "a@example.com", "Passw0rd!"}, ErrInvalidInput},
		{"bad email", RegisterInput{"alice", "not-an-email", "Passw0rd!"}, ErrInvalidInput},
		{"weak password", RegisterInput{"alice", "a@example.com", "password"}, ErrWeakCredential},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.users.Register(context.Background(), tt.input)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestUserService_RegisterDuplicate(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()
	env.registerUser(t, "bob")

	_, err := env.users.Register(ctx, RegisterInput{"bob", "other@example.com", "Passw0rd!"})
	assert.ErrorIs(t, err, ErrDuplicateEntity)

	_, err = env.users.Register(ctx, RegisterInput{"bobby", "bob@example.com", "Passw0rd!"})
	assert.ErrorIs(t, err, ErrDuplicateEntity)

	assert.Equal(t, uint64(1), env.recorder.Snapshot().UsersRegistered)
}

func TestUserService_RegisterRace(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = env.users.Register(context.Background(), RegisterInput{"racer", "racer@example.com", "Passw0rd!"})
		}(i)
	}
	wg.Wait()

	var ok int
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, ErrDuplicateEntity)
	}
	assert.Equal(t, 1, ok)
}

func TestUserService_Login(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()
	id := env.registerUser(t, "carol")

	res, err := env.users.Login(ctx, "carol", "Passw0rd!")
	require.NoError(t, err)
	assert.Equal(t, id, res.User.ID)

	_, err = env.users.Login(ctx, "carol", "Wrong0rd!")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = env.users.Login(ctx, "nobody", "Passw0rd!")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = env.users.Login(ctx, "", "")
	assert.ErrorIs(t, err, ErrInvalidInput)

	snap := env.recorder.Snapshot()
	assert.Equal(t, uint64(1), snap.LoginsSucceeded)
	assert.Equal(t, uint64(2), snap.LoginsFailed)
}

func TestUserService_DeleteAccountCascades(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()
	id := env.registerUser(t, "dave")

	_, err := env.expenses.AddExpense(ctx, id, AddExpenseInput{Amount: dec("5"), Category: "food"})
	require.NoError(t, err)
	_, _, err = env.events.CreateEvent(ctx, id, CreateEventInput{
		Title: "Dentist", StartTime: fixedNow, EndTime: fixedNow.Add(time.Hour),
	})
	require.NoError(t, err)

	require.NoError(t, env.users.DeleteAccount(ctx, id))

	_, err = env.users.Profile(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)

	page, err := env.expenses.ListExpenses(ctx, id, model.ExpenseFilter{}, model.Page{})
	require.NoError(t, err)
	assert.Zero(t, page.Total)

	events, err := env.events.ListEvents(ctx, id, model.EventFilter{}, model.Page{})
	require.NoError(t, err)
	assert.Zero(t, events.Total)

	assert.ErrorIs(t, env.users.DeleteAccount(ctx, id), ErrNotFound)
}

func TestUserService_Logout(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	claims := &auth.Claims{UserID: "u1"}
	claims.ID = "jti-1"
	claims.ExpiresAt = jwtTime(fixedNow.Add(30 * time.Minute))

	require.NoError(t, env.users.Logout(ctx, claims))
	assert.Equal(t, 30*time.Minute, env.revoker.revoked["jti-1"])

	env.revoker.err = errors.New("redis down")
	assert.ErrorIs(t, env.users.Logout(ctx, claims), ErrPersistence)

	noRevoker := NewUserService(env.store, env.tokens, nil, nil)
	assert.NoError(t, noRevoker.Logout(ctx, claims))
}
