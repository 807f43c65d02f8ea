// Package testutil holds helpers shared by package tests.
package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"
	"github.com/planbook/planbook/internal/model"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

// RequireEnv returns an environment variable or skips the test if missing.
func RequireEnv(t testing.TB, key string) string {
	t.Helper()
	value := os.Getenv(key)
	if value == "" {
		t.Skipf("%s not set", key)
	}
	return value
}

const advisoryLockID int64 = 720531

// AcquireDBLock grabs a global advisory lock to serialize DB tests.
func AcquireDBLock(ctx context.Context, pool *pgxpool.Pool) (func() error, error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}

	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock($1)", advisoryLockID); err != nil {
		conn.Release()
		return nil, fmt.Errorf("acquire advisory lock: %w", err)
	}

	unlock := func() error {
		defer conn.Release()
		if _, err := conn.Exec(ctx, "SELECT pg_advisory_unlock($1)", advisoryLockID); err != nil {
			return fmt.Errorf("release advisory lock: %w", err)
		}
		return nil
	}

	return unlock, nil
}

// MigrationPath returns the path of a migration file by name.
func MigrationPath(name string) (string, error) {
	root, err := ProjectRoot()
	if err != nil {
		return "", err
	}
	return filepath.Join(root, "internal", "repository", "migrations", name), nil
}

// ResetSchema drops and recreates all tables from the init migration.
func ResetSchema(ctx context.Context, pool *pgxpool.Pool) error {
	for _, name := range []string{"000001_init.down.sql", "000001_init.up.sql"} {
		path, err := MigrationPath(name)
		if err != nil {
			return err
		}
		sql, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if _, err := pool.Exec(ctx, string(sql)); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
	}
	return nil
}

// FlushRedis clears the current Redis database.
func FlushRedis(ctx context.Context, client *redis.Client) error {
	return client.FlushDB(ctx).Err()
}

// ProjectRoot returns the project root directory.
func ProjectRoot() (string, error) {
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		return "", fmt.Errorf("failed to resolve testutil path")
	}
	return filepath.Clean(filepath.Join(filepath.Dir(filename), "..", "..")), nil
}

// ============================================================================
// Test Data Factories
// ============================================================================

// NewTestUser creates a user with sensible defaults. The password hash is a
// placeholder and will not verify.
func NewTestUser(t testing.TB, username string) *model.User {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &model.User{
		ID:           ulid.Make().String(),
		Username:     username,
		Email:        strings.ToLower(username) + "@example.com",
		PasswordHash: "$argon2id$v=19$m=65536,t=3,p=4$c2FsdA$aGFzaA",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// NewTestExpense creates an expense for userID.
func NewTestExpense(t testing.TB, userID, amount, category string, date time.Time) *model.Expense {
	t.Helper()
	return &model.Expense{
		ID:       ulid.Make().String(),
		UserID:   userID,
		Amount:   decimal.RequireFromString(amount),
		Category: category,
		Date:     date.UTC().Truncate(time.Microsecond),
	}
}

// NewTestEvent creates an event for userID spanning [start, start+d).
func NewTestEvent(t testing.TB, userID, title string, start time.Time, d time.Duration) *model.Event {
	t.Helper()
	start = start.UTC().Truncate(time.Microsecond)
	return &model.Event{
		ID:        ulid.Make().String(),
		UserID:    userID,
		Title:     title,
		StartTime: start,
		EndTime:   start.Add(d),
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
}

// UniqueName generates a unique username-safe name for tests.
func UniqueName(prefix string) string {
	return fmt.Sprintf("%s_%d", prefix, time.Now().UnixNano()%1_000_000_000)
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}
