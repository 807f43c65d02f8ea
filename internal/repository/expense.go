package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/planbook/planbook/internal/model"
)

const expenseColumns = `id, user_id, amount, category, description, date`

// CreateExpense inserts a new expense.
func (r *Repository) CreateExpense(ctx context.Context, e *model.Expense) error {
	query := `
		INSERT INTO expenses (id, user_id, amount, category, description, date)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	err := r.withTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, query, e.ID, e.UserID, e.Amount, e.Category, e.Description, e.Date)
		return err
	})
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to create expense: %w", err)
	}

	return nil
}

// GetExpense retrieves an expense owned by userID.
func (r *Repository) GetExpense(ctx context.Context, userID, id string) (*model.Expense, error) {
	query := `SELECT ` + expenseColumns + ` FROM expenses WHERE id = $1 AND user_id = $2`

	e, err := scanExpense(r.pool.QueryRow(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrExpenseNotFound
		}
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}

	return e, nil
}

// ListExpenses returns one page of a user's expenses, newest first, and the
// total number of matching rows.
func (r *Repository) ListExpenses(ctx context.Context, userID string, filter model.ExpenseFilter, page model.Page) ([]*model.Expense, int, error) {
	var where whereBuilder
	where.add("user_id = ?", userID)
	if len(filter.Categories) > 0 {
		where.add("category = ANY(?)", filter.Categories)
	}
	if filter.StartDate != nil {
		where.add("date >= ?", *filter.StartDate)
	}
	if filter.EndDate != nil {
		where.add("date <= ?", *filter.EndDate)
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM expenses` + where.sql()
	if err := r.pool.QueryRow(ctx, countQuery, where.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count expenses: %w", err)
	}

	query := `SELECT ` + expenseColumns + ` FROM expenses` + where.sql()
	query += fmt.Sprintf(" ORDER BY date DESC, id DESC LIMIT %s OFFSET %s", where.next(page.PerPage), where.next(page.Offset()))

	rows, err := r.pool.Query(ctx, query, where.args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	expenses := make([]*model.Expense, 0, page.PerPage)
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan expense: %w", err)
		}
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating expenses: %w", err)
	}

	return expenses, total, nil
}

// UpdateExpense locks the expense row, lets mutate change it, and writes it
// back in the same transaction. An error from mutate aborts the update.
func (r *Repository) UpdateExpense(ctx context.Context, userID, id string, mutate func(*model.Expense) error) (*model.Expense, error) {
	selectQuery := `SELECT ` + expenseColumns + ` FROM expenses WHERE id = $1 AND user_id = $2 FOR UPDATE`
	updateQuery := `
		UPDATE expenses
		SET amount = $3, category = $4, description = $5, date = $6
		WHERE id = $1 AND user_id = $2
	`

	var updated *model.Expense
	err := r.withTx(ctx, func(tx pgx.Tx) error {
		e, err := scanExpense(tx.QueryRow(ctx, selectQuery, id, userID))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrExpenseNotFound
			}
			return fmt.Errorf("failed to lock expense: %w", err)
		}

		if err := mutate(e); err != nil {
			return err
		}

		if _, err := tx.Exec(ctx, updateQuery, e.ID, e.UserID, e.Amount, e.Category, e.Description, e.Date); err != nil {
			return fmt.Errorf("failed to update expense: %w", err)
		}
		updated = e
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// DeleteExpense removes an expense owned by userID.
func (r *Repository) DeleteExpense(ctx context.Context, userID, id string) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM expenses WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrExpenseNotFound
	}

	return nil
}

// MonthlyTotals sums a user's expenses per UTC calendar month, oldest first.
// A nil since covers all time.
func (r *Repository) MonthlyTotals(ctx context.Context, userID string, since *time.Time) ([]model.MonthlyTotal, error) {
	var where whereBuilder
	where.add("user_id = ?", userID)
	if since != nil {
		where.add("date >= ?", *since)
	}

	query := `
		SELECT to_char(date_trunc('month', date AT TIME ZONE 'UTC'), 'YYYY-MM') AS month, SUM(amount)
		FROM expenses` + where.sql() + `
		GROUP BY month
		ORDER BY month ASC
	`

	rows, err := r.pool.Query(ctx, query, where.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query monthly totals: %w", err)
	}
	defer rows.Close()

	totals := []model.MonthlyTotal{}
	for rows.Next() {
		var m model.MonthlyTotal
		if err := rows.Scan(&m.Month, &m.Total); err != nil {
			return nil, fmt.Errorf("failed to scan monthly total: %w", err)
		}
		totals = append(totals, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating monthly totals: %w", err)
	}

	return totals, nil
}

// CategoryTotals sums a user's expenses per category within [from, to],
// largest first with ties ordered by category name. Nil bounds are open and a
// non-positive limit returns every category.
func (r *Repository) CategoryTotals(ctx context.Context, userID string, from, to *time.Time, limit int) ([]model.CategoryTotal, error) {
	var where whereBuilder
	where.add("user_id = ?", userID)
	if from != nil {
		where.add("date >= ?", *from)
	}
	if to != nil {
		where.add("date <= ?", *to)
	}

	query := `
		SELECT category, SUM(amount) AS total, COUNT(*)
		FROM expenses` + where.sql() + `
		GROUP BY category
		ORDER BY total DESC, category ASC
	`
	if limit > 0 {
		query += " LIMIT " + where.next(limit)
	}

	rows, err := r.pool.Query(ctx, query, where.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query category totals: %w", err)
	}
	defer rows.Close()

	totals := []model.CategoryTotal{}
	for rows.Next() {
		var c model.CategoryTotal
		if err := rows.Scan(&c.Category, &c.Total, &c.Count); err != nil {
			return nil, fmt.Errorf("failed to scan category total: %w", err)
		}
		totals = append(totals, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating category totals: %w", err)
	}

	return totals, nil
}

// CategoryAverages returns the mean expense amount per category since the given time.
func (r *Repository) CategoryAverages(ctx context.Context, userID string, since time.Time) ([]model.CategoryAverage, error) {
	query := `
		SELECT category, AVG(amount)
		FROM expenses
		WHERE user_id = $1 AND date >= $2
		GROUP BY category
		ORDER BY category ASC
	`

	rows, err := r.pool.Query(ctx, query, userID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query category averages: %w", err)
	}
	defer rows.Close()

	averages := []model.CategoryAverage{}
	for rows.Next() {
		var a model.CategoryAverage
		if err := rows.Scan(&a.Category, &a.Average); err != nil {
			return nil, fmt.Errorf("failed to scan category average: %w", err)
		}
		averages = append(averages, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating category averages: %w", err)
	}

	return averages, nil
}

func scanExpense(row pgx.Row) (*model.Expense, error) {
	var e model.Expense
	err := row.Scan(
		&e.ID,
		&e.UserID,
		&e.Amount,
		&e.Category,
		&e.Description,
		&e.Date,
	)
	if err != nil {
		return nil, err
	}
	e.Date = e.Date.UTC()
	return &e, nil
}
