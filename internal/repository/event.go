package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/planbook/planbook/internal/model"
)

const eventColumns = `id, user_id, title, description, start_time, end_time, category, location, created_at`

// CreateEvent inserts a new event.
func (r *Repository) CreateEvent(ctx context.Context, ev *model.Event) error {
	query := `
		INSERT INTO events (id, user_id, title, description, start_time, end_time, category, location, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	err := r.withTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, query,
			ev.ID,
			ev.UserID,
			ev.Title,
			ev.Description,
			ev.StartTime,
			ev.EndTime,
			ev.Category,
			ev.Location,
			ev.CreatedAt,
		)
		return err
	})
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to create event: %w", err)
	}

	return nil
}

// GetEvent retrieves an event owned by userID.
func (r *Repository) GetEvent(ctx context.Context, userID, id string) (*model.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1 AND user_id = $2`

	ev, err := scanEvent(r.pool.QueryRow(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to get event: %w", err)
	}

	return ev, nil
}

// ListEvents returns one page of a user's events ordered by start time, and
// the total number of matching rows.
func (r *Repository) ListEvents(ctx context.Context, userID string, filter model.EventFilter, page model.Page) ([]*model.Event, int, error) {
	var where whereBuilder
	where.add("user_id = ?", userID)
	if len(filter.Categories) > 0 {
		where.add("category = ANY(?)", filter.Categories)
	}
	if filter.StartDate != nil {
		where.add("start_time >= ?", *filter.StartDate)
	}
	if filter.EndDate != nil {
		where.add("end_time <= ?", *filter.EndDate)
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM events`+where.sql(), where.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count events: %w", err)
	}

	query := `SELECT ` + eventColumns + ` FROM events` + where.sql()
	query += fmt.Sprintf(" ORDER BY start_time ASC, id ASC LIMIT %s OFFSET %s", where.next(page.PerPage), where.next(page.Offset()))

	events, err := r.queryEvents(ctx, query, where.args...)
	if err != nil {
		return nil, 0, err
	}

	return events, total, nil
}

// UpdateEvent locks the event row, lets mutate change it, and writes it back
// in the same transaction.
func (r *Repository) UpdateEvent(ctx context.Context, userID, id string, mutate func(*model.Event) error) (*model.Event, error) {
	selectQuery := `SELECT ` + eventColumns + ` FROM events WHERE id = $1 AND user_id = $2 FOR UPDATE`
	updateQuery := `
		UPDATE events
		SET title = $3, description = $4, start_time = $5, end_time = $6, category = $7, location = $8
		WHERE id = $1 AND user_id = $2
	`

	var updated *model.Event
	err := r.withTx(ctx, func(tx pgx.Tx) error {
		ev, err := scanEvent(tx.QueryRow(ctx, selectQuery, id, userID))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrEventNotFound
			}
			return fmt.Errorf("failed to lock event: %w", err)
		}

		if err := mutate(ev); err != nil {
			return err
		}

		_, err = tx.Exec(ctx, updateQuery,
			ev.ID, ev.UserID, ev.Title, ev.Description, ev.StartTime, ev.EndTime, ev.Category, ev.Location)
		if err != nil {
			return fmt.Errorf("failed to update event: %w", err)
		}
		updated = ev
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// DeleteEvent removes an event owned by userID.
func (r *Repository) DeleteEvent(ctx context.Context, userID, id string) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM events WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrEventNotFound
	}

	return nil
}

// EventsStartingBetween returns events whose start lies in [from, to], earliest first.
func (r *Repository) EventsStartingBetween(ctx context.Context, userID string, from, to time.Time) ([]*model.Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM events
		WHERE user_id = $1 AND start_time >= $2 AND start_time <= $3
		ORDER BY start_time ASC, id ASC
	`
	return r.queryEvents(ctx, query, userID, from, to)
}

// EventsByCategory returns a user's events in category, latest start first.
func (r *Repository) EventsByCategory(ctx context.Context, userID, category string) ([]*model.Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM events
		WHERE user_id = $1 AND category = $2
		ORDER BY start_time DESC, id DESC
	`
	return r.queryEvents(ctx, query, userID, category)
}

// OverlappingEvents returns events intersecting the half-open interval
// [start, end), excluding excludeID when set.
func (r *Repository) OverlappingEvents(ctx context.Context, userID string, start, end time.Time, excludeID string) ([]*model.Event, error) {
	var where whereBuilder
	where.add("user_id = ?", userID)
	where.add("start_time < ?", end)
	where.add("end_time > ?", start)
	if excludeID != "" {
		where.add("id <> ?", excludeID)
	}

	query := `SELECT ` + eventColumns + ` FROM events` + where.sql() + ` ORDER BY start_time ASC, id ASC`
	return r.queryEvents(ctx, query, where.args...)
}

// CountEvents counts events starting within [from, to].
func (r *Repository) CountEvents(ctx context.Context, userID string, from, to time.Time) (int64, error) {
	query := `SELECT COUNT(*) FROM events WHERE user_id = $1 AND start_time >= $2 AND start_time <= $3`

	var n int64
	if err := r.pool.QueryRow(ctx, query, userID, from, to).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count events: %w", err)
	}
	return n, nil
}

// EventCategoryCounts counts events starting within [from, to] per category.
// Uncategorized events are grouped under "".
func (r *Repository) EventCategoryCounts(ctx context.Context, userID string, from, to time.Time) ([]model.CategoryCount, error) {
	query := `
		SELECT COALESCE(category, '') AS cat, COUNT(*) AS n
		FROM events
		WHERE user_id = $1 AND start_time >= $2 AND start_time <= $3
		GROUP BY cat
		ORDER BY n DESC, cat ASC
	`

	rows, err := r.pool.Query(ctx, query, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query event categories: %w", err)
	}
	defer rows.Close()

	counts := []model.CategoryCount{}
	for rows.Next() {
		var c model.CategoryCount
		if err := rows.Scan(&c.Category, &c.Count); err != nil {
			return nil, fmt.Errorf("failed to scan event category: %w", err)
		}
		counts = append(counts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating event categories: %w", err)
	}

	return counts, nil
}

// BusiestDays returns the UTC calendar days with the most events starting
// within [from, to], ties ordered by date.
func (r *Repository) BusiestDays(ctx context.Context, userID string, from, to time.Time, limit int) ([]model.DayCount, error) {
	query := `
		SELECT to_char(start_time AT TIME ZONE 'UTC', 'YYYY-MM-DD') AS day, COUNT(*) AS n
		FROM events
		WHERE user_id = $1 AND start_time >= $2 AND start_time <= $3
		GROUP BY day
		ORDER BY n DESC, day ASC
		LIMIT $4
	`

	rows, err := r.pool.Query(ctx, query, userID, from, to, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query busiest days: %w", err)
	}
	defer rows.Close()

	days := []model.DayCount{}
	for rows.Next() {
		var d model.DayCount
		if err := rows.Scan(&d.Date, &d.Count); err != nil {
			return nil, fmt.Errorf("failed to scan busiest day: %w", err)
		}
		days = append(days, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating busiest days: %w", err)
	}

	return days, nil
}

func (r *Repository) queryEvents(ctx context.Context, query string, args ...any) ([]*model.Event, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	events := []*model.Event{}
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating events: %w", err)
	}

	return events, nil
}

func scanEvent(row pgx.Row) (*model.Event, error) {
	var ev model.Event
	err := row.Scan(
		&ev.ID,
		&ev.UserID,
		&ev.Title,
		&ev.Description,
		&ev.StartTime,
		&ev.EndTime,
		&ev.Category,
		&ev.Location,
		&ev.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	ev.StartTime = ev.StartTime.UTC()
	ev.EndTime = ev.EndTime.UTC()
	ev.CreatedAt = ev.CreatedAt.UTC()
	return &ev, nil
}
