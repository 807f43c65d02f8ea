package memory

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/planbook/planbook/internal/model"
	"github.com/planbook/planbook/internal/repository"
)

// CreateEvent inserts a new event.
func (s *Store) CreateEvent(_ context.Context, ev *model.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[ev.UserID]; !ok {
		return repository.ErrUserNotFound
	}
	s.events[ev.ID] = copyEvent(ev)
	return nil
}

// GetEvent retrieves an event owned by userID.
func (s *Store) GetEvent(_ context.Context, userID, id string) (*model.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ev, ok := s.events[id]
	if !ok || ev.UserID != userID {
		return nil, repository.ErrEventNotFound
	}
	return copyEvent(ev), nil
}

// ListEvents returns one page of a user's events ordered by start time.
func (s *Store) ListEvents(_ context.Context, userID string, filter model.EventFilter, page model.Page) ([]*model.Event, int, error) {
	matched := s.selectEvents(func(ev *model.Event) bool {
		if ev.UserID != userID {
			return false
		}
		if len(filter.Categories) > 0 && (ev.Category == nil || !slices.Contains(filter.Categories, *ev.Category)) {
			return false
		}
		if filter.StartDate != nil && ev.StartTime.Before(*filter.StartDate) {
			return false
		}
		if filter.EndDate != nil && ev.EndTime.After(*filter.EndDate) {
			return false
		}
		return true
	})
	slices.SortFunc(matched, byStart)

	return paginate(matched, page), len(matched), nil
}

// UpdateEvent applies mutate to a copy of the event and stores it when mutate succeeds.
func (s *Store) UpdateEvent(_ context.Context, userID, id string, mutate func(*model.Event) error) (*model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.events[id]
	if !ok || cur.UserID != userID {
		return nil, repository.ErrEventNotFound
	}

	next := copyEvent(cur)
	if err := mutate(next); err != nil {
		return nil, err
	}
	s.events[id] = copyEvent(next)
	return next, nil
}

// DeleteEvent removes an event owned by userID.
func (s *Store) DeleteEvent(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ev, ok := s.events[id]
	if !ok || ev.UserID != userID {
		return repository.ErrEventNotFound
	}
	delete(s.events, id)
	return nil
}

// EventsStartingBetween returns events whose start lies in [from, to], earliest first.
func (s *Store) EventsStartingBetween(_ context.Context, userID string, from, to time.Time) ([]*model.Event, error) {
	out := s.selectEvents(func(ev *model.Event) bool {
		return ev.UserID == userID && inRange(ev.StartTime, &from, &to)
	})
	slices.SortFunc(out, byStart)
	return out, nil
}

// EventsByCategory returns a user's events in category, latest start first.
func (s *Store) EventsByCategory(_ context.Context, userID, category string) ([]*model.Event, error) {
	out := s.selectEvents(func(ev *model.Event) bool {
		return ev.UserID == userID && ev.Category != nil && *ev.Category == category
	})
	slices.SortFunc(out, func(a, b *model.Event) int { return byStart(b, a) })
	return out, nil
}

// OverlappingEvents returns events intersecting [start, end), excluding excludeID when set.
func (s *Store) OverlappingEvents(_ context.Context, userID string, start, end time.Time, excludeID string) ([]*model.Event, error) {
	out := s.selectEvents(func(ev *model.Event) bool {
		return ev.UserID == userID && ev.ID != excludeID && ev.Overlaps(start, end)
	})
	slices.SortFunc(out, byStart)
	return out, nil
}

// CountEvents counts events starting within [from, to].
func (s *Store) CountEvents(ctx context.Context, userID string, from, to time.Time) (int64, error) {
	evs, err := s.EventsStartingBetween(ctx, userID, from, to)
	if err != nil {
		return 0, err
	}
	return int64(len(evs)), nil
}

// EventCategoryCounts counts events starting within [from, to] per category.
func (s *Store) EventCategoryCounts(ctx context.Context, userID string, from, to time.Time) ([]model.CategoryCount, error) {
	evs, err := s.EventsStartingBetween(ctx, userID, from, to)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64)
	for _, ev := range evs {
		counts[ev.CategoryName()]++
	}

	out := make([]model.CategoryCount, 0, len(counts))
	for cat, n := range counts {
		out = append(out, model.CategoryCount{Category: cat, Count: n})
	}
	slices.SortFunc(out, func(a, b model.CategoryCount) int {
		if a.Count != b.Count {
			return compareDesc(a.Count, b.Count)
		}
		return strings.Compare(a.Category, b.Category)
	})
	return out, nil
}

// BusiestDays returns the UTC days with the most events starting within [from, to].
func (s *Store) BusiestDays(ctx context.Context, userID string, from, to time.Time, limit int) ([]model.DayCount, error) {
	evs, err := s.EventsStartingBetween(ctx, userID, from, to)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64)
	for _, ev := range evs {
		counts[ev.StartTime.UTC().Format(time.DateOnly)]++
	}

	out := make([]model.DayCount, 0, len(counts))
	for day, n := range counts {
		out = append(out, model.DayCount{Date: day, Count: n})
	}
	slices.SortFunc(out, func(a, b model.DayCount) int {
		if a.Count != b.Count {
			return compareDesc(a.Count, b.Count)
		}
		return strings.Compare(a.Date, b.Date)
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) selectEvents(keep func(*model.Event) bool) []*model.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []*model.Event{}
	for _, ev := range s.events {
		if keep(ev) {
			out = append(out, copyEvent(ev))
		}
	}
	return out
}

func copyEvent(ev *model.Event) *model.Event {
	cp := *ev
	if ev.Description != nil {
		cp.Description = ptr(*ev.Description)
	}
	if ev.Category != nil {
		cp.Category = ptr(*ev.Category)
	}
	if ev.Location != nil {
		cp.Location = ptr(*ev.Location)
	}
	return &cp
}

func compareDesc(a, b int64) int {
	switch {
	case a > b:
		return -1
	case a < b:
		return 1
	}
	return 0
}
