package service

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/sync/errgroup"

	"github.com/planbook/planbook/internal/metrics"
	"github.com/planbook/planbook/internal/model"
	"github.com/planbook/planbook/internal/validation"
)

// Event query defaults and limits.
const (
	DefaultUpcomingDays = 30
	MaxUpcomingDays     = 366
	summaryWindow       = 90 * 24 * time.Hour
	busiestDaysLimit    = 5
)

// EventService handles calendar business logic.
type EventService struct {
	store   EventStore
	metrics metrics.Recorder
	now     func() time.Time
}

// NewEventService creates a new EventService.
func NewEventService(store EventStore, recorder metrics.Recorder) *EventService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &EventService{store: store, metrics: recorder, now: time.Now}
}

// CreateEventInput defines input for creating an event.
type CreateEventInput struct {
	Title       string
	Description *string
	StartTime   time.Time
	EndTime     time.Time
	Category    *string
	Location    *string
}

// CreateEvent validates and stores an event. Existing events overlapping it
// are returned alongside; they do not prevent creation.
func (s *EventService) CreateEvent(ctx context.Context, userID string, input CreateEventInput) (*model.Event, []*model.Event, error) {
	ev := &model.Event{
		ID:          ulid.Make().String(),
		UserID:      userID,
		Title:       strings.TrimSpace(input.Title),
		Description: normalizeText(input.Description),
		StartTime:   input.StartTime.UTC(),
		EndTime:     input.EndTime.UTC(),
		Category:    normalizeText(input.Category),
		Location:    normalizeText(input.Location),
		CreatedAt:   s.now().UTC(),
	}
	if err := validateEvent(ev); err != nil {
		return nil, nil, err
	}

	conflicts, err := s.store.OverlappingEvents(ctx, userID, ev.StartTime, ev.EndTime, "")
	if err != nil {
		return nil, nil, persistence("check conflicts", err)
	}

	if err := s.store.CreateEvent(ctx, ev); err != nil {
		return nil, nil, storeError("user", "save event", err)
	}

	s.metrics.IncEventCreated()
	return ev, conflicts, nil
}

// GetEvent returns an event owned by userID.
func (s *EventService) GetEvent(ctx context.Context, userID, id string) (*model.Event, error) {
	ev, err := s.store.GetEvent(ctx, userID, id)
	if err != nil {
		return nil, storeError("event", "load event", err)
	}
	return ev, nil
}

// ListEvents returns one page of a user's events ordered by start time.
func (s *EventService) ListEvents(ctx context.Context, userID string, filter model.EventFilter, page model.Page) (*PageResult[*model.Event], error) {
	if filter.StartDate != nil && filter.EndDate != nil && filter.StartDate.After(*filter.EndDate) {
		return nil, invalidInput("start_date must not be after end_date")
	}
	page = normalizePage(page)

	items, total, err := s.store.ListEvents(ctx, userID, filter, page)
	if err != nil {
		return nil, persistence("list events", err)
	}
	return newPageResult(items, total, page), nil
}

// UpdateEvent applies the set fields of patch and re-validates the interval.
func (s *EventService) UpdateEvent(ctx context.Context, userID, id string, patch model.EventPatch) (*model.Event, error) {
	if patch.IsEmpty() {
		return nil, invalidInput("no fields to update")
	}
	if patch.Title != nil {
		trimmed := strings.TrimSpace(*patch.Title)
		patch.Title = &trimmed
	}

	ev, err := s.store.UpdateEvent(ctx, userID, id, func(ev *model.Event) error {
		patch.Apply(ev)
		ev.Description = normalizeText(ev.Description)
		ev.Category = normalizeText(ev.Category)
		ev.Location = normalizeText(ev.Location)
		return validateEvent(ev)
	})
	if err != nil {
		return nil, storeError("event", "update event", err)
	}

	s.metrics.IncEventUpdated()
	return ev, nil
}

// DeleteEvent removes an event owned by userID.
func (s *EventService) DeleteEvent(ctx context.Context, userID, id string) error {
	if err := s.store.DeleteEvent(ctx, userID, id); err != nil {
		return storeError("event", "delete event", err)
	}
	s.metrics.IncEventDeleted()
	return nil
}

// GetUpcomingEvents returns events starting within the next days, earliest first.
func (s *EventService) GetUpcomingEvents(ctx context.Context, userID string, days int) ([]*model.Event, error) {
	if days < 1 || days > MaxUpcomingDays {
		return nil, invalidInput("days must be between 1 and %d", MaxUpcomingDays)
	}

	now := s.now().UTC()
	events, err := s.store.EventsStartingBetween(ctx, userID, now, now.AddDate(0, 0, days))
	if err != nil {
		return nil, persistence("load upcoming events", err)
	}
	return events, nil
}

// GetEventsByCategory returns a user's events in category, latest first.
func (s *EventService) GetEventsByCategory(ctx context.Context, userID, category string) ([]*model.Event, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		return nil, invalidInput("category is required")
	}

	events, err := s.store.EventsByCategory(ctx, userID, category)
	if err != nil {
		return nil, persistence("load events by category", err)
	}
	return events, nil
}

// EventSummary describes calendar activity within a window.
type EventSummary struct {
	Start       time.Time
	End         time.Time
	Total       int64
	Categories  []model.CategoryCount
	BusiestDays []model.DayCount
}

// GenerateEventSummary counts events starting within [start, end], per
// category and per busiest day. The window defaults to the last 90 days.
func (s *EventService) GenerateEventSummary(ctx context.Context, userID string, start, end *time.Time) (*EventSummary, error) {
	now := s.now().UTC()
	summary := &EventSummary{Start: now.Add(-summaryWindow), End: now}
	if start != nil {
		summary.Start = start.UTC()
	}
	if end != nil {
		summary.End = end.UTC()
	}
	if summary.Start.After(summary.End) {
		return nil, invalidInput("start_date must not be after end_date")
	}
	defer func(begin time.Time) {
		s.metrics.ObserveAggregateDuration(s.now().Sub(begin))
	}(s.now())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.store.CountEvents(gctx, userID, summary.Start, summary.End)
		summary.Total = n
		return err
	})
	g.Go(func() error {
		counts, err := s.store.EventCategoryCounts(gctx, userID, summary.Start, summary.End)
		if err != nil {
			return err
		}
		summary.Categories = labelCategoryCounts(counts)
		return nil
	})
	g.Go(func() error {
		days, err := s.store.BusiestDays(gctx, userID, summary.Start, summary.End, busiestDaysLimit)
		summary.BusiestDays = days
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, persistence("summarize events", err)
	}
	return summary, nil
}

// labelCategoryCounts reports events without a category under
// model.UncategorizedLabel, merging with a category literally named that,
// and restores count-descending, name-ascending order.
func labelCategoryCounts(counts []model.CategoryCount) []model.CategoryCount {
	out := make([]model.CategoryCount, 0, len(counts))
	merged := -1
	for _, c := range counts {
		if c.Category == "" {
			c.Category = model.UncategorizedLabel
		}
		if c.Category == model.UncategorizedLabel {
			if merged >= 0 {
				out[merged].Count += c.Count
				continue
			}
			merged = len(out)
		}
		out = append(out, c)
	}

	slices.SortStableFunc(out, func(a, b model.CategoryCount) int {
		if a.Count != b.Count {
			return cmp.Compare(b.Count, a.Count)
		}
		return strings.Compare(a.Category, b.Category)
	})
	return out
}

// FindTimeConflicts returns events overlapping [start, end). Touching
// boundaries are not conflicts. excludeID skips one event, e.g. the one
// being rescheduled.
func (s *EventService) FindTimeConflicts(ctx context.Context, userID string, start, end time.Time, excludeID string) ([]*model.Event, error) {
	if err := validation.Event(start, end); err != nil {
		return nil, err
	}

	conflicts, err := s.store.OverlappingEvents(ctx, userID, start.UTC(), end.UTC(), excludeID)
	if err != nil {
		return nil, persistence("find conflicts", err)
	}
	return conflicts, nil
}

func validateEvent(ev *model.Event) error {
	if err := validation.EventTitle(ev.Title); err != nil {
		return err
	}
	if err := validation.Event(ev.StartTime, ev.EndTime); err != nil {
		return err
	}
	if err := validation.OptionalText("description", ev.Description, validation.MaxDescriptionLength); err != nil {
		return err
	}
	if err := validation.OptionalText("category", ev.Category, validation.MaxCategoryLength); err != nil {
		return err
	}
	return validation.OptionalText("location", ev.Location, validation.MaxLocationLength)
}
