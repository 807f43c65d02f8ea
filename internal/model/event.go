package model

import "time"

// UncategorizedLabel is reported for events stored without a category.
const UncategorizedLabel = "uncategorized"

// Event is a calendar entry owned by a user.
type Event struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Title       string    `json:"title"`
	Description *string   `json:"description,omitempty"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	Category    *string   `json:"category,omitempty"`
	Location    *string   `json:"location,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Overlaps reports whether the event intersects the half-open interval [start, end).
// Touching boundaries do not overlap.
func (e *Event) Overlaps(start, end time.Time) bool {
	return e.StartTime.Before(end) && e.EndTime.After(start)
}

// CategoryName returns the stored category or "" when unset.
func (e *Event) CategoryName() string {
	if e.Category == nil {
		return ""
	}
	return *e.Category
}

// EventPatch holds the fields of a partial event update.
type EventPatch struct {
	Title       *string
	Description *string
	StartTime   *time.Time
	EndTime     *time.Time
	Category    *string
	Location    *string
}

// IsEmpty reports whether the patch changes nothing.
func (p EventPatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.StartTime == nil &&
		p.EndTime == nil && p.Category == nil && p.Location == nil
}

// Apply copies the set fields of the patch onto e.
func (p EventPatch) Apply(e *Event) {
	if p.Title != nil {
		e.Title = *p.Title
	}
	if p.Description != nil {
		e.Description = p.Description
	}
	if p.StartTime != nil {
		e.StartTime = p.StartTime.UTC()
	}
	if p.EndTime != nil {
		e.EndTime = p.EndTime.UTC()
	}
	if p.Category != nil {
		e.Category = p.Category
	}
	if p.Location != nil {
		e.Location = p.Location
	}
}

// EventFilter narrows an event listing.
// StartDate bounds start_time from below, EndDate bounds end_time from above.
type EventFilter struct {
	Categories []string
	StartDate  *time.Time
	EndDate    *time.Time
}

// CategoryCount is the number of events in one category.
type CategoryCount struct {
	Category string
	Count    int64
}

// DayCount is the number of events starting on one UTC calendar day ("YYYY-MM-DD").
type DayCount struct {
	Date  string
	Count int64
}
