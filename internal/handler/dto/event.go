package dto

import (
	"time"

	"github.com/planbook/planbook/internal/model"
)

// CreateEventRequest is the body of POST /events.
type CreateEventRequest struct {
	Title       string  `json:"title"`
	Description *string `json:"description,omitempty"`
	StartTime   *Time   `json:"start_time"`
	EndTime     *Time   `json:"end_time"`
	Category    *string `json:"category,omitempty"`
	Location    *string `json:"location,omitempty"`
}

// UpdateEventRequest is the body of PUT /events/{id}. Omitted fields are
// left unchanged; empty optional text clears it.
type UpdateEventRequest struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	StartTime   *Time   `json:"start_time,omitempty"`
	EndTime     *Time   `json:"end_time,omitempty"`
	Category    *string `json:"category,omitempty"`
	Location    *string `json:"location,omitempty"`
}

// Patch converts the request to a model patch.
func (r UpdateEventRequest) Patch() model.EventPatch {
	return model.EventPatch{
		Title:       r.Title,
		Description: r.Description,
		StartTime:   r.StartTime.Ptr(),
		EndTime:     r.EndTime.Ptr(),
		Category:    r.Category,
		Location:    r.Location,
	}
}

// EventResponse represents an event in API responses.
type EventResponse struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	Category    *string   `json:"category"`
	Location    *string   `json:"location"`
	CreatedAt   time.Time `json:"created_at"`
}

// EventEnvelope wraps a single event with a confirmation message.
type EventEnvelope struct {
	Message string        `json:"message,omitempty"`
	Event   EventResponse `json:"event"`
}

// CreateEventResponse is returned by POST /events. Conflicts lists
// existing events overlapping the new one.
type CreateEventResponse struct {
	Message   string          `json:"message"`
	Event     EventResponse   `json:"event"`
	Conflicts []EventResponse `json:"conflicts"`
}

// EventListResponse is one page of events.
type EventListResponse struct {
	Events      []EventResponse `json:"events"`
	Total       int             `json:"total"`
	Pages       int             `json:"pages"`
	CurrentPage int             `json:"current_page"`
}

// EventsResponse is a plain list of events.
type EventsResponse struct {
	Events []EventResponse `json:"events"`
}

// UpcomingEventsResponse is returned by GET /events/upcoming.
type UpcomingEventsResponse struct {
	UpcomingEvents []EventResponse `json:"upcoming_events"`
}

// ConflictsResponse is returned by GET /events/conflicts.
type ConflictsResponse struct {
	Conflicts []EventResponse `json:"conflicts"`
}

// CategoryCountResponse is the number of events in one category.
type CategoryCountResponse struct {
	Category string `json:"category"`
	Count    int64  `json:"count"`
}

// DayCountResponse is the number of events starting on one UTC day.
type DayCountResponse struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

// EventSummaryResponse is returned by GET /events/summary.
type EventSummaryResponse struct {
	TotalEvents       int64                   `json:"total_events"`
	StartDate         time.Time               `json:"start_date"`
	EndDate           time.Time               `json:"end_date"`
	CategoryBreakdown []CategoryCountResponse `json:"category_breakdown"`
	BusiestDays       []DayCountResponse      `json:"busiest_days"`
}

// ToEventResponse converts an Event model to its DTO.
func ToEventResponse(ev *model.Event) EventResponse {
	return EventResponse{
		ID:          ev.ID,
		UserID:      ev.UserID,
		Title:       ev.Title,
		Description: ev.Description,
		StartTime:   ev.StartTime,
		EndTime:     ev.EndTime,
		Category:    ev.Category,
		Location:    ev.Location,
		CreatedAt:   ev.CreatedAt,
	}
}

// ToEventResponses converts a slice of events.
func ToEventResponses(events []*model.Event) []EventResponse {
	out := make([]EventResponse, 0, len(events))
	for _, ev := range events {
		out = append(out, ToEventResponse(ev))
	}
	return out
}

// ToCategoryCounts converts per-category event counts.
func ToCategoryCounts(counts []model.CategoryCount) []CategoryCountResponse {
	out := make([]CategoryCountResponse, 0, len(counts))
	for _, c := range counts {
		out = append(out, CategoryCountResponse{Category: c.Category, Count: c.Count})
	}
	return out
}

// ToDayCounts converts busiest-day counts.
func ToDayCounts(days []model.DayCount) []DayCountResponse {
	out := make([]DayCountResponse, 0, len(days))
	for _, d := range days {
		out = append(out, DayCountResponse{Date: d.Date, Count: d.Count})
	}
	return out
}
