package handler

import (
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/planbook/planbook/internal/auth"
	"github.com/planbook/planbook/internal/handler/dto"
	"github.com/planbook/planbook/internal/model"
	"github.com/planbook/planbook/internal/service"
)

// EventHandler handles HTTP requests for calendar operations.
type EventHandler struct {
	svc    *service.EventService
	logger *slog.Logger
}

// NewEventHandler creates a new EventHandler.
func NewEventHandler(svc *service.EventService, logger *slog.Logger) *EventHandler {
	return &EventHandler{svc: svc, logger: logger}
}

// Create handles POST /events. Overlapping events are reported but do not
// block creation.
func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateEventRequest
	if err := decodeJSON(r, &req); err != nil {
		writeRequestError(w, err)
		return
	}

	input := service.CreateEventInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Location:    req.Location,
	}
	if req.StartTime != nil {
		input.StartTime = req.StartTime.Time
	}
	if req.EndTime != nil {
		input.EndTime = req.EndTime.Time
	}

	userID := auth.UserIDFromContext(r.Context())
	ev, conflicts, err := h.svc.CreateEvent(r.Context(), userID, input)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	h.logger.Info("event_created", "event_id", ev.ID, "user_id", userID, "conflicts", len(conflicts))
	writeJSON(w, http.StatusCreated, dto.CreateEventResponse{
		Message:   "event created successfully",
		Event:     dto.ToEventResponse(ev),
		Conflicts: dto.ToEventResponses(conflicts),
	})
}

// List handles GET /events.
func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	page, err := queryPage(q)
	if err != nil {
		writeRequestError(w, err)
		return
	}
	filter := model.EventFilter{Categories: queryCategories(q)}
	if filter.StartDate, err = queryTime(q, "start_date"); err != nil {
		writeRequestError(w, err)
		return
	}
	if filter.EndDate, err = queryTime(q, "end_date"); err != nil {
		writeRequestError(w, err)
		return
	}

	result, err := h.svc.ListEvents(r.Context(), auth.UserIDFromContext(r.Context()), filter, page)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.EventListResponse{
		Events:      dto.ToEventResponses(result.Items),
		Total:       result.Total,
		Pages:       result.Pages,
		CurrentPage: result.Page,
	})
}

// Get handles GET /events/{id}.
func (h *EventHandler) Get(w http.ResponseWriter, r *http.Request) {
	ev, err := h.svc.GetEvent(r.Context(), auth.UserIDFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.EventEnvelope{Event: dto.ToEventResponse(ev)})
}

// Update handles PUT /events/{id}.
func (h *EventHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateEventRequest
	if err := decodeJSON(r, &req); err != nil {
		writeRequestError(w, err)
		return
	}

	userID := auth.UserIDFromContext(r.Context())
	ev, err := h.svc.UpdateEvent(r.Context(), userID, chi.URLParam(r, "id"), req.Patch())
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	h.logger.Info("event_updated", "event_id", ev.ID, "user_id", userID)
	writeJSON(w, http.StatusOK, dto.EventEnvelope{
		Message: "event updated successfully",
		Event:   dto.ToEventResponse(ev),
	})
}

// Delete handles DELETE /events/{id}.
func (h *EventHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	id := chi.URLParam(r, "id")

	if err := h.svc.DeleteEvent(r.Context(), userID, id); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	h.logger.Info("event_deleted", "event_id", id, "user_id", userID)
	writeJSON(w, http.StatusOK, dto.MessageResponse{Message: "event deleted successfully"})
}

// Upcoming handles GET /events/upcoming?days=N.
func (h *EventHandler) Upcoming(w http.ResponseWriter, r *http.Request) {
	days, err := queryInt(r.URL.Query(), "days", service.DefaultUpcomingDays)
	if err != nil {
		writeRequestError(w, err)
		return
	}

	events, err := h.svc.GetUpcomingEvents(r.Context(), auth.UserIDFromContext(r.Context()), days)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.UpcomingEventsResponse{UpcomingEvents: dto.ToEventResponses(events)})
}

// ByCategory handles GET /events/category/{category}.
func (h *EventHandler) ByCategory(w http.ResponseWriter, r *http.Request) {
	category, err := url.PathUnescape(chi.URLParam(r, "category"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "category is not a valid path segment")
		return
	}

	events, err := h.svc.GetEventsByCategory(r.Context(), auth.UserIDFromContext(r.Context()), category)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.EventsResponse{Events: dto.ToEventResponses(events)})
}

// Summary handles GET /events/summary?start_date&end_date.
func (h *EventHandler) Summary(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	start, err := queryTime(q, "start_date")
	if err != nil {
		writeRequestError(w, err)
		return
	}
	end, err := queryTime(q, "end_date")
	if err != nil {
		writeRequestError(w, err)
		return
	}

	summary, err := h.svc.GenerateEventSummary(r.Context(), auth.UserIDFromContext(r.Context()), start, end)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.EventSummaryResponse{
		TotalEvents:       summary.Total,
		StartDate:         summary.Start,
		EndDate:           summary.End,
		CategoryBreakdown: dto.ToCategoryCounts(summary.Categories),
		BusiestDays:       dto.ToDayCounts(summary.BusiestDays),
	})
}

// Conflicts handles GET /events/conflicts?start_time&end_time&exclude_id.
func (h *EventHandler) Conflicts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	start, err := queryTime(q, "start_time")
	if err != nil {
		writeRequestError(w, err)
		return
	}
	end, err := queryTime(q, "end_time")
	if err != nil {
		writeRequestError(w, err)
		return
	}

	var from, to time.Time
	if start != nil {
		from = *start
	}
	if end != nil {
		to = *end
	}

	conflicts, err := h.svc.FindTimeConflicts(r.Context(), auth.UserIDFromContext(r.Context()), from, to, q.Get("exclude_id"))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ConflictsResponse{Conflicts: dto.ToEventResponses(conflicts)})
}
