package handler

import (
	"fmt"
	"net/http"

	"github.com/planbook/planbook/internal/metrics"
)

// MetricsHandler exposes in-memory metrics.
type MetricsHandler struct {
	snapshotter metrics.Snapshotter
}

// NewMetricsHandler creates a new MetricsHandler.
func NewMetricsHandler(snapshotter metrics.Snapshotter) *MetricsHandler {
	return &MetricsHandler{snapshotter: snapshotter}
}

// Metrics returns metrics in Prometheus exposition format.
func (h *MetricsHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	if h.snapshotter == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	snap := h.snapshotter.Snapshot()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4")

	writeMetric(w, "planbook_users_registered_total %d\n", snap.UsersRegistered)
	writeMetric(w, "planbook_users_deleted_total %d\n", snap.UsersDeleted)
	writeMetric(w, "planbook_logins_total{result=\"success\"} %d\n", snap.LoginsSucceeded)
	writeMetric(w, "planbook_logins_total{result=\"failure\"} %d\n", snap.LoginsFailed)

	writeMetric(w, "planbook_expenses_created_total %d\n", snap.ExpensesCreated)
	writeMetric(w, "planbook_expenses_updated_total %d\n", snap.ExpensesUpdated)
	writeMetric(w, "planbook_expenses_deleted_total %d\n", snap.ExpensesDeleted)

	writeMetric(w, "planbook_events_created_total %d\n", snap.EventsCreated)
	writeMetric(w, "planbook_events_updated_total %d\n", snap.EventsUpdated)
	writeMetric(w, "planbook_events_deleted_total %d\n", snap.EventsDeleted)

	writeMetric(w, "planbook_aggregate_duration_seconds_count %d\n", snap.AggregateDurationCount)
	writeMetric(w, "planbook_aggregate_duration_seconds_sum %.6f\n", float64(snap.AggregateDurationTotalNs)/1e9)

	writeMetric(w, "planbook_rate_limited_total %d\n", snap.RateLimited)
}

func writeMetric(w http.ResponseWriter, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
