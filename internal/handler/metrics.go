package handler

import (
	"fmt"
	"net/http"

	"github.com/penshort/adminboard/internal/metrics"
)

// Counter reports a live count, such as open sessions.
type Counter interface {
	Len() int
}

// MetricsHandler exposes in-memory metrics.
type MetricsHandler struct {
	snapshotter metrics.Snapshotter
	sessions    Counter
	workspaces  Counter
}

// NewMetricsHandler creates a new MetricsHandler. sessions and workspaces may be nil.
func NewMetricsHandler(snapshotter metrics.Snapshotter, sessions, workspaces Counter) *MetricsHandler {
	return &MetricsHandler{snapshotter: snapshotter, sessions: sessions, workspaces: workspaces}
}

// Metrics returns metrics in Prometheus exposition format.
// GET /metrics
func (h *MetricsHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	if h.snapshotter == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	snap := h.snapshotter.Snapshot()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4")

	writeMetric(w, "adminboard_logins_total{result=\"success\"} %d\n", snap.Logins)
	writeMetric(w, "adminboard_logins_total{result=\"rejected\"} %d\n", snap.LoginsRejected)
	writeMetric(w, "adminboard_logouts_total %d\n", snap.Logouts)

	writeMetric(w, "adminboard_products_created_total %d\n", snap.ProductsCreated)
	writeMetric(w, "adminboard_products_deleted_total %d\n", snap.ProductsDeleted)

	for _, s := range snap.Upstream {
		writeMetric(w, "adminboard_upstream_requests_total{op=%q,outcome=%q} %d\n", s.Op, s.Outcome, s.Count)
	}
	for _, s := range snap.Upstream {
		writeMetric(w, "adminboard_upstream_request_duration_seconds_sum{op=%q,outcome=%q} %.6f\n", s.Op, s.Outcome, float64(s.DurationTotalNs)/1e9)
	}

	for _, s := range snap.Activity {
		writeMetric(w, "adminboard_activity_events_total{stage=%q,outcome=%q} %d\n", s.Stage, s.Outcome, s.Count)
	}
	writeMetric(w, "adminboard_activity_queue_depth %d\n", snap.ActivityQueueDepth)

	if h.sessions != nil {
		writeMetric(w, "adminboard_sessions_active %d\n", h.sessions.Len())
	}
	if h.workspaces != nil {
		writeMetric(w, "adminboard_workspaces_active %d\n", h.workspaces.Len())
	}
}

func writeMetric(w http.ResponseWriter, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
