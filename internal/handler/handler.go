// Package handler provides the HTTP handlers of the dashboard: server-rendered
// pages for the operator and a few JSON and ops endpoints.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/penshort/adminboard/internal/apiclient"
	"github.com/penshort/adminboard/internal/auth"
	"github.com/penshort/adminboard/internal/dashboard"
	"github.com/penshort/adminboard/internal/metrics"
	"github.com/penshort/adminboard/internal/middleware"
	"github.com/penshort/adminboard/internal/model"
	"github.com/penshort/adminboard/internal/repository"
	"github.com/penshort/adminboard/internal/session"
)

// activityTimeout bounds a single activity write so a slow database never
// delays the redirect that follows an action.
const activityTimeout = 2 * time.Second

// Config holds the dependencies of a Handler.
type Config struct {
	Logger     *slog.Logger
	API        *apiclient.Client
	Workspaces *dashboard.Registry
	Activity   repository.ActivityLog
	Metrics    metrics.Recorder
}

// Handler serves the dashboard pages.
type Handler struct {
	logger     *slog.Logger
	api        *apiclient.Client
	workspaces *dashboard.Registry
	activity   repository.ActivityLog
	metrics    metrics.Recorder
}

// New creates a new Handler instance.
func New(cfg Config) *Handler {
	h := &Handler{
		logger:     cfg.Logger,
		api:        cfg.API,
		workspaces: cfg.Workspaces,
		activity:   cfg.Activity,
		metrics:    cfg.Metrics,
	}
	if h.logger == nil {
		h.logger = slog.Default()
	}
	if h.workspaces == nil {
		h.workspaces = dashboard.NewRegistry(h.logger)
	}
	if h.activity == nil {
		h.activity = repository.NoopActivityLog{}
	}
	if h.metrics == nil {
		h.metrics = metrics.NewNoop()
	}
	return h
}

// Root sends the browser to the users view or the login page.
// GET /
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	if isAuthenticated(r) {
		http.Redirect(w, r, string(session.NavigateUsers), http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, string(session.NavigateLogin), http.StatusSeeOther)
}

// NotFound handles 404 responses.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.renderError(w, r, http.StatusNotFound, "Page not found", "The page you are looking for does not exist.")
}

// MethodNotAllowed handles 405 responses.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	h.renderError(w, r, http.StatusMethodNotAllowed, "Method not allowed", "This page cannot be used that way.")
}

// workspace returns the caller's workspace. The API client it wraps reads the
// bearer token from the caller's session on every request.
func (h *Handler) workspace(r *http.Request) *dashboard.Workspace {
	s := auth.MustSessionFromContext(r.Context())
	return h.workspaces.Get(s.BrowserID(), h.api.WithTokens(s))
}

// recordActivity stores an activity event. Failures are logged only.
func (h *Handler) recordActivity(r *http.Request, action model.ActivityAction, subjectID string, tags ...string) {
	s := auth.SessionFromContext(r.Context())
	if s == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), activityTimeout)
	defer cancel()

	event := &model.ActivityEvent{
		BrowserID: s.BrowserID(),
		Action:    action,
		SubjectID: subjectID,
		Tags:      tags,
	}
	if err := h.activity.Record(ctx, event); err != nil {
		h.logger.Warn("failed to record activity",
			slog.String("action", string(action)),
			slog.String("error", err.Error()),
			slog.String("request_id", middleware.GetRequestID(r.Context())),
		)
	}
}

func isAuthenticated(r *http.Request) bool {
	return auth.IsAuthenticated(r.Context())
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
