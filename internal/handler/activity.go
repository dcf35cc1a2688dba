package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/penshort/adminboard/internal/handler/dto"
	"github.com/penshort/adminboard/internal/middleware"
)

// Activity lists recent operator actions as JSON.
// GET /api/activity?limit=
func (h *Handler) Activity(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get(dto.FieldLimit); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "limit must be an integer", Code: "INVALID_LIMIT"})
			return
		}
		limit = n
	}

	events, err := h.activity.ListRecent(r.Context(), limit)
	if err != nil {
		h.logger.Error("failed to list activity",
			slog.String("error", err.Error()),
			slog.String("request_id", middleware.GetRequestID(r.Context())),
		)
		writeJSON(w, http.StatusServiceUnavailable, dto.ErrorResponse{Error: "activity log unavailable", Code: "UNAVAILABLE"})
		return
	}

	writeJSON(w, http.StatusOK, dto.ActivityListResponse{Data: events})
}
