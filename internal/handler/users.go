package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/penshort/adminboard/internal/dashboard"
	"github.com/penshort/adminboard/internal/handler/dto"
)

// Users renders the user directory, optionally with a user selected.
// GET /users?v=&q=&selected=
func (h *Handler) Users(w http.ResponseWriter, r *http.Request) {
	query := dto.ParseViewQuery(r.URL.Query())
	h.showUsers(w, r, query, query.Selected)
}

// UserDetail renders the user directory with the detail overlay open.
// GET /users/{id}?v=
func (h *Handler) UserDetail(w http.ResponseWriter, r *http.Request) {
	h.showUsers(w, r, dto.ParseViewQuery(r.URL.Query()), chi.URLParam(r, "id"))
}

func (h *Handler) showUsers(w http.ResponseWriter, r *http.Request, query dto.ViewQuery, selected string) {
	view := h.usersView(r, query.Handle)
	if query.Search != nil {
		view.SetSearch(*query.Search)
	}
	if selected == "" {
		view.CloseDetail()
	} else {
		view.Select(selected)
	}

	h.render(w, r, http.StatusOK, pageUsers, layoutData{
		Title:         "Users",
		Active:        "users",
		Authenticated: true,
		Content:       view.Page(),
	})
}

// usersView returns the mounted Users view for handle, mounting a fresh one
// when the handle is missing or stale.
func (h *Handler) usersView(r *http.Request, handle string) *dashboard.UsersView {
	ws := h.workspace(r)
	if v := ws.Users(handle); v != nil {
		return v
	}
	return ws.MountUsers(r.Context())
}
