package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/penshort/adminboard/internal/auth"
	"github.com/penshort/adminboard/internal/handler/dto"
	"github.com/penshort/adminboard/internal/middleware"
	"github.com/penshort/adminboard/internal/model"
	"github.com/penshort/adminboard/internal/session"
)

// Login page messages.
const (
	MsgInvalidCredentials = "Invalid credentials"
	MsgLoginUnavailable   = "Unable to sign in right now. Please try again."
	MsgLoginThrottled     = "Too many sign-in attempts. Try again in %d seconds."
)

type loginView struct {
	Email string
	Error string
}

// LoginPage shows the login form. An authenticated browser goes straight to
// the users view.
// GET /login
func (h *Handler) LoginPage(w http.ResponseWriter, r *http.Request) {
	if isAuthenticated(r) {
		http.Redirect(w, r, string(session.NavigateUsers), http.StatusSeeOther)
		return
	}
	h.renderLogin(w, r, http.StatusOK, loginView{})
}

// Login handles the login form.
// POST /login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	form, err := dto.ParseLoginForm(r)
	if err != nil {
		h.renderLogin(w, r, http.StatusBadRequest, loginView{Error: MsgInvalidCredentials})
		return
	}

	s := auth.MustSessionFromContext(r.Context())
	nav, err := s.Login(r.Context(), form.Email, form.Password)
	if err != nil {
		if errors.Is(err, session.ErrValidation) {
			h.metrics.IncLoginRejected()
			h.renderLogin(w, r, http.StatusUnprocessableEntity, loginView{Email: form.Email, Error: MsgInvalidCredentials})
			return
		}
		h.logger.Error("login failed",
			slog.String("browser_id", s.BrowserID()),
			slog.String("error", err.Error()),
			slog.String("request_id", middleware.GetRequestID(r.Context())),
		)
		h.renderLogin(w, r, http.StatusServiceUnavailable, loginView{Email: form.Email, Error: MsgLoginUnavailable})
		return
	}

	h.metrics.IncLogin()
	h.recordActivity(r, model.ActionLogin, "")
	h.logger.Info("operator logged in", slog.String("browser_id", s.BrowserID()))

	http.Redirect(w, r, string(nav), http.StatusSeeOther)
}

// LoginThrottled re-renders the login form for a rate-limited attempt.
func (h *Handler) LoginThrottled(w http.ResponseWriter, r *http.Request, retryAfter time.Duration) {
	seconds := int(retryAfter.Seconds())
	if seconds < 1 {
		seconds = 1
	}
	h.metrics.IncLoginRejected()
	h.renderLogin(w, r, http.StatusTooManyRequests, loginView{
		Email: r.PostFormValue(dto.FieldEmail),
		Error: fmt.Sprintf(MsgLoginThrottled, seconds),
	})
}

// Logout clears the session and discards the browser's views.
// POST /logout
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	s := auth.MustSessionFromContext(r.Context())
	wasAuthenticated := s.IsAuthenticated()

	nav, err := s.Logout(r.Context())
	if err != nil {
		h.logger.Error("failed to clear persisted session token",
			slog.String("browser_id", s.BrowserID()),
			slog.String("error", err.Error()),
			slog.String("request_id", middleware.GetRequestID(r.Context())),
		)
	}
	h.workspaces.Drop(s.BrowserID())

	if wasAuthenticated {
		h.metrics.IncLogout()
		h.recordActivity(r, model.ActionLogout, "")
	}

	http.Redirect(w, r, string(nav), http.StatusSeeOther)
}

func (h *Handler) renderLogin(w http.ResponseWriter, r *http.Request, status int, view loginView) {
	h.render(w, r, status, pageLogin, layoutData{Title: "Sign in", Content: view})
}
