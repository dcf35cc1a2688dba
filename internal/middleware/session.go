package middleware

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/penshort/adminboard/internal/auth"
	"github.com/penshort/adminboard/internal/session"
)

// BrowserCookieName names the cookie that identifies a browser.
const BrowserCookieName = "adminboard_browser"

// browserCookieMaxAge keeps the browser id across restarts, like local storage.
const browserCookieMaxAge = 365 * 24 * time.Hour

// SessionConfig configures the BrowserSession middleware.
type SessionConfig struct {
	Manager *session.Manager
	Logger  *slog.Logger
}

// BrowserSession identifies the browser by cookie and attaches its session to
// the context. A request without a valid cookie gets a new id and an
// untracked, logged-out session, so clients that never return the cookie
// leave nothing behind.
func BrowserSession(cfg SessionConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			browserID, ok := readBrowserID(r)
			if !ok {
				browserID = ulid.Make().String()
				http.SetCookie(w, &http.Cookie{
					Name:     BrowserCookieName,
					Value:    browserID,
					Path:     "/",
					MaxAge:   int(browserCookieMaxAge.Seconds()),
					HttpOnly: true,
					Secure:   isHTTPS(r),
					SameSite: http.SameSiteLaxMode,
				})
				setLogBrowserID(r.Context(), browserID)
				s := cfg.Manager.Anonymous(browserID)
				next.ServeHTTP(w, r.WithContext(auth.ContextWithSession(r.Context(), s)))
				return
			}
			setLogBrowserID(r.Context(), browserID)

			s, err := cfg.Manager.Get(r.Context(), browserID)
			if err != nil {
				cfg.Logger.Error("failed to open session",
					slog.String("browser_id", browserID),
					slog.String("error", err.Error()),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				http.Error(w, "Session storage unavailable", http.StatusServiceUnavailable)
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.ContextWithSession(r.Context(), s)))
		})
	}
}

// RequireAuth redirects requests without an authenticated session to loginPath.
func RequireAuth(loginPath string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !auth.IsAuthenticated(r.Context()) {
				http.Redirect(w, r, loginPath, http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// isHTTPS reports whether the client reached us over TLS, directly or
// through a proxy that terminated it.
func isHTTPS(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	return strings.EqualFold(strings.TrimSpace(r.Header.Get("X-Forwarded-Proto")), "https")
}

func readBrowserID(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(BrowserCookieName)
	if err != nil {
		return "", false
	}
	value := strings.TrimSpace(cookie.Value)
	if _, err := ulid.ParseStrict(value); err != nil {
		return "", false
	}
	return value, true
}
