package middleware

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/penshort/adminboard/internal/auth"
	"github.com/penshort/adminboard/internal/session"
)

func newSessionChain(t *testing.T, store session.Store, next http.Handler) (http.Handler, *session.Manager) {
	t.Helper()
	manager := session.NewManager(session.ManagerConfig{Store: store})
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return BrowserSession(SessionConfig{Manager: manager, Logger: logger})(next), manager
}

// countingStore counts storage reads.
type countingStore struct {
	session.Store
	mu    sync.Mutex
	reads int
}

func (s *countingStore) GetToken(ctx context.Context, browserID string) (string, error) {
	s.mu.Lock()
	s.reads++
	s.mu.Unlock()
	return s.Store.GetToken(ctx, browserID)
}

func (s *countingStore) Reads() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reads
}

func TestBrowserSession_IssuesCookie(t *testing.T) {
	t.Parallel()

	var got *session.Session
	handler, _ := newSessionChain(t, session.NewMemoryStore(), http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = auth.SessionFromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.NotNil(t, got)
	assert.False(t, got.IsAuthenticated())
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	c := cookies[0]
	assert.Equal(t, BrowserCookieName, c.Name)
	assert.Equal(t, got.BrowserID(), c.Value)
	assert.True(t, c.HttpOnly)
	assert.False(t, c.Secure, "plain HTTP request")
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
	_, err := ulid.ParseStrict(c.Value)
	assert.NoError(t, err)
}

func TestBrowserSession_SecureCookieOverHTTPS(t *testing.T) {
	t.Parallel()

	handler, _ := newSessionChain(t, session.NewMemoryStore(), http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	tests := []struct {
		name string
		req  func() *http.Request
		want bool
	}{
		{"plain http", func() *http.Request { return httptest.NewRequest(http.MethodGet, "http://dash.test/", nil) }, false},
		{"direct tls", func() *http.Request { return httptest.NewRequest(http.MethodGet, "https://dash.test/", nil) }, true},
		{"proxy terminated tls", func() *http.Request {
			req := httptest.NewRequest(http.MethodGet, "http://dash.test/", nil)
			req.Header.Set("X-Forwarded-Proto", "HTTPS")
			return req
		}, true},
		{"proxy plain http", func() *http.Request {
			req := httptest.NewRequest(http.MethodGet, "http://dash.test/", nil)
			req.Header.Set("X-Forwarded-Proto", "http")
			return req
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, tt.req())
			cookies := rec.Result().Cookies()
			require.Len(t, cookies, 1)
			assert.Equal(t, tt.want, cookies[0].Secure)
		})
	}
}

func TestBrowserSession_FirstContactIsNotTracked(t *testing.T) {
	t.Parallel()

	store := &countingStore{Store: session.NewMemoryStore()}
	handler, manager := newSessionChain(t, store, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	for i := 0; i < 5; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/login", nil))
		require.Len(t, rec.Result().Cookies(), 1)
	}
	assert.Equal(t, 0, manager.Len(), "cookieless requests leave no session behind")
	assert.Equal(t, 0, store.Reads(), "cookieless requests never read storage")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/login", nil))
	cookie := rec.Result().Cookies()[0]

	req := httptest.NewRequest(http.MethodGet, "/login", nil)
	req.AddCookie(cookie)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, 1, manager.Len(), "a returning browser is tracked")
	assert.Equal(t, 1, store.Reads())
}

func TestBrowserSession_FirstContactLoginPersists(t *testing.T) {
	t.Parallel()

	handler, _ := newSessionChain(t, session.NewMemoryStore(), http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s := auth.MustSessionFromContext(r.Context())
		if r.Method == http.MethodPost {
			_, err := s.Login(r.Context(), "ops@example.com", "secret")
			require.NoError(t, err)
			return
		}
		if s.IsAuthenticated() {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/login", nil))
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)

	req := httptest.NewRequest(http.MethodGet, "/users", nil)
	req.AddCookie(cookies[0])
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestBrowserSession_ReusesCookie(t *testing.T) {
	t.Parallel()

	store := session.NewMemoryStore()
	browserID := ulid.Make().String()
	require.NoError(t, store.SetToken(context.Background(), browserID, session.Token))

	var got *session.Session
	handler, _ := newSessionChain(t, store, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = auth.SessionFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: BrowserCookieName, Value: browserID})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.NotNil(t, got)
	assert.Equal(t, browserID, got.BrowserID())
	assert.True(t, got.IsAuthenticated())
	assert.Empty(t, rec.Result().Cookies(), "existing cookie is not rewritten")
}

func TestBrowserSession_ReplacesMalformedCookie(t *testing.T) {
	t.Parallel()

	handler, _ := newSessionChain(t, session.NewMemoryStore(), http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: BrowserCookieName, Value: "not-a-ulid"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.NotEqual(t, "not-a-ulid", cookies[0].Value)
}

type brokenStore struct{ session.Store }

func (brokenStore) GetToken(context.Context, string) (string, error) {
	return "", errors.New("redis down")
}

func TestBrowserSession_StoreFailure(t *testing.T) {
	t.Parallel()

	called := false
	handler, _ := newSessionChain(t, brokenStore{}, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	req := httptest.NewRequest(http.MethodGet, "/users", nil)
	req.AddCookie(&http.Cookie{Name: BrowserCookieName, Value: ulid.Make().String()})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.False(t, called)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRequireAuth(t *testing.T) {
	t.Parallel()

	protected := RequireAuth("/login")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("no session redirects", func(t *testing.T) {
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/users", nil))
		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/login", rec.Header().Get("Location"))
	})

	t.Run("logged out session redirects", func(t *testing.T) {
		s, err := session.Open(context.Background(), session.NewMemoryStore(), "b1", nil)
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodGet, "/products", nil)
		req = req.WithContext(auth.ContextWithSession(req.Context(), s))

		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusSeeOther, rec.Code)
	})

	t.Run("authenticated passes", func(t *testing.T) {
		store := session.NewMemoryStore()
		require.NoError(t, store.SetToken(context.Background(), "b2", session.Token))
		s, err := session.Open(context.Background(), store, "b2", nil)
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodGet, "/products", nil)
		req = req.WithContext(auth.ContextWithSession(req.Context(), s))

		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}
