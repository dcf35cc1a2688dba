// Package session holds the operator's authentication state: a boolean
// "authenticated" flag backed by a token in persisted storage.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Token is the fixed placeholder credential persisted on login.
const Token = "demo_token"

// Navigation is where the caller should send the browser after an action.
type Navigation string

const (
	NavigateUsers Navigation = "/users"
	NavigateLogin Navigation = "/login"
)

var (
	// ErrValidation classifies locally detected input problems.
	ErrValidation = errors.New("validation failed")
	// ErrInvalidCredentials is returned by Login for an empty email or password,
	// or a password rejected by the configured verifier.
	ErrInvalidCredentials = fmt.Errorf("%w: invalid credentials", ErrValidation)
)

// PasswordVerifier optionally gates Login on the password.
type PasswordVerifier interface {
	Verify(password string) (bool, error)
}

// Session is the authentication state of one browser. Storage is read once,
// in Open; afterwards only Login and Logout change the state.
type Session struct {
	browserID string
	store     Store
	verifier  PasswordVerifier

	mu            sync.RWMutex
	authenticated bool
	token         string
}

// Open reads the persisted token for browserID. A present token means the
// session starts authenticated; the token is not validated anywhere.
func Open(ctx context.Context, store Store, browserID string, verifier PasswordVerifier) (*Session, error) {
	token, err := store.GetToken(ctx, browserID)
	if err != nil {
		return nil, fmt.Errorf("read session token: %w", err)
	}
	return &Session{
		browserID:     browserID,
		store:         store,
		verifier:      verifier,
		authenticated: token != "",
		token:         token,
	}, nil
}

// BrowserID returns the id of the browser owning this session.
func (s *Session) BrowserID() string {
	return s.browserID
}

// IsAuthenticated reports the in-memory flag.
func (s *Session) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.authenticated
}

// Token returns the current token, empty when logged out.
// It makes a Session usable as a bearer token source.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Login accepts any non-empty email and password pair, persists the
// placeholder token and marks the session authenticated.
func (s *Session) Login(ctx context.Context, email, password string) (Navigation, error) {
	if email == "" || password == "" {
		return "", ErrInvalidCredentials
	}
	if s.verifier != nil {
		ok, err := s.verifier.Verify(password)
		if err != nil {
			return "", fmt.Errorf("verify password: %w", err)
		}
		if !ok {
			return "", ErrInvalidCredentials
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.SetToken(ctx, s.browserID, Token); err != nil {
		return "", fmt.Errorf("persist session token: %w", err)
	}
	s.token = Token
	s.authenticated = true
	return NavigateUsers, nil
}

// Logout clears the persisted token and the flag, whatever the prior state.
// The in-memory state is cleared even when storage fails; the storage error
// is still returned.
func (s *Session) Logout(ctx context.Context) (Navigation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.token = ""
	s.authenticated = false
	if err := s.store.DeleteToken(ctx, s.browserID); err != nil {
		return NavigateLogin, fmt.Errorf("delete session token: %w", err)
	}
	return NavigateLogin, nil
}
