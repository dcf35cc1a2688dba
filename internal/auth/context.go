// Package auth provides request-scoped access to the operator session and the
// optional password gate applied at login.
package auth

import (
	"context"

	"github.com/penshort/adminboard/internal/session"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const sessionContextKey contextKey = "session"

// ContextWithSession adds the browser's session to the context.
func ContextWithSession(ctx context.Context, s *session.Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, s)
}

// SessionFromContext retrieves the session from the context.
// Returns nil if not present.
func SessionFromContext(ctx context.Context) *session.Session {
	s, ok := ctx.Value(sessionContextKey).(*session.Session)
	if !ok {
		return nil
	}
	return s
}

// MustSessionFromContext retrieves the session from the context.
// Panics if not present (use only when the session middleware has run).
func MustSessionFromContext(ctx context.Context) *session.Session {
	s := SessionFromContext(ctx)
	if s == nil {
		panic("session not found - ensure session middleware is applied")
	}
	return s
}

// IsAuthenticated reports whether the request carries an authenticated session.
func IsAuthenticated(ctx context.Context) bool {
	s := SessionFromContext(ctx)
	return s != nil && s.IsAuthenticated()
}
