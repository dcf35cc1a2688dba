package cache

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// sessionTokenPrefix is the Redis key prefix for persisted session tokens.
const sessionTokenPrefix = "session:token:"

// SessionStore persists session tokens in Redis, one key per browser.
// Keys carry no TTL: a token lives until logout.
type SessionStore struct {
	cache *Cache
}

// SessionStore returns a session.Store backed by this cache.
func (c *Cache) SessionStore() *SessionStore {
	return &SessionStore{cache: c}
}

func sessionTokenKey(browserID string) string {
	return sessionTokenPrefix + browserID
}

// GetToken returns the stored token, or "" when none is stored.
func (s *SessionStore) GetToken(ctx context.Context, browserID string) (string, error) {
	token, err := s.cache.client.Get(ctx, sessionTokenKey(browserID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get session token: %w", err)
	}
	return token, nil
}

// SetToken stores the token for a browser.
func (s *SessionStore) SetToken(ctx context.Context, browserID, token string) error {
	if err := s.cache.client.Set(ctx, sessionTokenKey(browserID), token, 0).Err(); err != nil {
		return fmt.Errorf("set session token: %w", err)
	}
	return nil
}

// DeleteToken removes the token for a browser. Deleting a missing key is not an error.
func (s *SessionStore) DeleteToken(ctx context.Context, browserID string) error {
	if err := s.cache.client.Del(ctx, sessionTokenKey(browserID)).Err(); err != nil {
		return fmt.Errorf("delete session token: %w", err)
	}
	return nil
}
