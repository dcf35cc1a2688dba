package session

import (
	"context"
	"sync"
)

// Store persists one token per browser. GetToken returns "" when none is stored.
type Store interface {
	GetToken(ctx context.Context, browserID string) (string, error)
	SetToken(ctx context.Context, browserID, token string) error
	DeleteToken(ctx context.Context, browserID string) error
}

// MemoryStore keeps tokens in process memory. Tokens do not survive a restart.
type MemoryStore struct {
	mu     sync.RWMutex
	tokens map[string]string
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tokens: make(map[string]string)}
}

func (m *MemoryStore) GetToken(_ context.Context, browserID string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.tokens[browserID], nil
}

func (m *MemoryStore) SetToken(_ context.Context, browserID, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[browserID] = token
	return nil
}

func (m *MemoryStore) DeleteToken(_ context.Context, browserID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tokens, browserID)
	return nil
}
