package session

import (
	"context"
	"sync"
	"time"
)

// sweepInterval bounds how often idle sessions are scanned.
const sweepInterval = time.Minute

// ManagerConfig configures a Manager.
type ManagerConfig struct {
	Store    Store
	Verifier PasswordVerifier
	// IdleTTL drops sessions not seen for this long. Zero keeps them forever.
	IdleTTL time.Duration
	// OnEvict runs, without locks held, for every evicted browser id.
	OnEvict func(browserID string)
	// Now defaults to time.Now.
	Now func() time.Time
}

type entry struct {
	session  *Session
	lastSeen time.Time
}

// Manager keeps one Session per browser for the lifetime of the process, so
// persisted storage is read once per browser.
type Manager struct {
	cfg ManagerConfig

	mu        sync.Mutex
	sessions  map[string]*entry
	lastSweep time.Time
}

// NewManager creates a Manager.
func NewManager(cfg ManagerConfig) *Manager {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Manager{
		cfg:       cfg,
		sessions:  make(map[string]*entry),
		lastSweep: cfg.Now(),
	}
}

// Get returns the session for browserID, opening it on first use.
func (m *Manager) Get(ctx context.Context, browserID string) (*Session, error) {
	now := m.cfg.Now()
	evicted := m.sweep(now)
	for _, id := range evicted {
		if m.cfg.OnEvict != nil {
			m.cfg.OnEvict(id)
		}
	}

	m.mu.Lock()
	if e, ok := m.sessions[browserID]; ok {
		e.lastSeen = now
		m.mu.Unlock()
		return e.session, nil
	}
	m.mu.Unlock()

	// Storage is read outside the lock; a racing Open for the same browser
	// loses to whichever session was registered first.
	s, err := Open(ctx, m.cfg.Store, browserID, m.cfg.Verifier)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.sessions[browserID]; ok {
		e.lastSeen = now
		return e.session, nil
	}
	m.sessions[browserID] = &entry{session: s, lastSeen: now}
	return s, nil
}

// Anonymous returns a logged-out session for a browser seen for the first
// time. It is not tracked and storage is not read; the browser's next request,
// carrying its cookie, opens the tracked session. A Login on it still persists
// the token, so that tracked session starts authenticated.
func (m *Manager) Anonymous(browserID string) *Session {
	return &Session{
		browserID: browserID,
		store:     m.cfg.Store,
		verifier:  m.cfg.Verifier,
	}
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *Manager) sweep(now time.Time) []string {
	if m.cfg.IdleTTL <= 0 {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if now.Sub(m.lastSweep) < sweepInterval {
		return nil
	}
	m.lastSweep = now

	var evicted []string
	for id, e := range m.sessions {
		if now.Sub(e.lastSeen) > m.cfg.IdleTTL {
			delete(m.sessions, id)
			evicted = append(evicted, id)
		}
	}
	return evicted
}
