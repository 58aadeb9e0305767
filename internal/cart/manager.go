package cart

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Manager hands out one Synchronizer per storefront session, so every
// surface of a session (navbar badge, cart page, checkout) observes the
// same cart state. Sessions are keyed by the authenticated user or by the
// guest cart token.
type Manager struct {
	store    GuestStore
	upstream Upstream
	lg       *zap.Logger

	mu       sync.Mutex
	sessions map[string]*managedSession
}

type managedSession struct {
	sync     *Synchronizer
	lastSeen time.Time
}

// NewManager creates a Manager backed by the given guest store and upstream
// client.
func NewManager(store GuestStore, upstream Upstream, lg *zap.Logger) *Manager {
	return &Manager{
		store:    store,
		upstream: upstream,
		lg:       lg,
		sessions: make(map[string]*managedSession),
	}
}

// Session returns the synchronizer for the given session key, creating it
// on first use. The guest token is only consulted at creation time; it
// seeds the synchronizer's link to the persisted guest cart.
func (m *Manager) Session(key, guestToken string) *Synchronizer {
	m.mu.Lock()
	defer m.mu.Unlock()

	if ms, ok := m.sessions[key]; ok {
		ms.lastSeen = time.Now()
		return ms.sync
	}

	s := NewSynchronizer(m.store, m.upstream, guestToken, m.lg.Named("cart"))
	m.sessions[key] = &managedSession{sync: s, lastSeen: time.Now()}
	return s
}

// Drop forgets the session's synchronizer. Durable guest state is not
// touched; a later Session call reloads it from the store.
func (m *Manager) Drop(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, key)
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// StartCleanup launches a background goroutine that evicts sessions idle
// for longer than maxIdle. Evicted guest carts stay in the guest store and
// are reloaded when the session comes back. The goroutine stops when ctx is
// cancelled.
func (m *Manager) StartCleanup(ctx context.Context, interval, maxIdle time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				m.evictIdle(now, maxIdle)
			}
		}
	}()
}

func (m *Manager) evictIdle(now time.Time, maxIdle time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for key, ms := range m.sessions {
		if now.Sub(ms.lastSeen) >= maxIdle {
			delete(m.sessions, key)
		}
	}
}
