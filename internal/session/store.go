// Package session persists per-conversation application state and owns the
// concurrency primitives around it: a keyed per-session lock serializing all
// orchestrator operations, and a sweeper that expires idle sessions through
// the same lock so a session is never deleted mid-mutation.
package session

import (
	"context"
	"sync"
	"time"

	"credgen/internal/domain"
)

// Store persists application state keyed by session ID.
//
// Get returns sentinel.ErrNotFound for unknown and for expired sessions; an
// expired session is indistinguishable from one that never existed. Put
// refreshes the idle clock. Delete is idempotent.
type Store interface {
	Get(ctx context.Context, id string) (*domain.ApplicationState, error)
	Put(ctx context.Context, state *domain.ApplicationState) error
	Delete(ctx context.Context, id string) error

	// IdleIDs lists sessions whose last activity predates cutoff. Stores
	// with native expiry may return an empty list; the sweeper is then a
	// no-op for them.
	IdleIDs(ctx context.Context, cutoff time.Time) ([]string, error)
}

// Locks hands out one mutex per session ID. Entries are reference counted
// and removed once the last holder releases, so the map does not grow with
// historical session IDs.
type Locks struct {
	mu      sync.Mutex
	entries map[string]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// NewLocks creates an empty lock table.
func NewLocks() *Locks {
	return &Locks{entries: make(map[string]*lockEntry)}
}

// Lock blocks until the session's mutex is held and returns the release
// function.
func (l *Locks) Lock(id string) func() {
	l.mu.Lock()
	entry := l.entries[id]
	if entry == nil {
		entry = &lockEntry{}
		l.entries[id] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()
		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.entries, id)
		}
		l.mu.Unlock()
	}
}
