package session

import (
	"context"
	"log/slog"
	"time"
)

// Sweeper deletes idle sessions on an interval. Each deletion happens under
// the session's lock, so an in-flight orchestrator operation always finishes
// against a consistent state before the session disappears.
type Sweeper struct {
	store    Store
	locks    *Locks
	ttl      time.Duration
	interval time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

// SweeperOption configures the Sweeper.
type SweeperOption func(*Sweeper)

// WithSweeperLogger sets a custom logger.
func WithSweeperLogger(logger *slog.Logger) SweeperOption {
	return func(s *Sweeper) {
		s.logger = logger
	}
}

// WithSweeperClock overrides the time source.
func WithSweeperClock(now func() time.Time) SweeperOption {
	return func(s *Sweeper) {
		s.now = now
	}
}

// NewSweeper creates a sweeper over the given store and lock table.
func NewSweeper(store Store, locks *Locks, ttl, interval time.Duration, opts ...SweeperOption) *Sweeper {
	s := &Sweeper{
		store:    store,
		locks:    locks,
		ttl:      ttl,
		interval: interval,
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run sweeps until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Sweep(ctx)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Sweep deletes every session idle past the TTL. Exported so tests and
// shutdown paths can trigger a pass directly.
func (s *Sweeper) Sweep(ctx context.Context) {
	ids, err := s.store.IdleIDs(ctx, s.now().Add(-s.ttl))
	if err != nil {
		s.logger.Error("session sweep failed", slog.String("error", err.Error()))
		return
	}

	for _, id := range ids {
		unlock := s.locks.Lock(id)
		if err := s.store.Delete(ctx, id); err != nil {
			s.logger.Error("session delete failed",
				slog.String("session_id", id),
				slog.String("error", err.Error()))
		} else {
			s.logger.Info("idle session expired", slog.String("session_id", id))
		}
		unlock()
	}
}
