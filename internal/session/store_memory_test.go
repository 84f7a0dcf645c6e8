package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"credgen/internal/domain"
	"credgen/internal/fields"
	"credgen/pkg/platform/sentinel"
)

type MemoryStoreSuite struct {
	suite.Suite
	store *MemoryStore
	now   time.Time
	ctx   context.Context
}

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(MemoryStoreSuite))
}

func (s *MemoryStoreSuite) SetupTest() {
	s.now = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	s.store = NewMemoryStore(30*time.Minute, WithClock(func() time.Time { return s.now }))
	s.ctx = context.Background()
}

func (s *MemoryStoreSuite) TestRoundTrip() {
	state := domain.NewApplicationState("sess-1", s.now)
	state.Entities[fields.Name] = domain.TextValue("Priya Sharma")
	s.Require().NoError(s.store.Put(s.ctx, state))

	got, err := s.store.Get(s.ctx, "sess-1")
	s.Require().NoError(err)
	s.Equal("sess-1", got.ID)
	s.Equal(domain.StageGreeting, got.Stage)

	// The store hands out copies: mutating the result must not leak back.
	got.Stage = domain.StageClosed
	again, err := s.store.Get(s.ctx, "sess-1")
	s.Require().NoError(err)
	s.Equal(domain.StageGreeting, again.Stage)
}

func (s *MemoryStoreSuite) TestMissIsNotFound() {
	_, err := s.store.Get(s.ctx, "nope")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *MemoryStoreSuite) TestIdleExpiry() {
	state := domain.NewApplicationState("sess-2", s.now)
	s.Require().NoError(s.store.Put(s.ctx, state))

	s.now = s.now.Add(31 * time.Minute)
	_, err := s.store.Get(s.ctx, "sess-2")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *MemoryStoreSuite) TestPutRefreshesIdleClock() {
	state := domain.NewApplicationState("sess-3", s.now)
	s.Require().NoError(s.store.Put(s.ctx, state))

	s.now = s.now.Add(20 * time.Minute)
	s.Require().NoError(s.store.Put(s.ctx, state))

	s.now = s.now.Add(20 * time.Minute)
	_, err := s.store.Get(s.ctx, "sess-3")
	s.NoError(err)
}

func (s *MemoryStoreSuite) TestDeleteIsIdempotent() {
	state := domain.NewApplicationState("sess-4", s.now)
	s.Require().NoError(s.store.Put(s.ctx, state))

	s.NoError(s.store.Delete(s.ctx, "sess-4"))
	s.NoError(s.store.Delete(s.ctx, "sess-4"))

	_, err := s.store.Get(s.ctx, "sess-4")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *MemoryStoreSuite) TestIdleIDs() {
	old := domain.NewApplicationState("old", s.now)
	s.Require().NoError(s.store.Put(s.ctx, old))

	s.now = s.now.Add(45 * time.Minute)
	fresh := domain.NewApplicationState("fresh", s.now)
	s.Require().NoError(s.store.Put(s.ctx, fresh))

	ids, err := s.store.IdleIDs(s.ctx, s.now.Add(-30*time.Minute))
	s.Require().NoError(err)
	s.Equal([]string{"old"}, ids)
}

func TestLocksSerializeAndShrink(t *testing.T) {
	locks := NewLocks()

	var inCritical int
	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.Lock("same-session")
			defer unlock()
			inCritical++
			if inCritical != 1 {
				t.Error("two holders inside the critical section")
			}
			inCritical--
		}()
	}
	wg.Wait()

	locks.mu.Lock()
	remaining := len(locks.entries)
	locks.mu.Unlock()
	if remaining != 0 {
		t.Errorf("lock table should be empty after release, has %d entries", remaining)
	}
}

func TestSweeperDeletesOnlyIdleSessions(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	store := NewMemoryStore(0, WithClock(clock))
	ctx := context.Background()

	stale := domain.NewApplicationState("stale", now)
	if err := store.Put(ctx, stale); err != nil {
		t.Fatal(err)
	}

	now = now.Add(time.Hour)
	active := domain.NewApplicationState("active", now)
	if err := store.Put(ctx, active); err != nil {
		t.Fatal(err)
	}

	sweeper := NewSweeper(store, NewLocks(), 30*time.Minute, time.Minute,
		WithSweeperClock(clock))
	sweeper.Sweep(ctx)

	if _, err := store.Get(ctx, "stale"); err == nil {
		t.Error("stale session should have been swept")
	}
	if _, err := store.Get(ctx, "active"); err != nil {
		t.Errorf("active session should survive the sweep: %v", err)
	}
}
