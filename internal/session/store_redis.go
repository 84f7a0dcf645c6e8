package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"credgen/internal/domain"
	"credgen/internal/platform/redis"
	"credgen/pkg/platform/sentinel"
)

const keyPrefix = "credgen:session:"

// RedisStore persists sessions as JSON values with Redis-native idle expiry.
// Every Put resets the TTL, so the key lifetime is the idle timeout, not an
// absolute one.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore creates a Redis-backed session store.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Get(ctx context.Context, id string) (*domain.ApplicationState, error) {
	data, err := s.client.Get(ctx, keyPrefix+id).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session %s: %w", id, err)
	}

	var state domain.ApplicationState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}
	return &state, nil
}

func (s *RedisStore) Put(ctx context.Context, state *domain.ApplicationState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", state.ID, err)
	}
	if err := s.client.Set(ctx, keyPrefix+state.ID, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("put session %s: %w", state.ID, err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, keyPrefix+id).Err(); err != nil {
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	return nil
}

// IdleIDs is always empty: Redis expires idle sessions natively, so the
// sweeper has nothing to do.
func (s *RedisStore) IdleIDs(context.Context, time.Time) ([]string, error) {
	return nil, nil
}
