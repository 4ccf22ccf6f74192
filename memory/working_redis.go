package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisWorkingStore is a WorkingStore backed by Redis SETEX entries, mirroring
// the keyspace conventions the tool queue client uses for worker heartbeats:
// a namespaced key per entry and a per-session index set for enumeration.
type redisWorkingStore struct {
	client     *redis.Client
	defaultTTL time.Duration
}

// NewRedisWorkingStore constructs a Redis-backed WorkingStore.
func NewRedisWorkingStore(client *redis.Client, defaultTTL time.Duration) WorkingStore {
	return &redisWorkingStore{client: client, defaultTTL: defaultTTL}
}

func entryKey(sessionID, key string) string {
	return fmt.Sprintf("pera:working:%s:%s", sessionID, key)
}

func indexKey(sessionID string) string {
	return fmt.Sprintf("pera:working:index:%s", sessionID)
}

func (s *redisWorkingStore) Get(ctx context.Context, sessionID, key string) (any, error) {
	if key == "" {
		return nil, ErrInvalidKey
	}
	raw, err := s.client.Get(ctx, entryKey(sessionID, key)).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageFailed, err)
	}
	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}
	return value, nil
}

func (s *redisWorkingStore) Set(ctx context.Context, sessionID, key string, value any, ttl time.Duration) error {
	if key == "" {
		return ErrInvalidKey
	}
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, entryKey(sessionID, key), raw, ttl)
	pipe.SAdd(ctx, indexKey(sessionID), key)
	pipe.Expire(ctx, indexKey(sessionID), ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageFailed, err)
	}
	return nil
}

func (s *redisWorkingStore) Delete(ctx context.Context, sessionID, key string) error {
	n, err := s.client.Del(ctx, entryKey(sessionID, key)).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorageFailed, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	s.client.SRem(ctx, indexKey(sessionID), key)
	return nil
}

func (s *redisWorkingStore) ClearSession(ctx context.Context, sessionID string) error {
	keys, err := s.client.SMembers(ctx, indexKey(sessionID)).Result()
	if err != nil && err != redis.Nil {
		return fmt.Errorf("%w: %v", ErrStorageFailed, err)
	}
	pipe := s.client.TxPipeline()
	for _, k := range keys {
		pipe.Del(ctx, entryKey(sessionID, k))
	}
	pipe.Del(ctx, indexKey(sessionID))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageFailed, err)
	}
	return nil
}

func (s *redisWorkingStore) Keys(ctx context.Context, sessionID string) ([]string, error) {
	candidates, err := s.client.SMembers(ctx, indexKey(sessionID)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrStorageFailed, err)
	}
	live := make([]string, 0, len(candidates))
	for _, k := range candidates {
		exists, err := s.client.Exists(ctx, entryKey(sessionID, k)).Result()
		if err != nil {
			continue
		}
		if exists == 1 {
			live = append(live, k)
		} else {
			s.client.SRem(ctx, indexKey(sessionID), k)
		}
	}
	return live, nil
}
