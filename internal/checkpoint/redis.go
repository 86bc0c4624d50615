// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package checkpoint

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pdiddy/lexdraft/pkg/types"
)

const (
	keyPrefix  = "lexdraft:checkpoint:"
	defaultTTL = 24 * time.Hour
)

// RedisStore keeps checkpoints as JSON strings that expire after a TTL.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore connects to cfg.RedisAddr and pings it.
func NewRedisStore(ctx context.Context, cfg types.CheckpointConfig) (*RedisStore, error) {
	addr := strings.TrimPrefix(cfg.RedisAddr, "redis://")
	if addr == "" {
		addr = "localhost:6379"
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cfg.RedisPassword,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("pinging redis at %s: %w", addr, err)
	}
	return NewRedisStoreWithClient(client, cfg.TTL), nil
}

// NewRedisStoreWithClient wraps an existing client. A non-positive ttl uses
// 24 hours.
func NewRedisStoreWithClient(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &RedisStore{client: client, ttl: ttl}
}

// Close releases the client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Save stores the checkpoint and resets its expiry.
func (s *RedisStore) Save(ctx context.Context, key string, cp Checkpoint) error {
	data, err := json.Marshal(cp)
	if err != nil {
		return fmt.Errorf("marshaling checkpoint: %w", err)
	}
	if err := s.client.Set(ctx, keyPrefix+key, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("saving checkpoint %s: %w", key, err)
	}
	return nil
}

// Load returns the checkpoint for key.
func (s *RedisStore) Load(ctx context.Context, key string) (*Checkpoint, error) {
	data, err := s.client.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%s: %w", key, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("loading checkpoint %s: %w", key, err)
	}
	var cp Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, fmt.Errorf("parsing checkpoint %s: %w", key, err)
	}
	return &cp, nil
}

// Delete removes the checkpoint for key.
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("deleting checkpoint %s: %w", key, err)
	}
	return nil
}

// TTL returns the remaining lifetime of a checkpoint.
func (s *RedisStore) TTL(ctx context.Context, key string) (time.Duration, error) {
	return s.client.TTL(ctx, keyPrefix+key).Result()
}
