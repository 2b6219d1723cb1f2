package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore is a Redis-backed [Store]. The token lives under its own string
// key and the key/value pairs in a hash, both sharing the configured TTL.
type RedisStore struct {
	redis  redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// RedisConfig holds configuration for [NewRedisStore].
type RedisConfig struct {
	// Prefix namespaces all keys. Defaults to "gsh".
	Prefix string
	// TTL bounds session lifetime. Defaults to 24h.
	TTL time.Duration
}

// NewRedisStore creates a [RedisStore] backed by the given client.
func NewRedisStore(client redis.UniversalClient, cfg RedisConfig) *RedisStore {
	if cfg.Prefix == "" {
		cfg.Prefix = "gsh"
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 24 * time.Hour
	}
	return &RedisStore{
		redis:  client,
		prefix: cfg.Prefix,
		ttl:    cfg.TTL,
	}
}

func (s *RedisStore) tokenKey(sessionID string) string {
	return s.prefix + ":tok:" + sessionID
}

func (s *RedisStore) valuesKey(sessionID string) string {
	return s.prefix + ":kv:" + sessionID
}

// Token returns the session's CSRF token or ErrNoToken.
func (s *RedisStore) Token(ctx context.Context, sessionID string) (string, error) {
	val, err := s.redis.Get(ctx, s.tokenKey(sessionID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrNoToken
		}
		return "", fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return val, nil
}

// SetToken overwrites the session's token and refreshes its TTL.
func (s *RedisStore) SetToken(ctx context.Context, sessionID, token string) error {
	if err := s.redis.Set(ctx, s.tokenKey(sessionID), token, s.ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// Value returns the stored value for key or ErrNotFound.
func (s *RedisStore) Value(ctx context.Context, sessionID, key string) ([]byte, error) {
	val, err := s.redis.HGet(ctx, s.valuesKey(sessionID), key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return val, nil
}

// SetValue stores value under key and refreshes the hash TTL.
func (s *RedisStore) SetValue(ctx context.Context, sessionID, key string, value []byte) error {
	hashKey := s.valuesKey(sessionID)
	_, err := s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, hashKey, key, value)
		pipe.Expire(ctx, hashKey, s.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// Destroy removes the session's token and values.
func (s *RedisStore) Destroy(ctx context.Context, sessionID string) error {
	if err := s.redis.Del(ctx, s.tokenKey(sessionID), s.valuesKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// Ping returns a point-in-time Redis availability check and latency.
func (s *RedisStore) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return time.Since(start), fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return time.Since(start), nil
}
