package session

import (
	"bytes"
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
)

// memcachedEnvelope is the gob payload stored per session. Memcached has no
// server-side hash type, so the token and values travel in one item.
type memcachedEnvelope struct {
	Token  string
	Values map[string][]byte
}

// MemcachedStore is a Memcached-backed [Store]. Each session is one gob-encoded
// item; read-modify-write on a single session is not atomic, which matches the
// last-write-wins contract.
type MemcachedStore struct {
	client *memcache.Client
	prefix string
	ttl    time.Duration
}

// MemcachedConfig holds configuration for [NewMemcachedStore].
type MemcachedConfig struct {
	// Prefix namespaces all keys. Defaults to "gsh".
	Prefix string
	// TTL bounds session lifetime. Defaults to 24h. Memcached expirations
	// are second-granular.
	TTL time.Duration
	// Timeout bounds each memcached round trip. Defaults to 1s.
	Timeout time.Duration
}

// NewMemcachedStore creates a [MemcachedStore] for the given server addresses.
func NewMemcachedStore(cfg MemcachedConfig, servers ...string) *MemcachedStore {
	if cfg.Prefix == "" {
		cfg.Prefix = "gsh"
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 24 * time.Hour
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = time.Second
	}
	client := memcache.New(servers...)
	client.Timeout = cfg.Timeout
	return &MemcachedStore{
		client: client,
		prefix: cfg.Prefix,
		ttl:    cfg.TTL,
	}
}

func (s *MemcachedStore) key(sessionID string) string {
	return s.prefix + ":" + sessionID
}

func (s *MemcachedStore) load(sessionID string) (*memcachedEnvelope, error) {
	item, err := s.client.Get(s.key(sessionID))
	if err != nil {
		if errors.Is(err, memcache.ErrCacheMiss) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	var env memcachedEnvelope
	if err := gob.NewDecoder(bytes.NewReader(item.Value)).Decode(&env); err != nil {
		return nil, fmt.Errorf("%w: decode session: %v", ErrStoreUnavailable, err)
	}
	return &env, nil
}

func (s *MemcachedStore) save(sessionID string, env *memcachedEnvelope) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(env); err != nil {
		return fmt.Errorf("%w: encode session: %v", ErrStoreUnavailable, err)
	}
	item := &memcache.Item{
		Key:        s.key(sessionID),
		Value:      buf.Bytes(),
		Expiration: int32(s.ttl / time.Second),
	}
	if err := s.client.Set(item); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// Token returns the session's CSRF token or ErrNoToken.
func (s *MemcachedStore) Token(_ context.Context, sessionID string) (string, error) {
	env, err := s.load(sessionID)
	if err != nil {
		return "", err
	}
	if env == nil || env.Token == "" {
		return "", ErrNoToken
	}
	return env.Token, nil
}

// SetToken overwrites the session's token.
func (s *MemcachedStore) SetToken(_ context.Context, sessionID, token string) error {
	env, err := s.load(sessionID)
	if err != nil {
		return err
	}
	if env == nil {
		env = &memcachedEnvelope{}
	}
	env.Token = token
	return s.save(sessionID, env)
}

// Value returns the stored value for key or ErrNotFound.
func (s *MemcachedStore) Value(_ context.Context, sessionID, key string) ([]byte, error) {
	env, err := s.load(sessionID)
	if err != nil {
		return nil, err
	}
	if env == nil {
		return nil, ErrNotFound
	}
	val, ok := env.Values[key]
	if !ok {
		return nil, ErrNotFound
	}
	return val, nil
}

// SetValue stores value under key for the session.
func (s *MemcachedStore) SetValue(_ context.Context, sessionID, key string, value []byte) error {
	env, err := s.load(sessionID)
	if err != nil {
		return err
	}
	if env == nil {
		env = &memcachedEnvelope{}
	}
	if env.Values == nil {
		env.Values = make(map[string][]byte)
	}
	env.Values[key] = value
	return s.save(sessionID, env)
}

// Destroy removes the session entirely.
func (s *MemcachedStore) Destroy(_ context.Context, sessionID string) error {
	err := s.client.Delete(s.key(sessionID))
	if err != nil && !errors.Is(err, memcache.ErrCacheMiss) {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}
