package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// PostgresStore is a Postgres-backed [Store] for multi-node deployments
// without a shared cache tier.
type PostgresStore struct {
	db  *sql.DB
	ttl time.Duration
}

// PostgresConfig holds configuration for [NewPostgresStore].
type PostgresConfig struct {
	// TTL bounds session lifetime, enforced on read and by [PostgresStore.Cleanup].
	// Defaults to 24h.
	TTL time.Duration
	// MaxOpenConns caps the pool. Defaults to 10.
	MaxOpenConns int
}

// NewPostgresStore connects using the lib/pq DSN and prepares the session
// tables.
func NewPostgresStore(dsn string, cfg PostgresConfig) (*PostgresStore, error) {
	if cfg.TTL <= 0 {
		cfg.TTL = 24 * time.Hour
	}
	if cfg.MaxOpenConns <= 0 {
		cfg.MaxOpenConns = 10
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: open postgres: %v", ErrStoreUnavailable, err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)

	const schema = `
CREATE TABLE IF NOT EXISTS csrf_tokens (
	session_id TEXT PRIMARY KEY,
	token      TEXT NOT NULL,
	expires_at TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS session_values (
	session_id TEXT NOT NULL,
	key        TEXT NOT NULL,
	value      BYTEA NOT NULL,
	expires_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (session_id, key)
);`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: create schema: %v", ErrStoreUnavailable, err)
	}

	return &PostgresStore{db: db, ttl: cfg.TTL}, nil
}

// Token returns the session's CSRF token or ErrNoToken.
func (s *PostgresStore) Token(ctx context.Context, sessionID string) (string, error) {
	var token string
	err := s.db.QueryRowContext(ctx,
		`SELECT token FROM csrf_tokens WHERE session_id = $1 AND expires_at > now()`,
		sessionID).Scan(&token)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNoToken
		}
		return "", fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return token, nil
}

// SetToken overwrites the session's token and extends its expiry.
func (s *PostgresStore) SetToken(ctx context.Context, sessionID, token string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO csrf_tokens (session_id, token, expires_at) VALUES ($1, $2, now() + $3::interval)
		 ON CONFLICT (session_id) DO UPDATE SET token = EXCLUDED.token, expires_at = EXCLUDED.expires_at`,
		sessionID, token, s.ttl.String())
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// Value returns the stored value for key or ErrNotFound.
func (s *PostgresStore) Value(ctx context.Context, sessionID, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM session_values WHERE session_id = $1 AND key = $2 AND expires_at > now()`,
		sessionID, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return value, nil
}

// SetValue stores value under key and extends its expiry.
func (s *PostgresStore) SetValue(ctx context.Context, sessionID, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO session_values (session_id, key, value, expires_at) VALUES ($1, $2, $3, now() + $4::interval)
		 ON CONFLICT (session_id, key) DO UPDATE SET value = EXCLUDED.value, expires_at = EXCLUDED.expires_at`,
		sessionID, key, value, s.ttl.String())
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// Destroy removes the session entirely.
func (s *PostgresStore) Destroy(ctx context.Context, sessionID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM csrf_tokens WHERE session_id = $1`, sessionID); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM session_values WHERE session_id = $1`, sessionID); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// Cleanup deletes expired rows. Call it periodically; reads already filter
// expired rows out.
func (s *PostgresStore) Cleanup(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM csrf_tokens WHERE expires_at <= now()`); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM session_values WHERE expires_at <= now()`); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// Close releases the database handle.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
