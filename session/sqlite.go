package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore is a SQLite-backed [Store] for single-node deployments. The
// token and key/value pairs live in separate tables keyed by session ID.
// SQLite allows one writer at a time, so all writes funnel through a mutex.
type SQLiteStore struct {
	db  *sql.DB
	ttl time.Duration

	writeMu sync.Mutex

	getToken *sql.Stmt
	setToken *sql.Stmt
	getValue *sql.Stmt
	setValue *sql.Stmt
}

// SQLiteConfig holds configuration for [NewSQLiteStore].
type SQLiteConfig struct {
	// TTL bounds session lifetime, enforced on read and by [SQLiteStore.Cleanup].
	// Defaults to 24h.
	TTL time.Duration
}

// NewSQLiteStore opens (creating if needed) the database at path and prepares
// the session tables. WAL mode and a busy timeout are forced via the DSN so
// concurrent readers never block behind the writer.
func NewSQLiteStore(path string, cfg SQLiteConfig) (*SQLiteStore, error) {
	if cfg.TTL <= 0 {
		cfg.TTL = 24 * time.Hour
	}

	dsn := path
	if !strings.Contains(dsn, "?") {
		dsn += "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: open sqlite: %v", ErrStoreUnavailable, err)
	}
	db.SetMaxOpenConns(1)

	const schema = `
CREATE TABLE IF NOT EXISTS csrf_tokens (
	session_id TEXT PRIMARY KEY,
	token      TEXT NOT NULL,
	expires_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS session_values (
	session_id TEXT NOT NULL,
	key        TEXT NOT NULL,
	value      BLOB NOT NULL,
	expires_at INTEGER NOT NULL,
	PRIMARY KEY (session_id, key)
);`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: create schema: %v", ErrStoreUnavailable, err)
	}

	s := &SQLiteStore{db: db, ttl: cfg.TTL}
	if err := s.prepare(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) prepare() error {
	var err error
	prep := func(q string) *sql.Stmt {
		if err != nil {
			return nil
		}
		var st *sql.Stmt
		st, err = s.db.Prepare(q)
		return st
	}

	s.getToken = prep(`SELECT token FROM csrf_tokens WHERE session_id = ? AND expires_at > ?`)
	s.setToken = prep(`INSERT INTO csrf_tokens (session_id, token, expires_at) VALUES (?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET token = excluded.token, expires_at = excluded.expires_at`)
	s.getValue = prep(`SELECT value FROM session_values WHERE session_id = ? AND key = ? AND expires_at > ?`)
	s.setValue = prep(`INSERT INTO session_values (session_id, key, value, expires_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(session_id, key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at`)

	if err != nil {
		return fmt.Errorf("%w: prepare statements: %v", ErrStoreUnavailable, err)
	}
	return nil
}

func (s *SQLiteStore) expiry() int64 {
	return time.Now().Add(s.ttl).Unix()
}

// Token returns the session's CSRF token or ErrNoToken.
func (s *SQLiteStore) Token(ctx context.Context, sessionID string) (string, error) {
	var token string
	err := s.getToken.QueryRowContext(ctx, sessionID, time.Now().Unix()).Scan(&token)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNoToken
		}
		return "", fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return token, nil
}

// SetToken overwrites the session's token and extends its expiry.
func (s *SQLiteStore) SetToken(ctx context.Context, sessionID, token string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if _, err := s.setToken.ExecContext(ctx, sessionID, token, s.expiry()); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// Value returns the stored value for key or ErrNotFound.
func (s *SQLiteStore) Value(ctx context.Context, sessionID, key string) ([]byte, error) {
	var value []byte
	err := s.getValue.QueryRowContext(ctx, sessionID, key, time.Now().Unix()).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return value, nil
}

// SetValue stores value under key and extends its expiry.
func (s *SQLiteStore) SetValue(ctx context.Context, sessionID, key string, value []byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if _, err := s.setValue.ExecContext(ctx, sessionID, key, value, s.expiry()); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// Destroy removes the session entirely.
func (s *SQLiteStore) Destroy(ctx context.Context, sessionID string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM csrf_tokens WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM session_values WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// Cleanup deletes expired rows. Call it periodically; reads already filter
// expired rows out.
func (s *SQLiteStore) Cleanup(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	now := time.Now().Unix()
	if _, err := s.db.ExecContext(ctx, `DELETE FROM csrf_tokens WHERE expires_at <= ?`, now); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM session_values WHERE expires_at <= ?`, now); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// Close releases the prepared statements and the database handle.
func (s *SQLiteStore) Close() error {
	for _, st := range []*sql.Stmt{s.getToken, s.setToken, s.getValue, s.setValue} {
		if st != nil {
			st.Close()
		}
	}
	return s.db.Close()
}
