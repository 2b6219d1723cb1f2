package session

import (
	"context"
	"errors"
)

// ErrNoToken is returned by [Store.Token] when the session has no stored
// CSRF token yet.
var ErrNoToken = errors.New("no token stored for session")

// ErrNotFound is returned by [Store.Value] when the key has no value for the
// session.
var ErrNotFound = errors.New("session value not found")

// ErrStoreUnavailable wraps backend transport failures. The pipeline treats
// it (and any other non-sentinel error) as fail-closed.
var ErrStoreUnavailable = errors.New("session store unavailable")

// Store is the external session collaborator: one mutable CSRF token slot per
// session plus arbitrary key/value storage. Implementations must support
// concurrent access across distinct sessions; concurrent writes to the same
// session may race and the last write wins.
type Store interface {
	// Token returns the session's current CSRF token, or ErrNoToken.
	Token(ctx context.Context, sessionID string) (string, error)

	// SetToken overwrites the session's token. This is the rotation
	// primitive: the previous value is discarded, never mutated in place.
	SetToken(ctx context.Context, sessionID, token string) error

	// Value returns the stored value for key, or ErrNotFound.
	Value(ctx context.Context, sessionID, key string) ([]byte, error)

	// SetValue stores value under key for the session.
	SetValue(ctx context.Context, sessionID, key string, value []byte) error

	// Destroy removes the session entirely, token included.
	Destroy(ctx context.Context, sessionID string) error
}
