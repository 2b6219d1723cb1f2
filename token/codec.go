package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"time"

	"github.com/google/uuid"
)

// domainContext separates CSRF token HMACs from any other use of the same
// secret key.
const domainContext = "goshield.csrf.v1"

// ErrEmptySecret is returned by [Generate] when no secret key is configured.
var ErrEmptySecret = errors.New("empty secret key")

// Generate produces a new CSRF token bound to sessionID.
//
// The token is the hex-encoded HMAC-SHA256, under secret, of a fixed
// domain-separation context, the session identifier, a random UUID nonce, and
// the current nanosecond timestamp. The nonce guarantees that two calls for
// the same key and session never collide; neither the nonce nor the timestamp
// is recoverable from the token, and verification never tries to.
func Generate(secret []byte, sessionID string) (string, error) {
	if len(secret) == 0 {
		return "", ErrEmptySecret
	}

	nonce, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}

	var ts [8]byte
	binary.BigEndian.PutUint64(ts[:], uint64(time.Now().UnixNano()))

	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(domainContext))
	mac.Write([]byte(sessionID))
	mac.Write(nonce[:])
	mac.Write(ts[:])

	return hex.EncodeToString(mac.Sum(nil)), nil
}

// Verify reports whether presented matches stored. It is false whenever
// either value is absent, and otherwise delegates to the constant-time
// comparator. Verification failures are booleans, never errors.
func Verify(stored, presented string) bool {
	if stored == "" || presented == "" {
		return false
	}
	return Equal([]byte(stored), []byte(presented))
}
