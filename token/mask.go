package token

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
)

// ErrInvalidMask is returned by [Unmask] for input that is not a well-formed
// masked token.
var ErrInvalidMask = errors.New("invalid masked token")

// Mask applies a fresh random one-time pad to tok and returns
// base64(pad || pad XOR tok). Every call produces a different encoding of the
// same token, so a token surfaced in response headers is never a stable
// compressible secret (BREACH).
func Mask(tok string) (string, error) {
	raw := []byte(tok)

	pad := make([]byte, len(raw))
	if _, err := rand.Read(pad); err != nil {
		return "", err
	}

	out := make([]byte, 0, len(raw)*2)
	out = append(out, pad...)
	for i, b := range raw {
		out = append(out, b^pad[i])
	}

	return base64.StdEncoding.EncodeToString(out), nil
}

// Unmask reverses [Mask]. It fails on undecodable or odd-length input.
func Unmask(masked string) (string, error) {
	decoded, err := base64.StdEncoding.DecodeString(masked)
	if err != nil {
		return "", ErrInvalidMask
	}
	if len(decoded) == 0 || len(decoded)%2 != 0 {
		return "", ErrInvalidMask
	}

	half := len(decoded) / 2
	pad, masked2 := decoded[:half], decoded[half:]

	raw := make([]byte, half)
	for i := range raw {
		raw[i] = masked2[i] ^ pad[i]
	}

	return string(raw), nil
}
