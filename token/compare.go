package token

import "crypto/subtle"

// Equal reports whether a and b are identical byte sequences.
//
// Unequal lengths are unequal immediately, without inspecting content. For
// equal lengths every byte pair is examined regardless of where the first
// mismatch occurs, so timing reveals nothing about the mismatch position.
func Equal(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare(a, b) == 1
}
