// Package token implements the CSRF token codec: keyed generation bound to a
// session identifier, constant-time verification, and XOR masking for tokens
// surfaced in response headers.
//
// Tokens are stateful: the generated value is stored against the session and
// verified by equality. Nothing is ever parsed back out of a token.
package token
