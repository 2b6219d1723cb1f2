// Package middleware adapts net/http to the goShield security pipeline.
//
// # Protect
//
// [Protect] wraps an http.Handler so every request passes through
// Pipeline.Handle: host validation, the CSRF check, body sanitization, and
// security-header injection. It manages the session cookie the pipeline keys
// tokens on and hands the wrapped handler the possibly-sanitized body.
//
// # Architecture boundaries
//
// This package translates HTTP semantics into Pipeline calls. It does NOT
// implement security logic itself; all decisions are delegated to
// Pipeline.Handle.
//
// # What this package must NOT do
//
//   - Generate, compare, or store CSRF tokens (delegates to the pipeline).
//   - Access the session store (the pipeline handles I/O).
//   - Make accept/reject decisions beyond what Pipeline.Handle returns.
package middleware
