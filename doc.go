// Package goShield provides an inbound-request security pipeline with
// session-bound CSRF protection, allowed-host validation, request-body
// sanitization, and response security-header injection.
//
// The package is designed for concurrent server workloads: Pipeline methods
// are safe to call from multiple goroutines after initialization through
// [Builder.Build].
//
// # Architecture boundaries
//
// goShield is the public surface. It exposes [Pipeline], [Builder], [Config],
// and value types (Request, Response, MetricsSnapshot, etc.). Leaf concerns
// live in public subpackages: token generation and comparison in token,
// host matching in hostpolicy, body rewriting in sanitize, storage backends
// in session, and the net/http adapter in middleware.
//
// # What this package must NOT do
//
//   - Expose store clients or their wire encodings in its public API.
//   - Perform I/O outside of Pipeline methods (construction via Builder is
//     allocation-only until Build).
//   - Import any sub-package that re-imports goShield (no import cycles).
//
// # Performance contract
//
// Handle is the hot path. Safe-method requests with a stored token must not
// touch the session store more than once, and configuration reads are a
// single atomic pointer load per request.
package goShield
