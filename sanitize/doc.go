// Package sanitize escapes HTML-significant characters in decoded request
// bodies at the ingress boundary.
//
// Escaping is not idempotent (re-applying it double-escapes "&"), so it must
// run exactly once per request. Form-encoded bodies are rewritten value by
// value; JSON bodies are walked recursively and only string leaves are
// touched. Fields whose names look credential-like (password, token, secret,
// key) are never rewritten.
package sanitize
