package goShield

import "net/http"

// Request defines a public type used by goShield APIs.
//
// Request instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Request struct {
	// Method is the HTTP method verbatim, e.g. "POST".
	Method string
	// Host is the value the client addressed, optionally carrying a port.
	Host string
	// Header holds the request headers; lookups are case-insensitive per
	// http.Header semantics.
	Header http.Header
	// ContentType is the declared media type of Body, with parameters.
	ContentType string
	// Body is the raw request body. The pipeline may hand the handler a
	// rewritten copy; the original slice is never mutated.
	Body []byte
	// SessionID identifies the session the request belongs to. Empty means
	// no session: no token is issued and unsafe requests fail the CSRF
	// check.
	SessionID string
}

// Response defines a public type used by goShield APIs.
//
// Response instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// Handler is the application stage the pipeline dispatches to once every
// security check has passed. The request it receives carries the
// possibly-sanitized body.
type Handler func(req *Request) *Response

// SafeMethod reports whether method is one of the read-only verbs that skip
// the CSRF check. Unknown verbs are treated as unsafe.
func SafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return true
	default:
		return false
	}
}

// TokenHeader is the request and response header carrying the CSRF token.
// Presented tokens may be masked or raw; surfaced tokens are always masked.
const TokenHeader = "X-CSRF-Token"

// TokenField is the form or JSON body field checked for a presented token
// when the header is absent.
const TokenField = "csrf_token"
