// Package session defines the session-store contract the pipeline depends on
// and ships Redis, Memcached, SQLite, and Postgres implementations.
//
// The pipeline only ever uses the token slot and the generic key/value
// operations; session cookie handling and wire formats belong to the caller.
package session
