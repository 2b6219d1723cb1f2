// Package hostpolicy validates a request's declared host against an ordered
// list of allowed patterns, guarding against host-header injection.
//
// A pattern is the universal wildcard "*", an exact host, or a leading-dot
// domain-suffix wildcard: ".example.com" matches "example.com" and
// "api.example.com" but never "notexample.com".
package hostpolicy
