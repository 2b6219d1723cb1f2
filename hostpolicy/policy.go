package hostpolicy

import "strings"

// Policy is an immutable compiled host allow-list. A Policy is safe for
// concurrent use; build a new one and swap it to reconfigure.
type Policy struct {
	patterns []string
	bypass   bool
}

// New compiles an ordered pattern list into a Policy. bypass disables all
// checking and is meant for non-production debugging only.
func New(patterns []string, bypass bool) *Policy {
	p := &Policy{
		patterns: make([]string, 0, len(patterns)),
		bypass:   bypass,
	}
	for _, pat := range patterns {
		pat = strings.TrimSpace(pat)
		if pat != "" {
			p.patterns = append(p.patterns, pat)
		}
	}
	return p
}

// Bypass reports whether the policy accepts every host unchecked.
func (p *Policy) Bypass() bool {
	return p != nil && p.bypass
}

// Patterns returns a copy of the compiled pattern list.
func (p *Policy) Patterns() []string {
	if p == nil {
		return nil
	}
	out := make([]string, len(p.patterns))
	copy(out, p.patterns)
	return out
}

// Allowed reports whether host (optionally carrying a port suffix) matches
// any pattern. Patterns are tested in order; an empty pattern list rejects
// everything unless bypass is set.
func (p *Policy) Allowed(host string) bool {
	if p == nil {
		return false
	}
	if p.bypass {
		return true
	}

	// An empty host is not rejected up front: "*" accepts it, and no other
	// pattern can match it (empty patterns are dropped at compile time).
	host = stripPort(host)

	for _, pat := range p.patterns {
		switch {
		case pat == "*":
			return true
		case strings.HasPrefix(pat, "."):
			if matchesSuffix(host, pat) {
				return true
			}
		case pat == host:
			return true
		}
	}

	return false
}

// matchesSuffix implements the domain-suffix wildcard: pat is ".suffix" and
// matches the bare suffix or any host ending in ".suffix" with a dot on the
// label boundary.
func matchesSuffix(host, pat string) bool {
	suffix := pat[1:]
	if host == suffix {
		return true
	}
	if !strings.HasSuffix(host, pat) {
		return false
	}
	// The dot that pat starts with must sit on a label boundary, not inside
	// a longer label ("notexample.com" vs ".example.com").
	return len(host) > len(pat)
}

// stripPort removes a trailing :port. Bracketed IPv6 literals lose both the
// port and the brackets so patterns name the bare address.
func stripPort(host string) string {
	if strings.HasPrefix(host, "[") {
		if end := strings.IndexByte(host, ']'); end >= 0 {
			return host[1:end]
		}
		return host
	}
	if i := strings.IndexByte(host, ':'); i >= 0 {
		return host[:i]
	}
	return host
}
