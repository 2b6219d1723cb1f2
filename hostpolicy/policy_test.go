package hostpolicy

import "testing"

func TestAllowedExact(t *testing.T) {
	p := New([]string{"example.com"}, false)

	if !p.Allowed("example.com") {
		t.Fatal("exact host must match")
	}
	if p.Allowed("api.example.com") {
		t.Fatal("subdomain must not match an exact pattern")
	}
	if p.Allowed("evil.com") {
		t.Fatal("unrelated host must not match")
	}
}

func TestAllowedWildcardSuffix(t *testing.T) {
	p := New([]string{".example.com"}, false)

	cases := []struct {
		host string
		want bool
	}{
		{"example.com", true},
		{"api.example.com", true},
		{"a.b.example.com", true},
		{"notexample.com", false},
		{"example.com.evil.com", false},
		{"example.org", false},
	}
	for _, c := range cases {
		if got := p.Allowed(c.host); got != c.want {
			t.Fatalf("Allowed(%q) = %v, want %v", c.host, got, c.want)
		}
	}
}

func TestAllowedWildcardAll(t *testing.T) {
	p := New([]string{"*"}, false)
	for _, host := range []string{"example.com", "anything.at.all", "127.0.0.1", ""} {
		if !p.Allowed(host) {
			t.Fatalf("%q must match the * pattern", host)
		}
	}
	if New([]string{"example.com"}, false).Allowed("") {
		t.Fatal("empty host must not match a non-wildcard pattern")
	}
}

func TestAllowedEmptyListRejectsEverything(t *testing.T) {
	p := New(nil, false)
	if p.Allowed("example.com") {
		t.Fatal("empty pattern list must reject all hosts")
	}
	if p.Allowed("") {
		t.Fatal("empty pattern list must reject the empty host too")
	}
}

func TestAllowedStripsPort(t *testing.T) {
	p := New([]string{"example.com", "::1"}, false)

	if !p.Allowed("example.com:8080") {
		t.Fatal("port must be stripped before matching")
	}
	if !p.Allowed("[::1]:8080") {
		t.Fatal("bracketed IPv6 host with port must match")
	}
	if !p.Allowed("[::1]") {
		t.Fatal("bracketed IPv6 host without port must match")
	}
}

func TestBypassAllowsEverything(t *testing.T) {
	p := New(nil, true)
	if !p.Allowed("anything.example") {
		t.Fatal("bypass must allow every host")
	}
	if !p.Bypass() {
		t.Fatal("Bypass accessor must reflect configuration")
	}
}

func TestNewTrimsPatterns(t *testing.T) {
	p := New([]string{" example.com ", "", "  "}, false)
	if got := p.Patterns(); len(got) != 1 || got[0] != "example.com" {
		t.Fatalf("unexpected compiled patterns: %v", got)
	}
}
