package goShield

import "strings"

/*
====================================
PIPELINE CONFIG
====================================
*/

// Config defines a public type used by goShield APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	// SecretKey keys the CSRF token HMAC. At least 32 bytes.
	SecretKey []byte

	Hosts    HostConfig
	CSRF     CSRFConfig
	Sanitize SanitizeConfig
	Headers  HeaderConfig
	Audit    AuditConfig
	Metrics  MetricsConfig
}

/*
====================================
HOST CONFIG
====================================
*/

// HostConfig defines a public type used by goShield APIs.
//
// HostConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type HostConfig struct {
	// Patterns is the ordered allow-list: exact hosts, "*", or ".suffix"
	// domain wildcards.
	Patterns []string
	// Bypass accepts every host unchecked. Debug only.
	Bypass bool
}

/*
====================================
CSRF CONFIG
====================================
*/

// CSRFConfig defines a public type used by goShield APIs.
//
// CSRFConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type CSRFConfig struct {
	// Enabled turns the CSRF check on. Default true.
	Enabled bool
	// RotateOnSuccess replaces the session token after every successful
	// unsafe request. Default true.
	RotateOnSuccess bool
}

/*
====================================
SANITIZE CONFIG
====================================
*/

// SanitizeConfig defines a public type used by goShield APIs.
//
// SanitizeConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type SanitizeConfig struct {
	// Enabled turns body sanitization on. Default true.
	Enabled bool
	// FailClosed rejects bodies the sanitizer cannot handle with 415
	// instead of the default logged pass-through.
	FailClosed bool
}

/*
====================================
HEADER CONFIG
====================================
*/

// HeaderPair is one configured response header. Order is preserved.
type HeaderPair struct {
	Name  string
	Value string
}

// HeaderConfig defines a public type used by goShield APIs.
//
// HeaderConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type HeaderConfig struct {
	// ContentSecurityPolicy overrides the restrictive default CSP. Empty
	// keeps the default; set Disabled to drop the header entirely.
	ContentSecurityPolicy string
	// FrameOptions overrides the default "DENY".
	FrameOptions string
	// Extra headers are injected after the defaults, in order.
	Extra []HeaderPair
	// Disabled turns header injection off entirely.
	Disabled bool
}

/*
====================================
AUDIT CONFIG
====================================
*/

// AuditConfig defines a public type used by goShield APIs.
//
// AuditConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	// DropIfFull drops events instead of blocking when the buffer is full.
	DropIfFull bool
}

/*
====================================
METRICS CONFIG
====================================
*/

// MetricsConfig defines a public type used by goShield APIs.
//
// MetricsConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

const defaultContentSecurityPolicy = "default-src 'self'; frame-ancestors 'none'; base-uri 'self'"

const minSecretLength = 32

// DefaultConfig returns the configuration every Builder starts from.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		CSRF: CSRFConfig{
			Enabled:         true,
			RotateOnSuccess: true,
		},
		Sanitize: SanitizeConfig{
			Enabled: true,
		},
		Headers: HeaderConfig{
			ContentSecurityPolicy: defaultContentSecurityPolicy,
			FrameOptions:          "DENY",
		},
		Audit: AuditConfig{
			BufferSize: 256,
			DropIfFull: true,
		},
	}
}

// Validate describes the validate operation and its observable behavior.
//
// Validate may return an error when input validation, dependency calls, or security checks fail.
// Validate does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c Config) Validate() error {
	if len(c.SecretKey) < minSecretLength {
		return ErrSecretTooShort
	}
	if !c.Hosts.Bypass && len(compactPatterns(c.Hosts.Patterns)) == 0 {
		return ErrNoHostPatterns
	}
	return nil
}

// compactPatterns trims the same way hostpolicy.New does, so validation and
// the compiled policy agree on which patterns count.
func compactPatterns(patterns []string) []string {
	out := patterns[:0:0]
	for _, p := range patterns {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.SecretKey = cloneBytes(cfg.SecretKey)
	out.Hosts.Patterns = append([]string(nil), cfg.Hosts.Patterns...)
	out.Headers.Extra = append([]HeaderPair(nil), cfg.Headers.Extra...)
	return out
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
