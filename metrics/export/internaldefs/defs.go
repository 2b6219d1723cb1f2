package internaldefs

import (
	goShield "github.com/MrEthical07/goShield"
)

// CounterDef defines a public type used by goShield APIs.
//
// CounterDef instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type CounterDef struct {
	ID   goShield.MetricID
	Name string
	Help string
}

// HistogramDef defines a public type used by goShield APIs.
//
// HistogramDef instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type HistogramDef struct {
	ID   goShield.MetricID
	Name string
	Help string
}

// CounterDefs is an exported constant or variable used by the security pipeline.
var CounterDefs = []CounterDef{
	{ID: goShield.MetricRequests, Name: "goshield_requests_total", Help: "Requests entering the pipeline."},
	{ID: goShield.MetricHostRejected, Name: "goshield_host_rejected_total", Help: "Requests rejected by host validation."},
	{ID: goShield.MetricCsrfVerified, Name: "goshield_csrf_verified_total", Help: "Unsafe requests that passed the CSRF check."},
	{ID: goShield.MetricCsrfRejected, Name: "goshield_csrf_rejected_total", Help: "Unsafe requests rejected by the CSRF check."},
	{ID: goShield.MetricTokenIssued, Name: "goshield_token_issued_total", Help: "First-touch CSRF token issuances."},
	{ID: goShield.MetricTokenRotated, Name: "goshield_token_rotated_total", Help: "CSRF token rotations after successful unsafe requests."},
	{ID: goShield.MetricBodySanitized, Name: "goshield_body_sanitized_total", Help: "Request bodies rewritten by the sanitizer."},
	{ID: goShield.MetricSanitizeBypassed, Name: "goshield_sanitize_bypassed_total", Help: "Request bodies passed through unsanitized."},
	{ID: goShield.MetricBodyRejected, Name: "goshield_body_rejected_total", Help: "Request bodies rejected under fail-closed sanitization."},
	{ID: goShield.MetricStoreFailure, Name: "goshield_store_failure_total", Help: "Session store failures observed by the pipeline."},
}

// HistogramDefs is an exported constant or variable used by the security pipeline.
var HistogramDefs = []HistogramDef{
	{ID: goShield.MetricHandleLatency, Name: "goshield_handle_latency_seconds", Help: "Handle latency histogram."},
}

// HistogramBounds is an exported constant or variable used by the security pipeline.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// HistogramBoundSuffix is an exported constant or variable used by the security pipeline.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets describes the normalizebuckets operation and its observable behavior.
//
// NormalizeBuckets may return an error when input validation, dependency calls, or security checks fail.
// NormalizeBuckets does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets describes the cumulativebuckets operation and its observable behavior.
//
// CumulativeBuckets may return an error when input validation, dependency calls, or security checks fail.
// CumulativeBuckets does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
