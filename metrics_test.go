package goShield

import (
	"testing"
	"time"
)

func TestMetricsDisabledIsNoOp(t *testing.T) {
	m := NewMetrics(MetricsConfig{})

	m.Inc(MetricRequests)
	m.Observe(MetricHandleLatency, time.Millisecond)

	if m.Value(MetricRequests) != 0 {
		t.Fatal("disabled metrics must not count")
	}
	snap := m.Snapshot()
	if len(snap.Counters) != 0 || len(snap.Histograms) != 0 {
		t.Fatal("disabled snapshot must be empty")
	}
}

func TestMetricsIncAndSnapshot(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})

	m.Inc(MetricCsrfVerified)
	m.Inc(MetricCsrfVerified)
	m.Inc(MetricHostRejected)

	if m.Value(MetricCsrfVerified) != 2 {
		t.Fatalf("expected 2, got %d", m.Value(MetricCsrfVerified))
	}

	snap := m.Snapshot()
	if snap.Counters[MetricCsrfVerified] != 2 || snap.Counters[MetricHostRejected] != 1 {
		t.Fatalf("unexpected snapshot: %v", snap.Counters)
	}
}

func TestMetricsOutOfRangeIDIgnored(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})
	m.Inc(metricIDCount + 10)
	if m.Value(metricIDCount+10) != 0 {
		t.Fatal("out-of-range IDs must be ignored")
	}
}

func TestMetricsLatencyHistogram(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true, EnableLatencyHistograms: true})

	m.Observe(MetricHandleLatency, 3*time.Millisecond)
	m.Observe(MetricHandleLatency, 60*time.Millisecond)
	m.Observe(MetricHandleLatency, 2*time.Second)

	buckets := m.Snapshot().Histograms[MetricHandleLatency]
	if len(buckets) != histBucketCount {
		t.Fatalf("expected %d buckets, got %d", histBucketCount, len(buckets))
	}
	if buckets[0] != 1 || buckets[4] != 1 || buckets[7] != 1 {
		t.Fatalf("unexpected bucket distribution: %v", buckets)
	}
}

func TestMetricsHistogramDisabledByDefault(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})
	m.Observe(MetricHandleLatency, time.Millisecond)
	if len(m.Snapshot().Histograms) != 0 {
		t.Fatal("latency histograms must be opt-in")
	}
}
