package goShield

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"
)

func TestDispatcherDeliversToSink(t *testing.T) {
	sink := NewChannelSink(8)
	d := newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 8}, sink)
	t.Cleanup(d.Close)

	d.Emit(context.Background(), AuditEvent{EventType: AuditCsrfRejected})

	select {
	case event := <-sink.Events():
		if event.EventType != AuditCsrfRejected {
			t.Fatalf("unexpected event: %+v", event)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("expected the event to be dispatched")
	}
}

func TestDispatcherDisabledReturnsNil(t *testing.T) {
	if d := newAuditDispatcher(AuditConfig{}, NoOpSink{}); d != nil {
		t.Fatal("disabled audit must not start a dispatcher")
	}

	// Nil dispatchers are safe to use.
	var d *auditDispatcher
	d.Emit(context.Background(), AuditEvent{})
	d.Close()
	if d.Dropped() != 0 {
		t.Fatal("nil dispatcher must report zero drops")
	}
}

func TestDispatcherDropsWhenFull(t *testing.T) {
	block := make(chan struct{})
	sink := blockingSink{release: block}
	d := newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 1, DropIfFull: true}, sink)

	// Saturate the worker and the buffer, then overflow.
	for i := 0; i < 8; i++ {
		d.Emit(context.Background(), AuditEvent{EventType: AuditTokenIssued})
	}

	if d.Dropped() == 0 {
		t.Fatal("overflow must be counted as dropped")
	}

	close(block)
	d.Close()
}

type blockingSink struct {
	release chan struct{}
}

func (s blockingSink) Emit(_ context.Context, _ AuditEvent) {
	<-s.release
}

func TestDispatcherClosesCleanly(t *testing.T) {
	sink := NewChannelSink(16)
	d := newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 16}, sink)

	d.Emit(context.Background(), AuditEvent{EventType: AuditTokenRotated})
	d.Close()

	// Events already buffered are drained before the worker exits.
	select {
	case <-sink.Events():
	case <-time.After(2 * time.Second):
		t.Fatal("buffered events must drain on close")
	}

	// Emitting after close is a no-op, not a panic.
	d.Emit(context.Background(), AuditEvent{EventType: AuditTokenRotated})
}

func TestJSONWriterSink(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSONWriterSink(&buf)

	sink.Emit(context.Background(), AuditEvent{
		Timestamp: time.Unix(1700000000, 0).UTC(),
		EventType: AuditHostRejected,
		Host:      "evil.test",
	})

	var event AuditEvent
	if err := json.Unmarshal(buf.Bytes(), &event); err != nil {
		t.Fatalf("sink must write one JSON object per line: %v", err)
	}
	if event.EventType != AuditHostRejected || event.Host != "evil.test" {
		t.Fatalf("unexpected event: %+v", event)
	}
}
