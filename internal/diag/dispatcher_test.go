package diag

import (
	"context"
	"sync"
	"testing"
	"time"
)

// recordingSink gates delivery so tests can fill the dispatcher buffer
// deterministically.
type recordingSink struct {
	mu     sync.Mutex
	events []Event
	gate   chan struct{}
}

func (s *recordingSink) Emit(_ context.Context, event Event) {
	if s.gate != nil {
		<-s.gate
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

func TestNewDispatcherReturnsNilWhenDisabled(t *testing.T) {
	d := NewDispatcher(Config{Enabled: false}, &recordingSink{})
	if d != nil {
		t.Fatal("expected nil dispatcher when diagnostics are disabled")
	}

	// Every operation on a nil dispatcher must be a safe no-op.
	d.Emit(context.Background(), Event{EventType: EventConnected})
	d.Close()
	if got := d.Dropped(); got != 0 {
		t.Fatalf("expected 0 drops on nil dispatcher, got %d", got)
	}
}

func TestCloseDeliversBufferedEvents(t *testing.T) {
	sink := &recordingSink{}
	d := NewDispatcher(Config{Enabled: true, BufferSize: 8}, sink)

	for i := 0; i < 5; i++ {
		d.Emit(context.Background(), Event{Timestamp: time.Now(), EventType: EventConnected})
	}
	d.Close()

	if got := sink.count(); got != 5 {
		t.Fatalf("expected all 5 buffered events delivered by close, got %d", got)
	}
}

func TestEmitAfterCloseIsDiscarded(t *testing.T) {
	sink := &recordingSink{}
	d := NewDispatcher(Config{Enabled: true, BufferSize: 4}, sink)

	d.Close()
	d.Emit(context.Background(), Event{EventType: EventLogout})
	d.Close()

	if got := sink.count(); got != 0 {
		t.Fatalf("expected no deliveries after close, got %d", got)
	}
}

func TestDropIfFullCountsDiscardedEvents(t *testing.T) {
	gate := make(chan struct{})
	sink := &recordingSink{gate: gate}
	d := NewDispatcher(Config{Enabled: true, BufferSize: 1, DropIfFull: true}, sink)

	// The forwarder is blocked on the gate, so at most one event sits in
	// flight with it and one fills the buffer; the rest must be dropped,
	// never blocking the producer.
	for i := 0; i < 6; i++ {
		d.Emit(context.Background(), Event{EventType: EventConnectFailed})
	}
	if got := d.Dropped(); got < 4 {
		t.Fatalf("expected at least 4 dropped events, got %d", got)
	}

	close(gate)
	d.Close()

	delivered := sink.count()
	if delivered == 0 || delivered > 2 {
		t.Fatalf("expected 1 or 2 delivered events, got %d", delivered)
	}
	if uint64(delivered)+d.Dropped() != 6 {
		t.Fatalf("expected delivered+dropped to account for all 6 events, got %d+%d", delivered, d.Dropped())
	}
}
