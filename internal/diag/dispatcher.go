package diag

import (
	"context"
	"sync"
	"sync/atomic"
)

// Config controls dispatcher buffering behavior.
type Config struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// Dispatcher decouples event producers from the sink: Emit enqueues onto a
// bounded channel and a single forwarding goroutine delivers in order.
// Close shuts the intake and waits until everything buffered has reached the
// sink. A nil *Dispatcher is valid and silently discards events.
type Dispatcher struct {
	sink       Sink
	events     chan Event
	dropIfFull bool

	// mu serializes Emit against the close of the events channel.
	mu     sync.RWMutex
	closed bool

	dropped   atomic.Uint64
	done      chan struct{}
	closeOnce sync.Once
}

// NewDispatcher describes the newdispatcher operation and its observable behavior.
//
// It returns nil when diagnostics are disabled.
func NewDispatcher(cfg Config, sink Sink) *Dispatcher {
	if !cfg.Enabled {
		return nil
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1
	}
	if sink == nil {
		sink = NoOpSink{}
	}

	d := &Dispatcher{
		sink:       sink,
		events:     make(chan Event, cfg.BufferSize),
		dropIfFull: cfg.DropIfFull,
		done:       make(chan struct{}),
	}
	go d.forward()

	return d
}

// forward delivers buffered events in order. Close closing the intake
// channel ends the range loop after the remaining buffer has drained.
func (d *Dispatcher) forward() {
	for event := range d.events {
		d.sink.Emit(context.Background(), event)
	}
	close(d.done)
}

// Emit describes the emit operation and its observable behavior.
//
// With DropIfFull set, a full buffer increments the drop counter instead of
// blocking the producer. Emit after Close is a no-op.
func (d *Dispatcher) Emit(ctx context.Context, event Event) {
	if d == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return
	}

	if d.dropIfFull {
		select {
		case d.events <- event:
		default:
			d.dropped.Add(1)
		}
		return
	}

	select {
	case d.events <- event:
	case <-ctx.Done():
	}
}

// Close describes the close operation and its observable behavior.
//
// It blocks until every already-accepted event has been handed to the sink.
func (d *Dispatcher) Close() {
	if d == nil {
		return
	}
	d.closeOnce.Do(func() {
		d.mu.Lock()
		d.closed = true
		close(d.events)
		d.mu.Unlock()
		<-d.done
	})
}

// Dropped reports how many events were discarded because the buffer was full.
func (d *Dispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}
