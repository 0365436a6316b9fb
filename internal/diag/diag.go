package diag

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"
)

// EventType enumerates the lifecycle moments the client core reports.
type EventType string

const (
	// EventConnected is an exported constant or variable used by the client core.
	EventConnected EventType = "connected"
	// EventReconnected is an exported constant or variable used by the client core.
	EventReconnected EventType = "reconnected"
	// EventConnectFailed is an exported constant or variable used by the client core.
	EventConnectFailed EventType = "connect_failed"
	// EventConnectionLost is an exported constant or variable used by the client core.
	EventConnectionLost EventType = "connection_lost"
	// EventStopped is an exported constant or variable used by the client core.
	EventStopped EventType = "stopped"
	// EventForeground is an exported constant or variable used by the client core.
	EventForeground EventType = "foreground_connect"
	// EventBackground is an exported constant or variable used by the client core.
	EventBackground EventType = "background"
	// EventTokenRefresh is an exported constant or variable used by the client core.
	EventTokenRefresh EventType = "token_refresh"
	// EventStorageRead is an exported constant or variable used by the client core.
	EventStorageRead EventType = "storage_read"
	// EventStorageWrite is an exported constant or variable used by the client core.
	EventStorageWrite EventType = "storage_write"
	// EventLogout is an exported constant or variable used by the client core.
	EventLogout EventType = "logout"
)

// Event is the canonical diagnostics event model used by internal dispatching
// and root APIs.
type Event struct {
	Timestamp time.Time         `json:"timestamp"`
	EventType EventType         `json:"event_type"`
	Endpoint  string            `json:"endpoint,omitempty"`
	Attempt   int               `json:"attempt,omitempty"`
	Success   bool              `json:"success"`
	Error     string            `json:"error,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// Sink receives emitted diagnostics events.
type Sink interface {
	Emit(ctx context.Context, event Event)
}

// NoOpSink drops diagnostics events.
type NoOpSink struct{}

// Emit describes the emit operation and its observable behavior.
func (NoOpSink) Emit(context.Context, Event) {}

// ChannelSink writes diagnostics events into a buffered channel.
type ChannelSink struct {
	events chan Event
}

// NewChannelSink describes the newchannelsink operation and its observable behavior.
func NewChannelSink(buffer int) *ChannelSink {
	if buffer <= 0 {
		buffer = 1
	}
	return &ChannelSink{
		events: make(chan Event, buffer),
	}
}

// Emit describes the emit operation and its observable behavior.
func (s *ChannelSink) Emit(ctx context.Context, event Event) {
	select {
	case s.events <- event:
	case <-ctx.Done():
	}
}

// Events describes the events operation and its observable behavior.
func (s *ChannelSink) Events() <-chan Event {
	return s.events
}

// JSONWriterSink writes one JSON object per line.
type JSONWriterSink struct {
	writer io.Writer
	mu     sync.Mutex
}

// NewJSONWriterSink describes the newjsonwritersink operation and its observable behavior.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return &JSONWriterSink{
		writer: w,
	}
}

// Emit describes the emit operation and its observable behavior.
func (s *JSONWriterSink) Emit(_ context.Context, event Event) {
	if s == nil || s.writer == nil {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, _ = s.writer.Write(append(data, '\n'))
}
