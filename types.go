package goClient

import (
	"context"
	"io"

	internaldiag "github.com/Veltrix07/goClient/internal/diag"
	"github.com/Veltrix07/goClient/realtime"
	"github.com/Veltrix07/goClient/storage"
)

// Storage is the durable key/value backend the client persists credentials
// to. See [storage.Storage] for the contract; [storage.NewRedisStore] and
// [storage.NewMemory] are the shipped implementations.
type Storage = storage.Storage

// RefreshFunc exchanges an expired credential for a fresh token, typically by
// calling the refresh endpoint of the backing API. It must return the new
// token string or an error; it must not persist anything itself.
type RefreshFunc func(ctx context.Context) (string, error)

// ConnState defines a public type used by goClient APIs.
type ConnState = realtime.State

const (
	// ConnDisconnected is an exported constant or variable used by the client core.
	ConnDisconnected = realtime.StateDisconnected
	// ConnConnecting is an exported constant or variable used by the client core.
	ConnConnecting = realtime.StateConnecting
	// ConnConnected is an exported constant or variable used by the client core.
	ConnConnected = realtime.StateConnected
	// ConnReconnecting is an exported constant or variable used by the client core.
	ConnReconnecting = realtime.StateReconnecting
)

// RealtimeEvent is the wire envelope exchanged with realtime endpoints.
type RealtimeEvent = realtime.Event

// RealtimeHandler receives dispatched inbound realtime events.
type RealtimeHandler = realtime.Handler

// RealtimeListener identifies one handler registration on a realtime
// connection; see [realtime.Conn.On] and [realtime.Conn.Off].
type RealtimeListener = realtime.Listener

// DiagEvent defines a public type used by goClient APIs.
type DiagEvent = internaldiag.Event

// DiagEventType defines a public type used by goClient APIs.
type DiagEventType = internaldiag.EventType

// DiagSink receives emitted diagnostics events.
type DiagSink = internaldiag.Sink

// NoOpDiagSink drops diagnostics events.
type NoOpDiagSink = internaldiag.NoOpSink

// ChannelDiagSink writes diagnostics events into a buffered channel.
type ChannelDiagSink = internaldiag.ChannelSink

// JSONWriterDiagSink writes one JSON object per diagnostics event.
type JSONWriterDiagSink = internaldiag.JSONWriterSink

// NewChannelDiagSink describes the newchanneldiagsink operation and its observable behavior.
func NewChannelDiagSink(buffer int) *ChannelDiagSink {
	return internaldiag.NewChannelSink(buffer)
}

// NewJSONWriterDiagSink describes the newjsonwriterdiagsink operation and its observable behavior.
func NewJSONWriterDiagSink(w io.Writer) *JSONWriterDiagSink {
	return internaldiag.NewJSONWriterSink(w)
}
