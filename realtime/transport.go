package realtime

import (
	"context"
	"net/http"
)

// MessageConn is one established transport connection. ReadMessage blocks
// until a message arrives, the connection drops, or Close is called.
// WriteMessage must be safe for concurrent use.
type MessageConn interface {
	ReadMessage() ([]byte, error)
	WriteMessage(data []byte) error
	Close() error
}

// Transport dials realtime endpoints. Implementations must honor ctx
// cancellation during the handshake.
type Transport interface {
	Dial(ctx context.Context, url string, header http.Header) (MessageConn, error)
}
