package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/Veltrix07/goClient/internal/diag"
	"github.com/Veltrix07/goClient/internal/metrics"
)

var (
	// ErrAuthenticationUnavailable is an exported constant or variable used by the client core.
	ErrAuthenticationUnavailable = errors.New("no usable credential for realtime connect")
	// ErrConnectionUnavailable is an exported constant or variable used by the client core.
	ErrConnectionUnavailable = errors.New("realtime connection unavailable")
	// ErrConnStopped is an exported constant or variable used by the client core.
	//
	// It is returned by an in-flight connect attempt that was overtaken by
	// Stop; a later Start begins a fresh session.
	ErrConnStopped = errors.New("realtime connection stopped")
)

// State defines a public type used by goClient APIs.
type State int32

const (
	// StateDisconnected is an exported constant or variable used by the client core.
	StateDisconnected State = iota
	// StateConnecting is an exported constant or variable used by the client core.
	StateConnecting
	// StateConnected is an exported constant or variable used by the client core.
	StateConnected
	// StateReconnecting is an exported constant or variable used by the client core.
	StateReconnecting
)

// String describes the string operation and its observable behavior.
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	default:
		return "unknown"
	}
}

// Event is the wire envelope exchanged with realtime endpoints.
type Event struct {
	Type string          `json:"t"`
	Seq  int64           `json:"s,omitempty"`
	Data json.RawMessage `json:"d,omitempty"`
}

// Handler receives dispatched inbound events. Handlers run on the read loop
// goroutine; long work should be handed off.
type Handler func(Event)

// Listener identifies one handler registration. Go function values carry no
// reliable identity, so removal goes through the handle returned by [Conn.On]
// instead of the function itself. The zero value is never a live handle.
type Listener uint64

// TokenSource supplies a non-expired token for connection authentication.
type TokenSource interface {
	FreshToken(ctx context.Context) (string, error)
}

// Config defines a public type used by goClient APIs.
//
// Config instances are intended to be configured during initialization and
// then treated as immutable unless documented otherwise.
type Config struct {
	// Endpoint is the logical endpoint name used in diagnostics ("chat",
	// "notifications").
	Endpoint string
	// URL is the websocket endpoint to dial.
	URL string

	BaseDelay   time.Duration
	MaxDelay    time.Duration
	MaxAttempts int
}

func (c *Config) withDefaults() Config {
	out := *c
	if out.BaseDelay <= 0 {
		out.BaseDelay = DefaultBaseDelay
	}
	if out.MaxDelay <= 0 {
		out.MaxDelay = DefaultMaxDelay
	}
	if out.MaxAttempts <= 0 {
		out.MaxAttempts = DefaultMaxAttempts
	}
	return out
}

type listenerEntry struct {
	id Listener
	fn Handler
}

// Conn defines a public type used by goClient APIs. It is the connection
// manager for one logical realtime endpoint and is safe for concurrent use.
//
// gen is the session generation: every Stop and every successful connect
// advances it, so in-flight attempts and read loops from an earlier session
// detect that they are stale and stand down.
type Conn struct {
	cfg       Config
	id        string
	transport Transport
	tokens    TokenSource
	diag      *diag.Dispatcher
	metrics   *metrics.Metrics

	mu             sync.Mutex
	state          State
	conn           MessageConn
	gen            uint64
	attempts       int
	reconnectTimer *time.Timer

	seq atomic.Int64

	listenerMu  sync.RWMutex
	listenerSeq atomic.Uint64
	listeners   map[string][]listenerEntry
}

// NewConn describes the newconn operation and its observable behavior.
//
// NewConn does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NewConn(cfg Config, transport Transport, tokens TokenSource, d *diag.Dispatcher, m *metrics.Metrics) (*Conn, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("realtime: endpoint URL is required")
	}
	if transport == nil {
		transport = NewDialer()
	}
	if tokens == nil {
		return nil, fmt.Errorf("realtime: token source is required")
	}

	return &Conn{
		cfg:       cfg.withDefaults(),
		id:        uuid.NewString(),
		transport: transport,
		tokens:    tokens,
		diag:      d,
		metrics:   m,
		state:     StateDisconnected,
		listeners: make(map[string][]listenerEntry),
	}, nil
}

// ID returns the process-unique instance identifier of this connection.
func (c *Conn) ID() string {
	if c == nil {
		return ""
	}
	return c.id
}

// State describes the state operation and its observable behavior.
func (c *Conn) State() State {
	if c == nil {
		return StateDisconnected
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Start describes the start operation and its observable behavior.
//
// Starting a Connected or already-Connecting connection is a no-op. Starting
// after Stop begins a fresh session; starting while Reconnecting cancels the
// pending backoff timer and connects immediately.
// Start may return an error when input validation, dependency calls, or security checks fail.
func (c *Conn) Start(ctx context.Context) error {
	if c == nil {
		return ErrConnectionUnavailable
	}
	if ctx == nil {
		ctx = context.Background()
	}

	c.mu.Lock()
	if c.state == StateConnected || c.state == StateConnecting {
		c.mu.Unlock()
		return nil
	}
	if c.reconnectTimer != nil {
		c.reconnectTimer.Stop()
		c.reconnectTimer = nil
	}
	c.state = StateConnecting
	startGen := c.gen
	c.mu.Unlock()

	return c.connect(ctx, false, startGen)
}

// connect performs a single authenticate-and-dial cycle for the session
// identified by startGen. The caller must already have moved the state to
// Connecting.
func (c *Conn) connect(ctx context.Context, isRetry bool, startGen uint64) error {
	c.metrics.Inc(metrics.MetricConnectAttempt)

	token, err := c.tokens.FreshToken(ctx)
	if err != nil || token == "" {
		// No credential means no amount of retrying will help; stay down
		// until the caller authenticates and starts again.
		c.mu.Lock()
		if c.gen == startGen && c.state == StateConnecting {
			c.state = StateDisconnected
		}
		c.mu.Unlock()

		c.metrics.Inc(metrics.MetricConnectFailure)
		c.emitDiag(diag.EventConnectFailed, 0, false, ErrAuthenticationUnavailable.Error())
		if err != nil {
			return fmt.Errorf("%w: %v", ErrAuthenticationUnavailable, err)
		}
		return ErrAuthenticationUnavailable
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)

	start := time.Now()
	conn, err := c.transport.Dial(ctx, c.cfg.URL, header)
	if err != nil {
		c.metrics.Inc(metrics.MetricConnectFailure)

		c.mu.Lock()
		if c.gen != startGen {
			c.mu.Unlock()
			return ErrConnStopped
		}
		attempt := c.attempts
		retryErr := c.scheduleReconnectLocked()
		c.mu.Unlock()

		c.emitDiag(diag.EventConnectFailed, attempt, false, err.Error())
		if retryErr != nil {
			return retryErr
		}
		return fmt.Errorf("%w: %v", ErrConnectionUnavailable, err)
	}

	c.mu.Lock()
	if c.gen != startGen {
		c.mu.Unlock()
		_ = conn.Close()
		return ErrConnStopped
	}
	c.gen++
	gen := c.gen
	c.conn = conn
	c.state = StateConnected
	c.attempts = 0
	c.mu.Unlock()

	c.metrics.Inc(metrics.MetricConnectSuccess)
	c.metrics.Observe(metrics.MetricConnectLatency, time.Since(start))
	eventType := diag.EventConnected
	if isRetry {
		eventType = diag.EventReconnected
	}
	c.emitDiag(eventType, 0, true, "")

	go c.readLoop(conn, gen)
	return nil
}

// scheduleReconnectLocked arms the backoff timer for the next attempt.
// Caller holds c.mu. Returns a terminal error when the attempt cap is hit.
func (c *Conn) scheduleReconnectLocked() error {
	if c.attempts >= c.cfg.MaxAttempts {
		c.state = StateDisconnected
		c.metrics.Inc(metrics.MetricReconnectExhausted)
		return fmt.Errorf("%w: gave up after %d attempts", ErrConnectionUnavailable, c.attempts)
	}

	delay := Delay(c.cfg.BaseDelay, c.cfg.MaxDelay, c.attempts)
	c.attempts++
	c.state = StateReconnecting
	c.metrics.Inc(metrics.MetricReconnectScheduled)

	if c.reconnectTimer != nil {
		c.reconnectTimer.Stop()
	}
	c.reconnectTimer = time.AfterFunc(delay, func() {
		c.mu.Lock()
		// Stop or an external Start resolved the session already.
		if c.state != StateReconnecting {
			c.mu.Unlock()
			return
		}
		c.state = StateConnecting
		startGen := c.gen
		c.mu.Unlock()

		if err := c.connect(context.Background(), true, startGen); err != nil {
			log.Print("goClient: realtime reconnect failed: ", err)
		}
	})

	return nil
}

// readLoop drains inbound messages until the connection drops. gen guards
// against a stale loop acting on behalf of a newer session.
func (c *Conn) readLoop(conn MessageConn, gen uint64) {
	for {
		data, err := conn.ReadMessage()
		if err != nil {
			c.mu.Lock()
			if c.gen != gen {
				c.mu.Unlock()
				return
			}
			c.conn = nil
			retryErr := c.scheduleReconnectLocked()
			c.mu.Unlock()

			c.emitDiag(diag.EventConnectionLost, 0, false, err.Error())
			if retryErr != nil {
				log.Print("goClient: realtime connection lost: ", retryErr)
			}
			return
		}

		var event Event
		if err := json.Unmarshal(data, &event); err != nil {
			// Malformed frames are dropped; the connection stays up.
			continue
		}
		c.Dispatch(event)
	}
}

// Stop tears the connection down and cancels any pending reconnect. The
// session ends; a later Start opens a fresh one with the attempt counter
// reset.
func (c *Conn) Stop() {
	if c == nil {
		return
	}

	c.mu.Lock()
	c.state = StateDisconnected
	c.gen++
	c.attempts = 0
	if c.reconnectTimer != nil {
		c.reconnectTimer.Stop()
		c.reconnectTimer = nil
	}
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	if conn != nil {
		_ = conn.Close()
	}
	c.emitDiag(diag.EventStopped, 0, true, "")
}

// Send marshals and writes an event, assigning it the next sequence number.
// When the connection is down, Send performs exactly one connect-and-retry
// cycle before giving up.
func (c *Conn) Send(ctx context.Context, eventType string, data json.RawMessage) error {
	if c == nil {
		return ErrConnectionUnavailable
	}
	if ctx == nil {
		ctx = context.Background()
	}

	event := Event{
		Type: eventType,
		Seq:  c.seq.Add(1),
		Data: data,
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("realtime: marshal event: %w", err)
	}

	if err := c.write(payload); err == nil {
		return nil
	}

	c.metrics.Inc(metrics.MetricSendRetry)
	if err := c.Start(ctx); err != nil {
		c.metrics.Inc(metrics.MetricSendFailure)
		return fmt.Errorf("%w: reconnect for send failed: %v", ErrConnectionUnavailable, err)
	}
	if err := c.write(payload); err != nil {
		c.metrics.Inc(metrics.MetricSendFailure)
		return fmt.Errorf("%w: %v", ErrConnectionUnavailable, err)
	}
	return nil
}

func (c *Conn) write(payload []byte) error {
	c.mu.Lock()
	conn := c.conn
	state := c.state
	c.mu.Unlock()

	if conn == nil || state != StateConnected {
		return ErrConnectionUnavailable
	}
	return conn.WriteMessage(payload)
}

// On registers a handler for an event type and returns the handle that
// identifies this registration for [Conn.Off]. Registrations survive
// reconnects. A nil handler or empty event type returns the zero handle.
func (c *Conn) On(eventType string, fn Handler) Listener {
	if c == nil || fn == nil || eventType == "" {
		return 0
	}
	id := Listener(c.listenerSeq.Add(1))

	c.listenerMu.Lock()
	defer c.listenerMu.Unlock()

	c.listeners[eventType] = append(c.listeners[eventType], listenerEntry{id: id, fn: fn})
	return id
}

// Off removes the registration identified by a handle returned from On.
// Removing an unknown or already-removed handle is a no-op.
func (c *Conn) Off(eventType string, h Listener) {
	if c == nil || h == 0 {
		return
	}

	c.listenerMu.Lock()
	defer c.listenerMu.Unlock()

	entries := c.listeners[eventType]
	for i, entry := range entries {
		if entry.id == h {
			c.listeners[eventType] = append(entries[:i:i], entries[i+1:]...)
			if len(c.listeners[eventType]) == 0 {
				delete(c.listeners, eventType)
			}
			return
		}
	}
}

// Dispatch delivers an event to every handler registered for its type, in
// registration order. A panicking handler is isolated and never blocks
// delivery to later handlers.
func (c *Conn) Dispatch(event Event) {
	if c == nil {
		return
	}

	c.listenerMu.RLock()
	entries := make([]listenerEntry, len(c.listeners[event.Type]))
	copy(entries, c.listeners[event.Type])
	c.listenerMu.RUnlock()

	if len(entries) == 0 {
		return
	}
	c.metrics.Inc(metrics.MetricEventDispatched)

	for _, entry := range entries {
		c.safeInvoke(entry.fn, event)
	}
}

func (c *Conn) safeInvoke(fn Handler, event Event) {
	defer func() {
		if r := recover(); r != nil {
			c.metrics.Inc(metrics.MetricListenerPanic)
			log.Print("goClient: realtime listener panic: ", r)
		}
	}()
	fn(event)
}

// OnForeground forces an immediate connect when the connection is down,
// bypassing any pending backoff timer and resetting the attempt counter.
// Connected connections are left alone.
func (c *Conn) OnForeground(ctx context.Context) error {
	if c == nil {
		return ErrConnectionUnavailable
	}
	if ctx == nil {
		ctx = context.Background()
	}

	c.mu.Lock()
	if c.state == StateConnected || c.state == StateConnecting {
		c.mu.Unlock()
		return nil
	}
	if c.reconnectTimer != nil {
		c.reconnectTimer.Stop()
		c.reconnectTimer = nil
	}
	c.attempts = 0
	c.state = StateConnecting
	startGen := c.gen
	c.mu.Unlock()

	c.emitDiag(diag.EventForeground, 0, true, "")
	return c.connect(ctx, true, startGen)
}

// OnBackground notes the app moving to the background. The connection is
// kept open; servers reap idle connections on their own schedule.
func (c *Conn) OnBackground() {
	if c == nil {
		return
	}
	c.emitDiag(diag.EventBackground, 0, true, "")
}

func (c *Conn) emitDiag(eventType diag.EventType, attempt int, success bool, errMsg string) {
	if c.diag == nil {
		return
	}
	c.diag.Emit(context.Background(), diag.Event{
		Timestamp: time.Now(),
		EventType: eventType,
		Endpoint:  c.cfg.Endpoint,
		Attempt:   attempt,
		Success:   success,
		Error:     errMsg,
		Metadata:  map[string]string{"conn_id": c.id},
	})
}
