package goClient

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Veltrix07/goClient/dedup"
	internaldiag "github.com/Veltrix07/goClient/internal/diag"
	"github.com/Veltrix07/goClient/realtime"
)

// Client is the top-level connection-resilience facade. It owns the
// credential store, the deduplicated data cache, and one realtime connection
// per configured endpoint. All methods are safe for concurrent use after
// [Builder.Build].
type Client struct {
	config  Config
	storage Storage
	refresh RefreshFunc
	diag    *internaldiag.Dispatcher
	metrics *Metrics

	tokenCalls *dedup.Group[string]
	dataCalls  *dedup.Group[json.RawMessage]

	creds credentialCache

	conns map[string]*realtime.Conn

	closed atomic.Bool

	// now is swapped in tests to control identity-cache expiry.
	now func() time.Time
}

// credentialCache is the in-memory tier of the credential store. loaded
// reports whether the memory state is authoritative; when true an empty
// token means "no token stored" and storage is not consulted again.
type credentialCache struct {
	mu     sync.RWMutex
	token  string
	loaded bool

	identity    identitySnapshot
	identityAt  time.Time
	hasIdentity bool
}

// identitySnapshot is the decoded view of the stored token. decodable is
// false when the claims could not be parsed; such tokens are treated as
// expired with no identity.
type identitySnapshot struct {
	userID    int64
	expiresAt time.Time
	hasExpiry bool
	decodable bool
}

func (c *Client) clock() time.Time {
	if c.now != nil {
		return c.now()
	}
	return time.Now()
}

// Connection returns the realtime connection for a configured endpoint name.
func (c *Client) Connection(name string) (*realtime.Conn, error) {
	if c == nil {
		return nil, ErrClientNotReady
	}
	conn, ok := c.conns[name]
	if !ok {
		return nil, ErrUnknownEndpoint
	}
	return conn, nil
}

// NotifyForeground signals that the app returned to the foreground. Every
// endpoint whose connection is down reconnects immediately, bypassing any
// pending backoff. Errors from individual endpoints are joined; endpoints
// that were already connected contribute nothing.
func (c *Client) NotifyForeground(ctx context.Context) error {
	if c == nil {
		return ErrClientNotReady
	}
	if c.closed.Load() {
		return ErrClientClosed
	}

	var errs []error
	for _, conn := range c.conns {
		if err := conn.OnForeground(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NotifyBackground signals that the app moved to the background. Connections
// stay open; this only records the transition for diagnostics.
func (c *Client) NotifyBackground() {
	if c == nil {
		return
	}
	for _, conn := range c.conns {
		conn.OnBackground()
	}
}

// Logout removes the stored credential and empties the data cache. Realtime
// connections are left alone; without a token they cannot re-authenticate,
// and the server tears down established ones on its own authority.
func (c *Client) Logout(ctx context.Context) error {
	if c == nil {
		return ErrClientNotReady
	}

	err := c.RemoveToken(ctx)
	c.dataCalls.ClearAll()
	c.tokenCalls.ClearAll()
	c.metrics.Inc(MetricLogout)
	c.emitDiag(internaldiag.EventLogout, err == nil, errString(err))
	return err
}

// Close stops all realtime connections and shuts the diagnostics dispatcher
// down, draining buffered events. The client is unusable afterwards.
func (c *Client) Close() error {
	if c == nil {
		return ErrClientNotReady
	}
	if c.closed.Swap(true) {
		return nil
	}

	for _, conn := range c.conns {
		conn.Stop()
	}
	c.dataCalls.ClearAll()
	c.tokenCalls.ClearAll()
	c.diag.Close()
	return nil
}

// Metrics returns a point-in-time snapshot of all client metrics.
func (c *Client) Metrics() MetricsSnapshot {
	return c.metrics.TakeSnapshot()
}

func (c *Client) emitDiag(eventType internaldiag.EventType, success bool, errMsg string) {
	if c.diag == nil {
		return
	}
	c.diag.Emit(context.Background(), DiagEvent{
		Timestamp: c.clock(),
		EventType: eventType,
		Success:   success,
		Error:     errMsg,
	})
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
