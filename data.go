package goClient

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
)

// FetchFunc loads one piece of remote data. It runs at most once per key per
// cache window regardless of caller concurrency.
type FetchFunc func(ctx context.Context) (json.RawMessage, error)

// FetchData describes the fetchdata operation and its observable behavior.
//
// Concurrent calls for the same key share a single execution of fetch, and
// the result is served from cache for Data.DefaultTTL afterwards. Failures
// are shared with every waiting caller and are never cached.
// FetchData may return an error when input validation, dependency calls, or security checks fail.
func (c *Client) FetchData(ctx context.Context, key string, fetch FetchFunc) (json.RawMessage, error) {
	if c == nil {
		return nil, ErrClientNotReady
	}
	if key == "" {
		return nil, errors.New("data key must not be empty")
	}
	if fetch == nil {
		return nil, errors.New("fetch function must not be nil")
	}

	var executed atomic.Bool
	result, err := c.dataCalls.Do(ctx, key, c.config.Data.DefaultTTL, func(ctx context.Context) (json.RawMessage, error) {
		executed.Store(true)
		c.metrics.Inc(MetricFetchExecuted)
		return fetch(ctx)
	})
	if !executed.Load() {
		// Served from cache or joined another caller's in-flight fetch.
		c.metrics.Inc(MetricFetchCoalesced)
	}
	return result, err
}

// InvalidateData drops the cached value for a key and detaches any in-flight
// fetch, so the next call observes post-mutation state.
func (c *Client) InvalidateData(key string) {
	if c == nil {
		return
	}
	c.dataCalls.Invalidate(key)
}

// ClearData empties the whole data-cache namespace.
func (c *Client) ClearData() {
	if c == nil {
		return
	}
	c.dataCalls.ClearAll()
}
