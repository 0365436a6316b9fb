package dedup

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrDuplicateOperation is an exported constant or variable used by the client core.
//
// It signals a registration collision inside [Group.Do] and must never be
// observed by callers; it exists so that an implementation bug surfaces as a
// distinct, test-detectable error instead of a silent double fetch.
var ErrDuplicateOperation = errors.New("duplicate in-flight operation registered")

type cacheEntry[V any] struct {
	value      V
	capturedAt time.Time
	ttl        time.Duration
}

func (e cacheEntry[V]) expired(now time.Time) bool {
	return now.Sub(e.capturedAt) >= e.ttl
}

type call[V any] struct {
	done chan struct{}
	val  V
	err  error
}

// Group defines a public type used by goClient APIs.
//
// A Group is one cache namespace: the credential layer and the data layer own
// separate instances so that clearing one cannot disturb the other. The zero
// value is not usable; construct with [NewGroup].
type Group[V any] struct {
	mu       sync.Mutex
	entries  map[string]cacheEntry[V]
	inflight map[string]*call[V]

	// now is replaced in tests to control TTL expiry deterministically.
	now func() time.Time
}

// NewGroup describes the newgroup operation and its observable behavior.
//
// NewGroup does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NewGroup[V any]() *Group[V] {
	return &Group[V]{
		entries:  make(map[string]cacheEntry[V]),
		inflight: make(map[string]*call[V]),
		now:      time.Now,
	}
}

// Do returns the cached value for key when a live entry exists, joins the
// in-flight fetch for key when one is registered, and otherwise registers a
// new fetch and runs fn exactly once. All concurrent callers for the same key
// observe the identical outcome.
//
// A ttl of zero (or negative) disables write-back caching: the call is still
// deduplicated while in flight, but the result is not retained afterwards.
//
// When ctx is cancelled while waiting on another caller's fetch, Do returns
// ctx.Err() without disturbing the fetch or the callers still waiting on it.
func (g *Group[V]) Do(ctx context.Context, key string, ttl time.Duration, fn func(ctx context.Context) (V, error)) (V, error) {
	var zero V
	if g == nil {
		return zero, ErrDuplicateOperation
	}
	if ctx == nil {
		ctx = context.Background()
	}

	g.mu.Lock()
	if entry, ok := g.entries[key]; ok {
		if !entry.expired(g.now()) {
			g.mu.Unlock()
			return entry.value, nil
		}
		delete(g.entries, key)
	}

	if pending, ok := g.inflight[key]; ok {
		g.mu.Unlock()
		return g.wait(ctx, pending)
	}

	c := &call[V]{done: make(chan struct{})}
	g.inflight[key] = c
	g.mu.Unlock()

	go g.run(key, ttl, c, fn)

	return g.wait(ctx, c)
}

func (g *Group[V]) run(key string, ttl time.Duration, c *call[V], fn func(ctx context.Context) (V, error)) {
	c.val, c.err = fn(context.Background())

	g.mu.Lock()
	// A concurrent Invalidate or ClearAll detaches the call; its result is
	// then discarded instead of being written back under a stale key.
	if current, ok := g.inflight[key]; ok && current == c {
		delete(g.inflight, key)
		if c.err == nil && ttl > 0 {
			g.entries[key] = cacheEntry[V]{
				value:      c.val,
				capturedAt: g.now(),
				ttl:        ttl,
			}
		}
	}
	g.mu.Unlock()

	close(c.done)
}

func (g *Group[V]) wait(ctx context.Context, c *call[V]) (V, error) {
	select {
	case <-c.done:
		return c.val, c.err
	case <-ctx.Done():
		var zero V
		return zero, ctx.Err()
	}
}

// Invalidate removes the cache entry for key and detaches any pending fetch,
// forcing the next [Group.Do] for key to fetch again.
func (g *Group[V]) Invalidate(key string) {
	if g == nil {
		return
	}
	g.mu.Lock()
	delete(g.entries, key)
	delete(g.inflight, key)
	g.mu.Unlock()
}

// ClearAll removes every cache entry and detaches every pending fetch in the
// namespace. Used on logout.
func (g *Group[V]) ClearAll() {
	if g == nil {
		return
	}
	g.mu.Lock()
	g.entries = make(map[string]cacheEntry[V])
	g.inflight = make(map[string]*call[V])
	g.mu.Unlock()
}

// Len describes the len operation and its observable behavior.
//
// Len does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (g *Group[V]) Len() int {
	if g == nil {
		return 0
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.entries)
}
