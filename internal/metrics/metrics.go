// Package metrics provides lock-free in-process counters for the client core
// plus a single latency histogram covering connection establishment.
package metrics

import (
	"sync/atomic"
	"time"
)

// MetricID identifies a specific counter or histogram in the in-process
// metrics system.
type MetricID uint16

const (
	// MetricTokenCacheHit counts Token reads served from memory.
	MetricTokenCacheHit MetricID = iota
	// MetricTokenCacheMiss counts Token reads that went to storage.
	MetricTokenCacheMiss
	// MetricStorageRead counts storage read operations issued.
	MetricStorageRead
	// MetricStorageReadFailure counts storage reads that failed.
	MetricStorageReadFailure
	// MetricStorageWrite counts storage write operations issued.
	MetricStorageWrite
	// MetricStorageWriteFailure counts storage writes that failed.
	MetricStorageWriteFailure
	// MetricTokenDecodeFailure counts tokens whose claims could not be decoded.
	MetricTokenDecodeFailure
	// MetricTokenRefresh counts refresh-function invocations for expired tokens.
	MetricTokenRefresh
	// MetricFetchExecuted counts deduplicated fetches that actually ran.
	MetricFetchExecuted
	// MetricFetchCoalesced counts callers that joined an in-flight fetch or hit cache.
	MetricFetchCoalesced
	// MetricConnectAttempt counts realtime connection attempts.
	MetricConnectAttempt
	// MetricConnectSuccess counts successful realtime connections.
	MetricConnectSuccess
	// MetricConnectFailure counts failed realtime connection attempts.
	MetricConnectFailure
	// MetricReconnectScheduled counts backoff-scheduled reconnect attempts.
	MetricReconnectScheduled
	// MetricReconnectExhausted counts reconnect loops that hit the attempt cap.
	MetricReconnectExhausted
	// MetricEventDispatched counts inbound realtime events dispatched to listeners.
	MetricEventDispatched
	// MetricListenerPanic counts listener callbacks that panicked during dispatch.
	MetricListenerPanic
	// MetricSendRetry counts Send calls that triggered a connect-and-retry cycle.
	MetricSendRetry
	// MetricSendFailure counts Send calls that failed after the retry cycle.
	MetricSendFailure
	// MetricLogout counts logout operations.
	MetricLogout
	// MetricConnectLatency is the connection-establishment latency histogram.
	MetricConnectLatency
	// MetricIDCount is the number of defined metric IDs.
	MetricIDCount
)

const (
	histBucketCount = 8
	cacheLineSize   = 64
)

type metricHistogram struct {
	buckets [histBucketCount]uint64
}

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Config controls which metric families are recorded.
type Config struct {
	Enabled       bool
	EnableLatency bool
}

// Metrics holds atomic counters and the optional connect-latency histogram.
// When disabled, every operation is a no-op.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [MetricIDCount]paddedCounter
	histograms    [MetricIDCount]metricHistogram
}

// Snapshot is a point-in-time deep copy of all metrics.
type Snapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

// New describes the new operation and its observable behavior.
//
// New does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func New(cfg Config) *Metrics {
	return &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatency,
	}
}

// Enabled describes the enabled operation and its observable behavior.
//
// Enabled does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

// LatencyEnabled describes the latencyenabled operation and its observable behavior.
//
// LatencyEnabled does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (m *Metrics) LatencyEnabled() bool {
	return m != nil && m.enableLatency
}

// Inc describes the inc operation and its observable behavior.
//
// Inc does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= MetricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Observe describes the observe operation and its observable behavior.
//
// Observe does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.enabled || !m.enableLatency || id != MetricConnectLatency {
		return
	}

	b := bucketIndex(d)
	atomic.AddUint64(&m.histograms[id].buckets[b], 1)
}

// Value describes the value operation and its observable behavior.
//
// Value does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= MetricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// TakeSnapshot describes the takesnapshot operation and its observable behavior.
//
// TakeSnapshot does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (m *Metrics) TakeSnapshot() Snapshot {
	if m == nil || !m.enabled {
		return Snapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}

	s := Snapshot{
		Counters:   make(map[MetricID]uint64, int(MetricIDCount)),
		Histograms: make(map[MetricID][]uint64, 1),
	}

	for id := MetricID(0); id < MetricIDCount; id++ {
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}

	if m.enableLatency {
		buckets := make([]uint64, histBucketCount)
		for i := range buckets {
			buckets[i] = atomic.LoadUint64(&m.histograms[MetricConnectLatency].buckets[i])
		}
		s.Histograms[MetricConnectLatency] = buckets
	}

	return s
}

// bucketIndex maps a duration onto exponential buckets:
// <25ms, <50ms, <100ms, <250ms, <500ms, <1s, <5s, >=5s.
func bucketIndex(d time.Duration) int {
	switch {
	case d < 25*time.Millisecond:
		return 0
	case d < 50*time.Millisecond:
		return 1
	case d < 100*time.Millisecond:
		return 2
	case d < 250*time.Millisecond:
		return 3
	case d < 500*time.Millisecond:
		return 4
	case d < time.Second:
		return 5
	case d < 5*time.Second:
		return 6
	default:
		return 7
	}
}
