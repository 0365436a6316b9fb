package goClient

import (
	internalmetrics "github.com/Veltrix07/goClient/internal/metrics"
)

// MetricID defines a public type used by goClient APIs.
//
// MetricID instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricID = internalmetrics.MetricID

const (
	// MetricTokenCacheHit is an exported constant or variable used by the client core.
	MetricTokenCacheHit = internalmetrics.MetricTokenCacheHit
	// MetricTokenCacheMiss is an exported constant or variable used by the client core.
	MetricTokenCacheMiss = internalmetrics.MetricTokenCacheMiss
	// MetricStorageRead is an exported constant or variable used by the client core.
	MetricStorageRead = internalmetrics.MetricStorageRead
	// MetricStorageReadFailure is an exported constant or variable used by the client core.
	MetricStorageReadFailure = internalmetrics.MetricStorageReadFailure
	// MetricStorageWrite is an exported constant or variable used by the client core.
	MetricStorageWrite = internalmetrics.MetricStorageWrite
	// MetricStorageWriteFailure is an exported constant or variable used by the client core.
	MetricStorageWriteFailure = internalmetrics.MetricStorageWriteFailure
	// MetricTokenDecodeFailure is an exported constant or variable used by the client core.
	MetricTokenDecodeFailure = internalmetrics.MetricTokenDecodeFailure
	// MetricTokenRefresh is an exported constant or variable used by the client core.
	MetricTokenRefresh = internalmetrics.MetricTokenRefresh
	// MetricFetchExecuted is an exported constant or variable used by the client core.
	MetricFetchExecuted = internalmetrics.MetricFetchExecuted
	// MetricFetchCoalesced is an exported constant or variable used by the client core.
	MetricFetchCoalesced = internalmetrics.MetricFetchCoalesced
	// MetricConnectAttempt is an exported constant or variable used by the client core.
	MetricConnectAttempt = internalmetrics.MetricConnectAttempt
	// MetricConnectSuccess is an exported constant or variable used by the client core.
	MetricConnectSuccess = internalmetrics.MetricConnectSuccess
	// MetricConnectFailure is an exported constant or variable used by the client core.
	MetricConnectFailure = internalmetrics.MetricConnectFailure
	// MetricReconnectScheduled is an exported constant or variable used by the client core.
	MetricReconnectScheduled = internalmetrics.MetricReconnectScheduled
	// MetricReconnectExhausted is an exported constant or variable used by the client core.
	MetricReconnectExhausted = internalmetrics.MetricReconnectExhausted
	// MetricEventDispatched is an exported constant or variable used by the client core.
	MetricEventDispatched = internalmetrics.MetricEventDispatched
	// MetricListenerPanic is an exported constant or variable used by the client core.
	MetricListenerPanic = internalmetrics.MetricListenerPanic
	// MetricSendRetry is an exported constant or variable used by the client core.
	MetricSendRetry = internalmetrics.MetricSendRetry
	// MetricSendFailure is an exported constant or variable used by the client core.
	MetricSendFailure = internalmetrics.MetricSendFailure
	// MetricLogout is an exported constant or variable used by the client core.
	MetricLogout = internalmetrics.MetricLogout
	// MetricConnectLatency is an exported constant or variable used by the client core.
	MetricConnectLatency = internalmetrics.MetricConnectLatency
)

// Metrics defines a public type used by goClient APIs.
//
// Metrics instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Metrics = internalmetrics.Metrics

// MetricsSnapshot defines a public type used by goClient APIs.
//
// MetricsSnapshot instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricsSnapshot = internalmetrics.Snapshot

// NewMetrics describes the newmetrics operation and its observable behavior.
//
// NewMetrics does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return internalmetrics.New(internalmetrics.Config{
		Enabled:       cfg.Enabled,
		EnableLatency: cfg.EnableLatencyHistograms,
	})
}
