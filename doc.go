// Package goClient provides the connection-resilience core for mobile and
// embedded API clients: a credential store with identity caching, a
// request deduplicator with TTL caching, and realtime connection managers
// with exponential-backoff reconnection.
//
// The package is designed for concurrent UI workloads: Client methods are safe
// to call from multiple goroutines after initialization through [Builder.Build].
//
// # Architecture boundaries
//
// goClient is the public surface. It exposes [Client], [Builder], [Config], and
// value types (MetricsSnapshot, DiagEvent, etc.). All internal coordination —
// diagnostics dispatch, metric counters — lives under internal/ and is never
// exported. The storage, dedup, jwt, and realtime sub-packages are public
// building blocks that never import goClient.
//
// # What this package must NOT do
//
//   - Expose storage backends, claim parsing, or transport details in its
//     public API beyond the interfaces callers must implement.
//   - Verify token signatures. The client holds no keys; only the server
//     decides whether a token is valid. Claims are decoded solely for local
//     identity and expiry hints.
//   - Import any sub-package that re-imports goClient (no import cycles).
//
// # Performance contract
//
// Token and UserID are the hot path. After the first read they must be served
// from memory without storage round-trips until the token changes or the
// identity cache expires. FetchData is allowed one backend call per key per
// TTL window regardless of caller concurrency.
package goClient
