// Package dedup provides a keyed single-flight mechanism combined with a TTL
// cache. It is the shared machinery behind credential reads, derived-identity
// lookups, and per-user data fetches.
//
// # Invariants
//
// For any key, at most one fetch function executes concurrently. Every caller
// that arrives while a fetch is in flight awaits the same outcome — success
// or failure — rather than issuing a second fetch. A successful result is
// cached for the caller-supplied TTL and served without side effects until it
// expires or is explicitly invalidated.
//
// The cache check, pending-call check, and registration happen under a single
// mutex acquisition. There is no interleaving window in which two callers can
// both observe "no cache, no pending call" and both register.
//
// # What this package must NOT do
//
//   - Import any other package in this module (it is a leaf).
//   - Retry failed fetches on its own; retry policy belongs to the caller.
package dedup
