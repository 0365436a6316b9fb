// Package storage defines the durable key-value surface the credential layer
// persists session tokens to, plus the two shipped implementations: a
// Redis-backed store and an in-process memory store.
//
// # Architecture boundaries
//
// This package owns persistence only. It does NOT interpret token contents,
// cache values in memory, or deduplicate concurrent reads — those
// responsibilities belong to the Client and the dedup package.
//
// # What this package must NOT do
//
//   - Import goClient, jwt, or dedup (no upward imports).
//   - Retry failed operations; retry policy belongs to the caller.
//   - Log or swallow errors; every failure is surfaced.
package storage
