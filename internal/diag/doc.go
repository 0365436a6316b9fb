// Package diag provides asynchronous diagnostics event dispatch for the
// client core: connection lifecycle transitions, reconnect scheduling, and
// credential lifecycle changes are emitted as structured events to a
// caller-supplied sink.
//
// Dispatch is decoupled from the hot path by a bounded channel; when the
// buffer is full and DropIfFull is set, events are counted and dropped rather
// than blocking a connect or send.
//
// Event kinds are the typed [EventType] constants; sinks can switch on them
// without string conventions drifting across emit sites.
package diag
