// Package realtime maintains a logical connection to a realtime messaging
// endpoint (chat hub, notification hub) on behalf of the client core.
//
// One [Conn] exists per endpoint per process. It owns the connection state
// machine (Disconnected, Connecting, Connected, Reconnecting), authenticates
// every connect with a fresh token from its [TokenSource], schedules
// exponential-backoff reconnects with cancellable timers, and dispatches
// inbound events to registered listeners.
//
// # Invariants
//
//   - Starting a Connected connection is a no-op.
//   - Listener registrations survive reconnects; they are subscriptions to
//     the logical endpoint, not to one underlying transport connection.
//   - A listener that panics never prevents dispatch to later listeners.
//   - Stop cancels any pending reconnect timer; no orphaned timer may dial.
//     A stopped connection is restartable: the next Start opens a fresh
//     session with the attempt counter reset.
//   - A missing token aborts the connect without entering the retry loop.
//
// # Architecture boundaries
//
// The underlying transport is abstracted behind [Transport]; the shipped
// implementation is [Dialer] on gorilla/websocket. This package never reads
// or writes durable storage and never interprets token claims — it asks its
// [TokenSource] for a usable token and nothing more.
package realtime
