// Package internal contains machinery that is intentionally private to
// goClient.
//
// # Sub-packages
//
//   - diag — async diagnostics event dispatch (Dispatcher + Sink implementations)
//   - metrics — lock-free counters and the connect-latency histogram
//
// # What this package must NOT do
//
//   - Export types that appear in the public goClient API except through the
//     root package's aliases.
//   - Be imported by any package outside the goClient module.
package internal
