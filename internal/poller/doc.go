// Package poller provides the HTTP plumbing used by the CadenceBoard widget.
//
// The main components are:
//
//   - [Client]: HTTP client wrapper with optional per-request timeouts and
//     a response size limit
//   - [Scheduler]: fire-and-forget ticker that runs a job immediately and
//     then once per interval, letting slow runs overlap
//
// Users should not need this package directly; the widget package wires it.
package poller
