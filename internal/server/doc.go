// Package server provides the HTTP server for the ride dashboard and its
// JSON API.
//
// This package is internal to CadenceBoard and handles all HTTP concerns:
//
//   - Dashboard serving: the embedded page at "/" and its assets under "/static/"
//   - REST API: snapshot, reset, freshness, log tail and pulse endpoints under "/api"
//   - Server-Sent Events: every saved snapshot at "/api/sse"
//
// Errors are always JSON. The server supports graceful shutdown via context
// cancellation, with a 5-second timeout for in-flight requests.
//
// The server is started automatically by [cadenceboard.Board.Start].
package server
