// Package cadenceboard provides a live telemetry dashboard for an exercise
// bike.
//
// A [Board] counts wheel rotations from a cadence sensor, recomputes speed,
// distance, calories, cadence and elapsed time once per second, saves each
// result as a JSON snapshot and serves it to a browser dashboard that polls
// once per second.
//
// # Quick Start
//
// Start the dashboard with graceful shutdown:
//
//	b, _ := cadenceboard.New(cadenceboard.WithSimulation(true))
//
//	// Set up graceful shutdown on SIGINT/SIGTERM
//	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer stop()
//
//	b.Start(ctx) // blocks until context is cancelled
//
// Feed rotations with [Board.Pulse] from a sensor callback, or POST to
// /api/pulse from a separate sensor process.
//
// # Configuration
//
// Board uses the functional options pattern for configuration:
//
//	b, err := cadenceboard.New(
//	    cadenceboard.WithPort(5000),
//	    cadenceboard.WithDataFile("log/cycling_data.json"),
//	    cadenceboard.WithWheelCircumference(4.45),
//	    cadenceboard.WithCalorieFactor(0.065),
//	)
//
// # Architecture
//
// CadenceBoard consists of several packages:
//
//   - telemetry: the snapshot payload and its timestamp and freshness rules
//   - widget: the polling dashboard widget, usable from Go (see the watch command)
//   - internal/calc: rotation counting and metric computation
//   - internal/store: snapshot storage with pub/sub, and the reset flag
//   - internal/server: HTTP server with JSON API and Server-Sent Events
//   - internal/poller: shared HTTP client and tick scheduler
//   - dashboard: Embedded web UI assets
//
// The internal packages are not part of the public API and may change
// without notice.
package cadenceboard
