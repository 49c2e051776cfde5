// Package widget is the polling display for a CadenceBoard server.
//
// A [Widget] fetches GET /api/data once per second and writes the snapshot
// into a [Display]: speed, distance, elapsed time, calories, cadence, the
// last-update time, an online/error status label, and the cadence gauge
// property. [Widget.ResetSession] asks for confirmation through a [Dialog]
// and then posts to /api/reset.
//
// Rendering follows what the browser dashboard shows for the same payload,
// so the terminal and the web page agree:
//
//   - numbers are printed in their shortest decimal form
//   - cadence is truncated to an integer, then printed with one decimal
//   - the gauge is cadence/120 as a percentage, clamped at 100
//   - last_update is printed as Japanese-locale date and time
//
// Polls are fire-and-forget: a slow response never delays the next tick,
// and overlapping responses overwrite each other in arrival order.
package widget
