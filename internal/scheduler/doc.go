// Package scheduler runs the monitor's two periodic actions.
//
// The logging action (default every 5 minutes) polls upsd, appends one
// history row per device and emits chart_update. The broadcast action
// (default every 10 seconds) polls upsd independently and emits
// ups_update. Each action skips a tick while its previous run is still
// going, and every tick is bounded by a timeout shorter than its interval.
// Failures are logged and counted; they never stop the loops.
package scheduler
