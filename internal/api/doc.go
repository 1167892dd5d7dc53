// Package api provides the HTTP query API and WebSocket live channel for
// the UPS monitor.
//
// The server follows the same lifecycle pattern as other infrastructure components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// # Routes
//
//	GET /                 dashboard (optional ?dettaglio=<ups>)
//	GET /static/*         dashboard script and stylesheet
//	GET /api/history      ?ups=<id>&period=<1d|1w|1m>
//	GET /api/status       current snapshot, same shape as ups_update
//	GET /api/health       liveness, version and live client count
//	GET /api/metrics      Prometheus exposition
//	GET /ws               live channel (ups_update, chart_update)
//	    /mcp              MCP streamable HTTP endpoint, when enabled
//
// # Live channel
//
// The Hub implements broadcast.Publisher. Each event is encoded once as
// {"event", "timestamp", "payload"} and handed to every client buffer
// without blocking; a client whose buffer is full misses that event.
// Clients are not expected to send anything.
//
// # Graceful Degradation
//
// When upsd is unreachable the dashboard and /api/status render the
// error-only snapshot; history queries keep working from SQLite.
package api
