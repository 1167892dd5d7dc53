// Package mcptools exposes the monitor's read-only queries as Model Context
// Protocol tools, served over streamable HTTP next to the REST API.
//
// Tools:
//   - ups_status: current snapshot, same JSON as the ups_update event
//   - ups_history: rows for one UPS, same JSON as GET /api/history
package mcptools
