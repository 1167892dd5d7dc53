// Package panel renders the monitoring dashboard served at "/".
//
// The page template and its static assets (script and stylesheet) are
// embedded with go:embed, so the binary has no runtime dependency on
// external files. The template receives a View built from the current
// snapshot; live updates after page load arrive over the WebSocket
// channel and are applied by the page script.
package panel
