// Package logging provides structured logging for the UPS monitor.
//
// It wraps log/slog so every component logs with the same handler and the
// same default fields (service, version).
//
// # Configuration
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// # Usage
//
//	logger := logging.New(cfg.Logging, "1.0.0")
//	log := logger.Component("scheduler")
//	log.Warn("snapshot in error state", "cause", cause)
//
// Never log broker passwords or InfluxDB tokens.
package logging
