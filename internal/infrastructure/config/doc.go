// Package config handles loading and validating UPS monitor configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with environment variables
//   - Validation of required fields
//   - Default value handling, including the fallback used when the file is
//     missing or invalid
//
// Security Considerations:
//   - Broker passwords and InfluxDB tokens should be set via environment variables
//   - The config file should have restricted permissions (0600)
//
// Usage:
//
//	cfg, err := config.LoadOrDefault("configs/config.yaml")
//	if err != nil {
//	    log.Warn("config fallback", "error", err)
//	}
//	fmt.Println(cfg.NUT.Address())
package config
