// Package metrics exports scheduler health and the latest UPS readings in
// the Prometheus exposition format.
package metrics
