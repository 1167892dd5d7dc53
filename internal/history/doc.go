// Package history persists down-sampled UPS readings and serves range
// queries over them.
//
// Rows are append-only. Each holds a unix timestamp, the device id, input
// voltage, battery charge and the ups.status text at the time of the poll.
// Readings that fail to parse are stored as 0.0, and a row where both
// readings are zero is dropped as noise.
package history
