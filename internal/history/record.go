package history

import (
	"time"

	"github.com/nerrad567/ups-monitor/internal/snapshot"
)

// NUT variable names read by the history path.
const (
	VarInputVoltage  = "input.voltage"
	VarBatteryCharge = "battery.charge"
	VarStatus        = "ups.status"

	// DefaultMeasure stands in for a reading the device did not report.
	DefaultMeasure = "0.0"
	// DefaultStatus stands in for a missing ups.status.
	DefaultStatus = "unknown"
)

// Record is one persisted history row.
type Record struct {
	Timestamp     int64
	DeviceID      string
	InputVoltage  float64
	BatteryCharge float64
	Status        string
}

// Passes reports whether the row carries any signal. A device reporting
// neither voltage nor charge is noise and is not stored.
func (r Record) Passes() bool {
	return r.InputVoltage > 0 || r.BatteryCharge > 0
}

// Point is one row of a history query, in the shape served to clients.
type Point struct {
	Timestamp     int64   `json:"timestamp"`
	InputVoltage  float64 `json:"input_voltage"`
	BatteryCharge float64 `json:"battery_charge"`
}

// RecordFromDevice converts a polled device into a history row. Malformed
// readings become 0.0; the timestamp is truncated to whole seconds.
func RecordFromDevice(d snapshot.DeviceSnapshot, at time.Time) Record {
	return Record{
		Timestamp:     at.Unix(),
		DeviceID:      d.DeviceID,
		InputVoltage:  MeasureOrZero(d.Var(VarInputVoltage, DefaultMeasure)),
		BatteryCharge: MeasureOrZero(d.Var(VarBatteryCharge, DefaultMeasure)),
		Status:        d.Var(VarStatus, DefaultStatus),
	}
}
