package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// HistoryMeasurement is the measurement name used for mirrored history rows.
const HistoryMeasurement = "ups_history"

// WriteReading mirrors one history row.
//
// The point is tagged by ups and status so dashboards can group by either;
// the two numeric readings are fields. The write is non-blocking.
//
// Example:
//
//	client.WriteReading("ups1", 230.0, 100, "OL", time.Unix(ts, 0))
func (c *Client) WriteReading(deviceID string, inputVoltage, batteryCharge float64, status string, at time.Time) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		HistoryMeasurement,
		map[string]string{
			"ups":    deviceID,
			"status": status,
		},
		map[string]interface{}{
			"input_voltage":  inputVoltage,
			"battery_charge": batteryCharge,
		},
		at,
	)

	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point at the given time.
//
// Parameters:
//   - measurement: The measurement name
//   - tags: Low-cardinality index values
//   - fields: The data
//   - at: Point timestamp
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}, at time.Time) {
	if !c.IsConnected() {
		return
	}

	c.writeAPI.WritePoint(write.NewPoint(measurement, tags, fields, at))
}
