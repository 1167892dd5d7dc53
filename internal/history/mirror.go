package history

import (
	"context"
	"time"
)

// ReadingWriter receives a copy of every stored row. *influxdb.Client
// satisfies it.
type ReadingWriter interface {
	WriteReading(deviceID string, inputVoltage, batteryCharge float64, status string, at time.Time)
}

// MirrorStore forwards rows to a secondary time-series sink after the
// primary store accepts them. Queries are served by the primary only.
type MirrorStore struct {
	Store
	mirror ReadingWriter
}

// NewMirrorStore wraps primary. A nil mirror makes it a pass-through.
func NewMirrorStore(primary Store, mirror ReadingWriter) *MirrorStore {
	return &MirrorStore{Store: primary, mirror: mirror}
}

// Append writes to the primary store and, on success, to the mirror.
func (m *MirrorStore) Append(ctx context.Context, r Record) error {
	if err := m.Store.Append(ctx, r); err != nil {
		return err
	}
	if m.mirror != nil {
		m.mirror.WriteReading(r.DeviceID, r.InputVoltage, r.BatteryCharge, r.Status, time.Unix(r.Timestamp, 0))
	}
	return nil
}
