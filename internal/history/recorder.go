package history

import (
	"context"

	"github.com/nerrad567/ups-monitor/internal/infrastructure/logging"
	"github.com/nerrad567/ups-monitor/internal/snapshot"
)

// Recorder turns snapshots into history rows.
type Recorder struct {
	store  Store
	logger *logging.Logger
}

// NewRecorder creates a Recorder writing to store.
func NewRecorder(store Store, logger *logging.Logger) *Recorder {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Recorder{store: store, logger: logger}
}

// Record appends one row per device of snap that passes the noise filter.
//
// An error snapshot writes nothing. A failed append is logged and the
// remaining devices are still written; the first failure is returned.
//
// Returns:
//   - int: Rows written
//   - error: First storage error, if any
func (r *Recorder) Record(ctx context.Context, snap *snapshot.SystemSnapshot) (int, error) {
	if snap == nil || snap.IsError() {
		return 0, nil
	}

	var (
		written  int
		firstErr error
	)
	for _, d := range snap.Devices() {
		rec := RecordFromDevice(d, d.LastUpdate)
		if !rec.Passes() {
			r.logger.Debug("skipping empty reading", "ups", d.DeviceID)
			continue
		}
		if err := r.store.Append(ctx, rec); err != nil {
			r.logger.Error("history append failed", "ups", d.DeviceID, "error", err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		written++
	}
	return written, firstErr
}
