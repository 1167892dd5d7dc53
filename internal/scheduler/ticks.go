package scheduler

import (
	"context"
	"fmt"

	"github.com/nerrad567/ups-monitor/internal/broadcast"
	"github.com/nerrad567/ups-monitor/internal/history"
	"github.com/nerrad567/ups-monitor/internal/snapshot"
)

// ChartPoint is the condensed per-device reading sent in chart_update.
type ChartPoint = history.Point

// LogTick builds a snapshot, writes it to history and publishes
// chart_update with one point per device whose readings parse.
//
// An error snapshot writes nothing and publishes nothing. No event is
// published when no device produced a point.
func (s *Scheduler) LogTick(ctx context.Context) error {
	snap := s.builder.Build(ctx)
	s.metrics.ObserveSnapshot(snap)

	if snap.IsError() {
		s.logger.Warn("logging tick skipped, snapshot in error state", "cause", snap.Err())
		return nil
	}

	var recordErr error
	if s.recorder != nil {
		n, err := s.recorder.Record(ctx, snap)
		s.metrics.HistoryRowsWritten(n)
		if err != nil {
			recordErr = fmt.Errorf("recording history: %w", err)
		}
		s.logger.Debug("history recorded", "rows", n, "devices", snap.Len())
	}

	if points := ChartPoints(snap); len(points) > 0 {
		s.publish(broadcast.EventChartUpdate, points)
	}
	return recordErr
}

// BroadcastTick builds a fresh snapshot and publishes it as ups_update,
// error state included.
func (s *Scheduler) BroadcastTick(ctx context.Context) error {
	snap := s.builder.Build(ctx)
	s.metrics.ObserveSnapshot(snap)
	s.publish(broadcast.EventUPSUpdate, snap)
	return nil
}

func (s *Scheduler) publish(event string, payload any) {
	s.publisher.Publish(event, payload)
	s.metrics.EventPublished(event)
}

// ChartPoints returns a point for every device whose input.voltage and
// battery.charge both parse. A missing variable counts as "0.0". Devices
// with a malformed reading are left out rather than zeroed.
func ChartPoints(snap *snapshot.SystemSnapshot) map[string]ChartPoint {
	points := make(map[string]ChartPoint)
	if snap == nil || snap.IsError() {
		return points
	}

	ts := snap.TakenAt().Unix()
	for _, d := range snap.Devices() {
		voltage, err := history.ParseMeasure(d.Var(history.VarInputVoltage, history.DefaultMeasure))
		if err != nil {
			continue
		}
		charge, err := history.ParseMeasure(d.Var(history.VarBatteryCharge, history.DefaultMeasure))
		if err != nil {
			continue
		}
		points[d.DeviceID] = ChartPoint{
			Timestamp:     ts,
			InputVoltage:  voltage,
			BatteryCharge: charge,
		}
	}
	return points
}
