package history

import (
	"context"
	"fmt"
	"time"

	"github.com/nerrad567/ups-monitor/internal/infrastructure/database"
)

// Store persists history rows and answers range queries.
type Store interface {
	// Append writes one row atomically.
	Append(ctx context.Context, r Record) error

	// Query returns rows for deviceID inside period, oldest first.
	// No match yields an empty, non-nil slice.
	Query(ctx context.Context, deviceID string, period Period) ([]Point, error)
}

// SQLiteStore keeps history in the history table created by the embedded
// migrations.
//
// Thread Safety:
//   - Safe for concurrent use. Each write is a single INSERT, so readers
//     never see a partial row.
type SQLiteStore struct {
	db  *database.DB
	now func() time.Time
}

// NewSQLiteStore wraps an open, migrated database.
func NewSQLiteStore(db *database.DB) *SQLiteStore {
	return &SQLiteStore{db: db, now: time.Now}
}

// SetClock replaces the clock used to compute query windows. Test use only.
func (s *SQLiteStore) SetClock(now func() time.Time) {
	s.now = now
}

// Append inserts r.
func (s *SQLiteStore) Append(ctx context.Context, r Record) error {
	if r.DeviceID == "" {
		return ErrEmptyDevice
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO history (timestamp, ups_name, input_voltage, battery_charge, status)
		 VALUES (?, ?, ?, ?, ?)`,
		r.Timestamp, r.DeviceID, r.InputVoltage, r.BatteryCharge, r.Status,
	)
	if err != nil {
		return fmt.Errorf("inserting history row for %s: %w", r.DeviceID, err)
	}
	return nil
}

// Query returns points with timestamp strictly after the window start.
func (s *SQLiteStore) Query(ctx context.Context, deviceID string, period Period) ([]Point, error) {
	since := period.Since(s.now())

	rows, err := s.db.QueryContext(ctx,
		`SELECT timestamp, input_voltage, battery_charge
		 FROM history
		 WHERE ups_name = ? AND timestamp > ?
		 ORDER BY timestamp ASC`,
		deviceID, since,
	)
	if err != nil {
		return nil, fmt.Errorf("querying history for %s: %w", deviceID, err)
	}
	defer rows.Close()

	points := make([]Point, 0)
	for rows.Next() {
		var p Point
		if err := rows.Scan(&p.Timestamp, &p.InputVoltage, &p.BatteryCharge); err != nil {
			return nil, fmt.Errorf("scanning history row: %w", err)
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating history rows: %w", err)
	}
	return points, nil
}
