package snapshot

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/nerrad567/ups-monitor/internal/infrastructure/config"
	"github.com/nerrad567/ups-monitor/internal/infrastructure/logging"
	"github.com/nerrad567/ups-monitor/internal/nut"
)

// ConnectionErrorPrefix starts the cause of every failed snapshot.
const ConnectionErrorPrefix = "NUT connection error: "

// Builder polls upsd and turns the replies into a SystemSnapshot.
//
// Thread Safety:
//   - Build may be called concurrently; each call opens its own session.
type Builder struct {
	dial   nut.Dialer
	rooms  config.Rooms
	now    func() time.Time
	logger *logging.Logger

	latest atomic.Pointer[SystemSnapshot]
}

// Option configures a Builder.
type Option func(*Builder)

// WithClock replaces time.Now as the poll timestamp source.
func WithClock(now func() time.Time) Option {
	return func(b *Builder) { b.now = now }
}

// WithLogger sets the logger used for failed polls.
func WithLogger(l *logging.Logger) Option {
	return func(b *Builder) { b.logger = l }
}

// NewBuilder creates a Builder.
//
// Parameters:
//   - dial: Opens a NUT session per poll
//   - rooms: Device id to room label table, read-only
//   - opts: Optional clock and logger
func NewBuilder(dial nut.Dialer, rooms config.Rooms, opts ...Option) *Builder {
	b := &Builder{
		dial:   dial,
		rooms:  rooms,
		now:    time.Now,
		logger: logging.Discard(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build runs one poll.
//
// Enumeration and every per-device fetch share one failure boundary: if
// any step fails the result is an error-only snapshot and no device data
// is kept. Build never returns nil and never returns an error; the failure
// is carried in the snapshot.
func (b *Builder) Build(ctx context.Context) *SystemSnapshot {
	takenAt := b.now()

	devices, err := b.poll(ctx, takenAt)

	var snap *SystemSnapshot
	if err != nil {
		b.logger.Warn("nut poll failed", "error", err)
		snap = Failed(ConnectionErrorPrefix+err.Error(), takenAt)
	} else {
		snap = New(devices, takenAt)
	}

	b.latest.Store(snap)
	return snap
}

// Latest returns the most recent snapshot built, or nil before the first poll.
func (b *Builder) Latest() *SystemSnapshot {
	return b.latest.Load()
}

func (b *Builder) poll(ctx context.Context, takenAt time.Time) ([]DeviceSnapshot, error) {
	session, err := b.dial(ctx)
	if err != nil {
		return nil, err
	}
	defer session.Close() //nolint:errcheck // LOGOUT is best effort

	ids, err := session.ListDevices(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing devices: %w", err)
	}

	devices := make([]DeviceSnapshot, 0, len(ids))
	for _, id := range ids {
		vars, err := session.ListVariables(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", id, err)
		}
		devices = append(devices, DeviceSnapshot{
			DeviceID:   id,
			Variables:  vars,
			RoomLabel:  b.rooms.Lookup(id),
			LastUpdate: takenAt,
		})
	}
	return devices, nil
}
