package snapshot

import (
	"encoding/json"
	"maps"
	"sort"
	"time"
)

// LastUpdateLayout is the wall-clock format used for last_update on the wire.
const LastUpdateLayout = "15:04:05"

// DeviceSnapshot is one UPS unit's readings from a single poll.
// Values are never mutated after the Builder returns them.
type DeviceSnapshot struct {
	DeviceID   string
	Variables  map[string]string
	RoomLabel  string
	LastUpdate time.Time
}

// Var returns the named variable or fallback when the device did not report it.
func (d DeviceSnapshot) Var(name, fallback string) string {
	if v, ok := d.Variables[name]; ok {
		return v
	}
	return fallback
}

type deviceJSON struct {
	Vars       map[string]string `json:"vars"`
	Rooms      string            `json:"rooms"`
	LastUpdate string            `json:"last_update"`
}

// SystemSnapshot is the result of one poll: either every enumerated device
// or a single error cause, never both.
type SystemSnapshot struct {
	devices map[string]DeviceSnapshot
	cause   string
	takenAt time.Time
}

// New returns a populated snapshot. The device slice is copied.
func New(devices []DeviceSnapshot, takenAt time.Time) *SystemSnapshot {
	m := make(map[string]DeviceSnapshot, len(devices))
	for _, d := range devices {
		d.Variables = maps.Clone(d.Variables)
		if d.Variables == nil {
			d.Variables = map[string]string{}
		}
		m[d.DeviceID] = d
	}
	return &SystemSnapshot{devices: m, takenAt: takenAt}
}

// Failed returns an error-only snapshot carrying a human-readable cause.
func Failed(cause string, takenAt time.Time) *SystemSnapshot {
	return &SystemSnapshot{cause: cause, takenAt: takenAt}
}

// IsError reports whether the poll failed.
func (s *SystemSnapshot) IsError() bool {
	return s.cause != ""
}

// Err returns the failure cause, or "" for a populated snapshot.
func (s *SystemSnapshot) Err() string {
	return s.cause
}

// TakenAt is when the poll that produced the snapshot started.
func (s *SystemSnapshot) TakenAt() time.Time {
	return s.takenAt
}

// Len returns the number of devices. An error snapshot has none.
func (s *SystemSnapshot) Len() int {
	return len(s.devices)
}

// DeviceIDs returns device identifiers in ascending order.
func (s *SystemSnapshot) DeviceIDs() []string {
	ids := make([]string, 0, len(s.devices))
	for id := range s.devices {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Device returns one device by identifier.
func (s *SystemSnapshot) Device(id string) (DeviceSnapshot, bool) {
	d, ok := s.devices[id]
	if !ok {
		return DeviceSnapshot{}, false
	}
	d.Variables = maps.Clone(d.Variables)
	return d, true
}

// Devices returns every device ordered by identifier.
func (s *SystemSnapshot) Devices() []DeviceSnapshot {
	out := make([]DeviceSnapshot, 0, len(s.devices))
	for _, id := range s.DeviceIDs() {
		d, _ := s.Device(id)
		out = append(out, d)
	}
	return out
}

// MarshalJSON renders {"<id>": {"vars", "rooms", "last_update"}} or
// {"error": "<cause>"}.
func (s *SystemSnapshot) MarshalJSON() ([]byte, error) {
	if s.IsError() {
		return json.Marshal(map[string]string{"error": s.cause})
	}

	out := make(map[string]deviceJSON, len(s.devices))
	for id, d := range s.devices {
		out[id] = deviceJSON{
			Vars:       d.Variables,
			Rooms:      d.RoomLabel,
			LastUpdate: d.LastUpdate.Format(LastUpdateLayout),
		}
	}
	return json.Marshal(out)
}
