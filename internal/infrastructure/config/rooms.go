package config

import (
	"errors"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrFallback marks a LoadOrDefault result that is running on defaults.
var ErrFallback = errors.New("config: using defaults")

// RoomNotAvailable is the label used for devices without a room entry.
const RoomNotAvailable = "N/D"

// Rooms maps lower-cased device identifiers to human room labels.
//
// Keys are normalised on unmarshal so the YAML may use any case.
// A Rooms value is read-only after startup.
type Rooms map[string]string

// UnmarshalYAML lower-cases every key so lookups are case-insensitive.
func (r *Rooms) UnmarshalYAML(node *yaml.Node) error {
	raw := map[string]string{}
	if err := node.Decode(&raw); err != nil {
		return err
	}

	out := make(Rooms, len(raw))
	for k, v := range raw {
		out[strings.ToLower(k)] = v
	}
	*r = out
	return nil
}

// Lookup returns the room label for deviceID, or RoomNotAvailable.
func (r Rooms) Lookup(deviceID string) string {
	if label, ok := r[strings.ToLower(deviceID)]; ok {
		return label
	}
	return RoomNotAvailable
}

// NewRooms builds a Rooms table from an arbitrary-case map.
func NewRooms(m map[string]string) Rooms {
	out := make(Rooms, len(m))
	for k, v := range m {
		out[strings.ToLower(k)] = v
	}
	return out
}
