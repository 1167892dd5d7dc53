package history

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ParseMeasure reads a NUT reading such as "230.0" or "230.0 V": the first
// whitespace-delimited token is parsed as a float and the rest is ignored.
// NaN and infinities are rejected: SQLite stores them as NULL and JSON
// cannot encode them.
func ParseMeasure(raw string) (float64, error) {
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return 0, fmt.Errorf("%w: empty value", ErrBadMeasure)
	}
	v, err := strconv.ParseFloat(fields[0], 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %q", ErrBadMeasure, raw)
	}
	return v, nil
}

// MeasureOrZero is ParseMeasure with malformed input mapped to 0.0.
func MeasureOrZero(raw string) float64 {
	v, err := ParseMeasure(raw)
	if err != nil {
		return 0
	}
	return v
}
