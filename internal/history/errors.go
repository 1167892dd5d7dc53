package history

import "errors"

var (
	// ErrBadMeasure is returned by ParseMeasure for empty or non-numeric text.
	ErrBadMeasure = errors.New("history: malformed measure")

	// ErrEmptyDevice is returned by Append for a record without a device id.
	ErrEmptyDevice = errors.New("history: device id is required")
)
