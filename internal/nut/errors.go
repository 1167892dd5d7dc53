package nut

import (
	"errors"
	"fmt"
)

// Sentinel errors for NUT operations.
var (
	// ErrConnectionFailed indicates upsd could not be reached.
	ErrConnectionFailed = errors.New("nut: connection failed")

	// ErrNotConnected indicates the session has already been closed.
	ErrNotConnected = errors.New("nut: not connected")

	// ErrProtocol indicates upsd answered with ERR or with a malformed line.
	ErrProtocol = errors.New("nut: protocol error")
)

// ProtocolError carries the upsd error code from an "ERR <code>" reply,
// or the offending line when the reply could not be parsed.
type ProtocolError struct {
	Command string
	Code    string
	Line    string
}

func (e *ProtocolError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("nut: %s: ERR %s", e.Command, e.Code)
	}
	return fmt.Sprintf("nut: %s: unexpected reply %q", e.Command, e.Line)
}

// Is makes errors.Is(err, ErrProtocol) match any *ProtocolError.
func (e *ProtocolError) Is(target error) bool {
	return target == ErrProtocol
}
