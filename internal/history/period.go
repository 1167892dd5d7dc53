package history

import "time"

// Period is a look-back window for history queries.
type Period string

const (
	PeriodDay   Period = "1d"
	PeriodWeek  Period = "1w"
	PeriodMonth Period = "1m"
)

// ParsePeriod maps raw query input to a Period. Unknown or empty input is
// treated as PeriodDay rather than rejected.
func ParsePeriod(raw string) Period {
	switch p := Period(raw); p {
	case PeriodDay, PeriodWeek, PeriodMonth:
		return p
	default:
		return PeriodDay
	}
}

// Seconds returns the window length.
func (p Period) Seconds() int64 {
	switch p {
	case PeriodWeek:
		return 604800
	case PeriodMonth:
		return 2592000
	default:
		return 86400
	}
}

// Since returns the exclusive lower bound of the window ending at now.
func (p Period) Since(now time.Time) int64 {
	return now.Unix() - p.Seconds()
}
