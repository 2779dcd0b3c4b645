package aggregation

import (
	"fmt"
	"time"
)

// TimestampLayout is how naive click times are rendered back to clients and logs.
const TimestampLayout = "2006-01-02T15:04:05"

// timestampLayouts are the ISO-8601 shapes accepted for click timestamps and
// for bucket keys read back as times. Fractional seconds are accepted by the
// seconds layouts without being spelled out.
var timestampLayouts = []string{
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05Z0700",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05Z0700",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02T15",
	"2006-01-02 15",
	"2006-01-02",
}

// ParseTimestamp parses an ISO-8601 date-time into a naive time.
// A zone designator, when present, is dropped and the wall clock is kept.
func ParseTimestamp(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: timestamp is required", ErrInvalidInput)
	}
	if !hasTwoDigitHour(s) {
		return time.Time{}, fmt.Errorf("%w: invalid isoformat timestamp %q", ErrInvalidInput, s)
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Naive(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: invalid isoformat timestamp %q", ErrInvalidInput, s)
}

// hasTwoDigitHour reports whether a time part, if present, starts with a
// zero-padded hour. time.Parse alone also takes "5" for "15".
func hasTwoDigitHour(s string) bool {
	if len(s) <= len("2006-01-02") {
		return true
	}
	if len(s) < len("2006-01-02T15") {
		return false
	}
	return isDigit(s[11]) && isDigit(s[12])
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

// Naive strips the location from t, keeping its wall clock.
// All bucket arithmetic happens on naive times held in UTC.
func Naive(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}
