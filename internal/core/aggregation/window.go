package aggregation

import (
	"fmt"
	"strings"
	"time"
)

// Granularity is the width of a click bucket.
type Granularity int

const (
	Hour Granularity = iota
	Day
	Week
)

// Granularities lists every supported granularity in persistence order.
var Granularities = []Granularity{Hour, Day, Week}

const (
	hourKeyLayout = "2006-01-02 15"
	dayKeyLayout  = "2006-01-02"

	// weekKeySeparator joins the Monday and Sunday dates of a week key.
	weekKeySeparator = " to "
)

func (g Granularity) String() string {
	switch g {
	case Hour:
		return "hour"
	case Day:
		return "day"
	case Week:
		return "week"
	default:
		return fmt.Sprintf("granularity(%d)", int(g))
	}
}

// Window returns the trailing span a query at this granularity looks back over.
func (g Granularity) Window() time.Duration {
	switch g {
	case Hour:
		return 24 * time.Hour
	case Day:
		return 7 * 24 * time.Hour
	case Week:
		return 30 * 24 * time.Hour
	default:
		return 0
	}
}

// ParseGranularity maps "hour", "day" or "week" to a Granularity.
func ParseGranularity(s string) (Granularity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "hour":
		return Hour, nil
	case "day":
		return Day, nil
	case "week":
		return Week, nil
	}
	return 0, fmt.Errorf("%w: unknown granularity %q (must be hour, day or week)", ErrInvalidInput, s)
}

// KeyFor renders the bucket key containing t.
// Example: KeyFor(Hour, 2024-01-25 20:34:06) → "2024-01-25 20"
func KeyFor(g Granularity, t time.Time) string {
	t = Naive(t)
	switch g {
	case Hour:
		return t.Format(hourKeyLayout)
	case Day:
		return t.Format(dayKeyLayout)
	case Week:
		monday, sunday := WeekRange(t)
		return monday.Format(dayKeyLayout) + weekKeySeparator + sunday.Format(dayKeyLayout)
	default:
		return ""
	}
}

// Keys returns the hour, day and week keys for t.
func Keys(t time.Time) (hour, day, week string) {
	return KeyFor(Hour, t), KeyFor(Day, t), KeyFor(Week, t)
}

// WeekRange returns the Monday and Sunday of the calendar week containing t.
// Both keep t's time of day; only their dates are used in keys.
func WeekRange(t time.Time) (monday, sunday time.Time) {
	offset := (int(t.Weekday()) + 6) % 7 // Monday = 0
	return t.AddDate(0, 0, -offset), t.AddDate(0, 0, 6-offset)
}

// KeyStart reads a bucket key back as a timestamp.
//
// Hour and day keys are parsed whole. Week keys only contribute the date before
// " to ", so a week bucket is judged by its Monday while hour and day buckets are
// judged by their own start. The asymmetry is long-standing behaviour of the
// read endpoints and is kept as is.
func KeyStart(g Granularity, key string) (time.Time, error) {
	if g == Week {
		start, _, _ := strings.Cut(key, weekKeySeparator)
		return ParseTimestamp(start)
	}
	return ParseTimestamp(key)
}

// InWindow reports whether a bucket whose key starts at keyStart is visible
// at now: keyStart must lie in [now-window, now], both ends inclusive.
func InWindow(g Granularity, keyStart, now time.Time) bool {
	now = Naive(now)
	start := now.Add(-g.Window())
	return !keyStart.Before(start) && !keyStart.After(now)
}
