package aggregation

import (
	"errors"
	"time"
)

// ErrInvalidInput is returned when a click cannot be recorded: missing QR id or
// an unparseable timestamp. Nothing is mutated when it is returned.
var ErrInvalidInput = errors.New("invalid input")

// Event is a single QR code click.
type Event struct {
	QRID string
	At   time.Time // naive wall clock
}

// BucketMap maps bucket keys to click counts.
type BucketMap map[string]uint64

// Buckets holds the three per-granularity bucket maps of one QR id.
// Maps are created lazily and may be nil.
type Buckets struct {
	Hour BucketMap
	Day  BucketMap
	Week BucketMap
}

// Map returns the bucket map for g, which may be nil.
func (b *Buckets) Map(g Granularity) BucketMap {
	switch g {
	case Hour:
		return b.Hour
	case Day:
		return b.Day
	case Week:
		return b.Week
	}
	return nil
}

// ensure returns the bucket map for g, allocating it on first use.
func (b *Buckets) ensure(g Granularity) BucketMap {
	m := b.Map(g)
	if m != nil {
		return m
	}
	m = make(BucketMap)
	switch g {
	case Hour:
		b.Hour = m
	case Day:
		b.Day = m
	case Week:
		b.Week = m
	}
	return m
}

func (b Buckets) clone() Buckets {
	return Buckets{
		Hour: b.Hour.clone(),
		Day:  b.Day.clone(),
		Week: b.Week.clone(),
	}
}

func (m BucketMap) clone() BucketMap {
	if m == nil {
		return nil
	}
	out := make(BucketMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Snapshot is a deep copy of a Store's counters.
type Snapshot struct {
	// Version is the store version the snapshot was taken at.
	Version uint64
	Clicks  map[string]Buckets
}
