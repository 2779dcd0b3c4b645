package persistence

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/qrpulse/qrpulse/internal/core/aggregation"
)

// DocumentVersion is the snapshot layout written by this build.
// Documents without a version field predate versioning and read as version 1.
const DocumentVersion = 1

// Document is the persisted snapshot layout. Field names are a stable
// contract: files written by earlier deployments load unchanged.
type Document struct {
	Version   int              `json:"version,omitempty"`
	ClickData map[string]Entry `json:"click_data"`
}

// Entry holds the three bucket maps of one QR id.
type Entry struct {
	Hour map[string]uint64 `json:"clicks_last_day_by_hour"`
	Day  map[string]uint64 `json:"clicks_last_week_by_day"`
	Week map[string]uint64 `json:"clicks_last_month_by_week"`
}

// Encode renders a snapshot as a document. Every id known to any granularity
// gets an entry, and absent maps are written as empty objects.
func Encode(snap aggregation.Snapshot) ([]byte, error) {
	doc := Document{
		Version:   DocumentVersion,
		ClickData: make(map[string]Entry, len(snap.Clicks)),
	}
	for id, b := range snap.Clicks {
		doc.ClickData[id] = Entry{
			Hour: nonNil(b.Hour),
			Day:  nonNil(b.Day),
			Week: nonNil(b.Week),
		}
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	return data, nil
}

// Decode parses a document into a snapshot.
func Decode(data []byte) (aggregation.Snapshot, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return aggregation.Snapshot{}, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	if doc.Version > DocumentVersion {
		return aggregation.Snapshot{}, fmt.Errorf("unsupported snapshot version %d (newest known is %d)", doc.Version, DocumentVersion)
	}

	snap := aggregation.Snapshot{Clicks: make(map[string]aggregation.Buckets, len(doc.ClickData))}
	for id, e := range doc.ClickData {
		if id == "" {
			// Older deployments accepted an empty qr_id. Nothing can query it.
			slog.Warn("Skipping snapshot entry with empty qr_id")
			continue
		}
		snap.Clicks[id] = aggregation.Buckets{
			Hour: e.Hour,
			Day:  e.Day,
			Week: e.Week,
		}
	}
	return snap, nil
}

func nonNil(m aggregation.BucketMap) map[string]uint64 {
	if m == nil {
		return map[string]uint64{}
	}
	return m
}
