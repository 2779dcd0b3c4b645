package projection

import (
	"time"

	v1 "github.com/qrpulse/qrpulse/internal/api/v1"
	"github.com/qrpulse/qrpulse/internal/core/aggregation"
	"github.com/qrpulse/qrpulse/internal/metrics"
)

// Service implements the windowed read side over the click store.
type Service struct {
	store *aggregation.Store
	nowFn func() time.Time
}

// NewService creates a projection service whose "now" is the wall clock in loc.
// A nil loc means time.Local.
func NewService(store *aggregation.Store, loc *time.Location) *Service {
	if store == nil {
		panic("projection: store must not be nil")
	}
	if loc == nil {
		loc = time.Local
	}
	return &Service{
		store: store,
		nowFn: func() time.Time {
			return time.Now().In(loc)
		},
	}
}

// Clicks returns the in-window buckets of qrID at granularity g.
// An unknown qrID yields an empty, non-nil result.
func (s *Service) Clicks(qrID string, g aggregation.Granularity) v1.ClickCounts {
	metrics.Queries.WithLabelValues(g.String()).Inc()
	return v1.ClickCounts(s.store.Query(qrID, g, s.nowFn()))
}
