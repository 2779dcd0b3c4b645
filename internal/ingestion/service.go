package ingestion

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/qrpulse/qrpulse/internal/core/aggregation"
	"golang.org/x/time/rate"
)

// Persister schedules or performs a snapshot save after a click is recorded.
// persistence.Saver satisfies it.
type Persister interface {
	Trigger()
	Flush(ctx context.Context) error
}

type Service struct {
	store            *aggregation.Store
	persister        Persister
	maxBodySizeBytes int
	syncSave         bool
	limiter          *rate.Limiter
}

func NewService(store *aggregation.Store, persister Persister, maxBodySizeMB int, syncSave bool) *Service {
	if store == nil {
		panic("ingestion: store must not be nil")
	}
	if persister == nil {
		panic("ingestion: persister must not be nil")
	}
	if maxBodySizeMB <= 0 {
		maxBodySizeMB = 1 // default to 1MB
	}
	return &Service{
		store:            store,
		persister:        persister,
		maxBodySizeBytes: maxBodySizeMB * 1024 * 1024,
		syncSave:         syncSave,
	}
}

// WithRateLimit caps accepted clicks at rps with the given burst.
// A non-positive rps leaves ingestion unlimited.
func (s *Service) WithRateLimit(rps float64, burst int) *Service {
	if rps > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
	return s
}

// RegisterRoutes registers the ingestion service routes.
func (s *Service) RegisterRoutes(r gin.IRouter) {
	r.POST("/analyze_qr_code", s.rateLimit, s.AnalyzeHandler)
}
