package projection

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/qrpulse/qrpulse/internal/core/aggregation"
	httperr "github.com/qrpulse/qrpulse/internal/core/errors"
)

// Legacy view paths, one per granularity.
const (
	PathLastDayByHour   = "/clicks_last_day_by_hour"
	PathLastWeekByDay   = "/clicks_last_week_by_day"
	PathLastMonthByWeek = "/clicks_last_month_by_week"
)

// RegisterRoutes registers all projection API routes on the given router.
func (s *Service) RegisterRoutes(r gin.IRouter) {
	r.GET(PathLastDayByHour+"/:qr_id", s.viewHandler(aggregation.Hour))
	r.GET(PathLastWeekByDay+"/:qr_id", s.viewHandler(aggregation.Day))
	r.GET(PathLastMonthByWeek+"/:qr_id", s.viewHandler(aggregation.Week))

	r.GET("/v1/clicks/:qr_id", s.HandleQueryClicks)
}

func (s *Service) viewHandler(g aggregation.Granularity) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, s.Clicks(c.Param("qr_id"), g))
	}
}

// HandleQueryClicks handles GET /v1/clicks/:qr_id?granularity=hour|day|week.
// Granularity defaults to hour.
func (s *Service) HandleQueryClicks(c *gin.Context) {
	var query struct {
		Granularity string `form:"granularity"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
			ErrorType: httperr.HttpInvalidInputError,
			Message:   "Invalid query parameters",
			Details:   err.Error(),
		})
		return
	}

	g := aggregation.Hour
	if query.Granularity != "" {
		parsed, err := aggregation.ParseGranularity(query.Granularity)
		if err != nil {
			c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
				ErrorType: httperr.HttpInvalidInputError,
				Message:   "Invalid click query",
				Details:   err.Error(),
			})
			return
		}
		g = parsed
	}

	c.JSON(http.StatusOK, s.Clicks(c.Param("qr_id"), g))
}
