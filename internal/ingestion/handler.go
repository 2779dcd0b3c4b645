package ingestion

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	v1 "github.com/qrpulse/qrpulse/internal/api/v1"
	"github.com/qrpulse/qrpulse/internal/core/aggregation"
	httperr "github.com/qrpulse/qrpulse/internal/core/errors"
	"github.com/qrpulse/qrpulse/internal/metrics"
)

// ClickIDHeader carries the id assigned to each accepted click, for log correlation.
const ClickIDHeader = "X-Click-ID"

const (
	msgReadBodyFailed = "Failed to read request body"
	msgInvalidJSON    = "Invalid JSON body"
	msgRateLimited    = "Too many clicks, retry later"
)

// ingestionError carries the structured HTTP error shape from a helper back to the orchestrator.
// Helpers return this instead of writing to gin.Context directly, keeping them decoupled from HTTP.
type ingestionError struct {
	statusCode int
	errorType  string
	message    string
	details    interface{}
}

func (e *ingestionError) Error() string {
	return e.message
}

// AnalyzeHandler handles POST /analyze_qr_code.
func (s *Service) AnalyzeHandler(c *gin.Context) {
	req, payloadSize, err := s.parseClick(c)
	if err != nil {
		metrics.ClicksRejected.Inc()
		writeError(c, err)
		return
	}

	evt, err := s.recordClick(req)
	if err != nil {
		metrics.ClicksRejected.Inc()
		writeError(c, err)
		return
	}

	clickID := uuid.NewString()
	slog.Info("Recorded click",
		"click_id", clickID,
		"qr_id", evt.QRID,
		"at", evt.At.Format(aggregation.TimestampLayout),
		"payload_size", payloadSize)
	metrics.ClicksRecorded.Inc()
	metrics.TrackedQRCodes.Set(float64(s.store.Len()))

	s.persist(c)

	c.Header(ClickIDHeader, clickID)
	c.JSON(http.StatusOK, v1.ClickResponse{Message: v1.SuccessMessage})
}

// parseClick reads the raw request body and binds it into a ClickRequest.
func (s *Service) parseClick(c *gin.Context) (*v1.ClickRequest, int, *ingestionError) {
	maxBytes := int64(s.maxBodySizeBytes)
	limitedBody := io.LimitReader(c.Request.Body, maxBytes+1) // +1 to detect oversized requests

	bodyBytes, err := io.ReadAll(limitedBody)
	if err != nil {
		slog.Error("Failed to read request body", "error", err)
		return nil, 0, &ingestionError{
			statusCode: http.StatusInternalServerError,
			errorType:  httperr.HttpInternalError,
			message:    msgReadBodyFailed,
		}
	}

	if int64(len(bodyBytes)) > maxBytes {
		slog.Warn("Request body exceeds maximum size", "size", len(bodyBytes), "max", maxBytes)
		return nil, len(bodyBytes), &ingestionError{
			statusCode: http.StatusRequestEntityTooLarge,
			errorType:  httperr.HttpPayloadTooLargeError,
			message:    "Request body exceeds maximum allowed size",
			details: map[string]interface{}{
				"max_size_mb": maxBytes / (1024 * 1024),
			},
		}
	}

	c.Request.Body = io.NopCloser(bytes.NewReader(bodyBytes))

	var req v1.ClickRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Warn("Invalid JSON body received", "error", err, "payload_size", len(bodyBytes))
		return nil, len(bodyBytes), &ingestionError{
			statusCode: http.StatusBadRequest,
			errorType:  httperr.HttpInvalidInputError,
			message:    msgInvalidJSON,
		}
	}

	if err := req.Validate(); err != nil {
		slog.Warn("Click validation failed", "error", err)
		return nil, len(bodyBytes), &ingestionError{
			statusCode: http.StatusBadRequest,
			errorType:  httperr.HttpInvalidInputError,
			message:    err.Error(),
		}
	}

	return &req, len(bodyBytes), nil
}

// recordClick counts the click in the store. Every store error is an
// ErrInvalidInput and nothing is mutated on error.
func (s *Service) recordClick(req *v1.ClickRequest) (aggregation.Event, *ingestionError) {
	evt, err := s.store.RecordString(req.QRID, req.Timestamp)
	if err != nil {
		slog.Warn("Rejected click", "qr_id", req.QRID, "timestamp", req.Timestamp, "error", err)
		return aggregation.Event{}, &ingestionError{
			statusCode: http.StatusBadRequest,
			errorType:  httperr.HttpInvalidInputError,
			message:    err.Error(),
			details: map[string]interface{}{
				"timestamp": req.Timestamp,
			},
		}
	}
	return evt, nil
}

// persist hands the new state to the saver. A failed save never fails the
// request; the click is already counted in memory.
func (s *Service) persist(c *gin.Context) {
	if !s.syncSave {
		s.persister.Trigger()
		return
	}
	if err := s.persister.Flush(c.Request.Context()); err != nil {
		slog.Warn("Inline snapshot save failed, saver will retry", "error", err)
		s.persister.Trigger()
	}
}

func (s *Service) rateLimit(c *gin.Context) {
	if s.limiter == nil || s.limiter.Allow() {
		c.Next()
		return
	}
	slog.Warn("Click rate limit exceeded", "client_ip", c.ClientIP())
	writeError(c, &ingestionError{
		statusCode: http.StatusTooManyRequests,
		errorType:  httperr.HttpRateLimitedError,
		message:    msgRateLimited,
	})
	c.Abort()
}

// writeError serializes an ingestionError as the JSON HTTP response.
func writeError(c *gin.Context, err *ingestionError) {
	c.JSON(err.statusCode, httperr.ErrorResponse{
		ErrorType: err.errorType,
		Message:   err.message,
		Details:   err.details,
	})
}
