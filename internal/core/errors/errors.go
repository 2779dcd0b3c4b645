package errors

const (
	HttpInternalError        = "internal_error"
	HttpInvalidInputError    = "invalid_input"
	HttpPayloadTooLargeError = "payload_too_large"
	HttpRateLimitedError     = "rate_limited"
)

// ErrorResponse is the error response body shared by all handlers.
type ErrorResponse struct {
	ErrorType string      `json:"error_type"`
	Message   string      `json:"message"`
	Details   interface{} `json:"details,omitempty"`
}
