package v1

import "fmt"

// SuccessMessage is returned by POST /analyze_qr_code once a click is counted.
const SuccessMessage = "QR code analyzed successfully"

// ClickRequest is the body of POST /analyze_qr_code.
type ClickRequest struct {
	// QRID is the opaque identifier of the scanned code.
	QRID string `json:"qr_id"`

	// Timestamp is an ISO-8601 local date-time such as "2024-01-25T20:34:06".
	// Any offset is dropped and the wall clock kept.
	Timestamp string `json:"timestamp"`
}

// Validate checks the request carries both fields. The id is opaque and only
// has to be non-empty; timestamp syntax is checked when the click is recorded.
func (r *ClickRequest) Validate() error {
	if r.QRID == "" {
		return fmt.Errorf("qr_id is required")
	}
	if r.Timestamp == "" {
		return fmt.Errorf("timestamp is required")
	}
	return nil
}

// ClickResponse is the success body of POST /analyze_qr_code.
type ClickResponse struct {
	Message string `json:"Message"`
}

// ClickCounts maps bucket keys to counts, as returned by the GET views.
type ClickCounts map[string]uint64
