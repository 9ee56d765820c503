package attestation

import "fmt"

// APIError represents an Iris API error response
type APIError struct {
	StatusCode int    `json:"status_code"`
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("Iris API error [%d]: %s (code: %s)", e.StatusCode, e.Message, e.Code)
}

func (e *APIError) IsNotFound() bool {
	return e.StatusCode == 404
}

func (e *APIError) IsRateLimited() bool {
	return e.StatusCode == 429
}

// ErrNoMessages indicates no messages found for the transaction
var ErrNoMessages = fmt.Errorf("no messages found for transaction")

// ErrTimeout indicates the poll attempt budget was exhausted before the
// attestation became ready.
var ErrTimeout = fmt.Errorf("attestation timed out")
