package fordefi

import "fmt"

// APIError is a non-success response from the transaction API. The body is
// kept verbatim so operators see exactly what the platform rejected.
type APIError struct {
	StatusCode int
	Body       string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("fordefi API error [%d]: %s", e.StatusCode, e.Body)
}

// IsUnauthorized returns true if the error is a 401 unauthorized error.
func (e *APIError) IsUnauthorized() bool {
	return e.StatusCode == 401
}

// IsInvalidRequest returns true for 4xx validation failures, which will not
// succeed on resubmission of the same payload.
func (e *APIError) IsInvalidRequest() bool {
	return e.StatusCode >= 400 && e.StatusCode < 500 && e.StatusCode != 401
}
