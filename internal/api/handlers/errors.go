package handlers

import (
	"errors"
	"net/http"

	"github.com/custodia-labs/cctp-courier/internal/pipeline"
)

// Error codes as constants for consistent error responses across handlers
const (
	ErrCodeInvalidRequest     = "INVALID_REQUEST"
	ErrCodeValidationFailed   = "VALIDATION_FAILED"
	ErrCodeInvalidAmount      = "INVALID_AMOUNT"
	ErrCodeTransferInProgress = "TRANSFER_IN_PROGRESS"
	ErrCodeNoTransfers        = "NO_TRANSFERS"
	ErrCodeInsufficientFunds  = "INSUFFICIENT_FUNDS"
	ErrCodeAttestationTimeout = "ATTESTATION_TIMEOUT"
	ErrCodeSubmissionFailed   = "SUBMISSION_FAILED"
	ErrCodeTransferFailed     = "TRANSFER_FAILED"
)

// ErrorResponse is the JSON error envelope for all endpoints.
type ErrorResponse struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// transferErrorStatus maps a pipeline failure to an HTTP status and error
// code. Funding problems are the caller's to fix; oracle and signer
// problems are upstream.
func transferErrorStatus(err error) (int, string) {
	var perr *pipeline.Error
	if errors.As(err, &perr) {
		switch perr.Kind {
		case pipeline.KindInsufficientBalance, pipeline.KindInsufficientAllowance:
			return http.StatusUnprocessableEntity, ErrCodeInsufficientFunds
		case pipeline.KindAttestationTimeout:
			return http.StatusGatewayTimeout, ErrCodeAttestationTimeout
		case pipeline.KindRemoteSubmission:
			return http.StatusBadGateway, ErrCodeSubmissionFailed
		}
	}
	return http.StatusInternalServerError, ErrCodeTransferFailed
}
