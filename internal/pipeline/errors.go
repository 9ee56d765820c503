package pipeline

import (
	"errors"
	"fmt"

	"github.com/custodia-labs/cctp-courier/internal/attestation"
	"github.com/custodia-labs/cctp-courier/internal/burn"
	"github.com/custodia-labs/cctp-courier/internal/fordefi"
	"github.com/custodia-labs/cctp-courier/internal/receive"
)

// Stage identifies where in the transfer a failure happened. A transfer
// that failed past the burn stage has already moved funds and must be
// resumed, not restarted.
type Stage string

const (
	StageBurn        Stage = "burn"
	StageAttestation Stage = "attestation"
	StageBuild       Stage = "build"
	StageSubmit      Stage = "submit"
)

// Kind classifies a failure for operators and metrics.
type Kind string

const (
	KindInsufficientBalance   Kind = "insufficient_balance"
	KindInsufficientAllowance Kind = "insufficient_allowance"
	KindApprovalFailed        Kind = "approval_failed"
	KindMissingBurnEvent      Kind = "missing_burn_event"
	KindAttestationTimeout    Kind = "attestation_timeout"
	KindAccountResolution     Kind = "account_resolution"
	KindRemoteSubmission      Kind = "remote_submission"
	KindInternal              Kind = "internal"
)

// Error wraps a stage failure with its classification. The wrapped error
// keeps the full chain, so errors.Is still matches the underlying
// sentinels.
type Error struct {
	Stage Stage
	Kind  Kind
	Err   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s stage failed (%s): %v", e.Stage, e.Kind, e.Err)
}

// Unwrap exposes the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Recoverable reports whether retrying the same transfer input can
// succeed, as opposed to failures that need operator intervention first.
func (e *Error) Recoverable() bool {
	switch e.Kind {
	case KindAttestationTimeout, KindRemoteSubmission, KindInternal:
		return true
	}
	return false
}

// classify maps an error to its kind via the sentinel chain. Anything
// unrecognized out of the submit stage is still a remote submission
// failure; elsewhere it is internal.
func classify(stage Stage, err error) Kind {
	switch {
	case errors.Is(err, burn.ErrInsufficientBalance):
		return KindInsufficientBalance
	case errors.Is(err, burn.ErrInsufficientAllowance):
		return KindInsufficientAllowance
	case errors.Is(err, burn.ErrApprovalFailed):
		return KindApprovalFailed
	case errors.Is(err, burn.ErrMissingBurnEvent):
		return KindMissingBurnEvent
	case errors.Is(err, attestation.ErrTimeout):
		return KindAttestationTimeout
	case errors.Is(err, receive.ErrAccountResolution):
		return KindAccountResolution
	}

	var apiErr *fordefi.APIError
	if errors.As(err, &apiErr) || stage == StageSubmit {
		return KindRemoteSubmission
	}
	return KindInternal
}

// stageError builds the classified wrapper for a stage failure.
func stageError(stage Stage, err error) *Error {
	return &Error{Stage: stage, Kind: classify(stage, err), Err: err}
}
