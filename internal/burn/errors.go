package burn

import "errors"

var (
	// ErrInsufficientBalance means the signer holds less of the asset than
	// the requested amount.
	ErrInsufficientBalance = errors.New("insufficient token balance")

	// ErrInsufficientAllowance means the token messenger's allowance is
	// below the requested amount and approval was not attempted.
	ErrInsufficientAllowance = errors.New("insufficient token allowance")

	// ErrApprovalFailed means the approval transaction was rejected or
	// reverted.
	ErrApprovalFailed = errors.New("token approval failed")

	// ErrMissingBurnEvent means the burn was mined but its receipt carries
	// no MessageSent event. The burn happened; nothing can be relayed.
	ErrMissingBurnEvent = errors.New("burn receipt missing MessageSent event")
)
