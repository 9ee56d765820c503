package pipeline

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/custodia-labs/cctp-courier/internal/cctp"
)

// TransferRequest is one operator-initiated transfer.
type TransferRequest struct {
	Amount decimal.Decimal
	Mode   cctp.Mode
}

// TransferResult is the record of a completed transfer, one field per
// stage output. Everything needed to audit or resume the transfer is
// here: the burn hash re-enters the pipeline via Resume, the submission
// id is the handle into the signing platform.
type TransferResult struct {
	ID              uuid.UUID `json:"id"`
	Mode            cctp.Mode `json:"mode"`
	Amount          string    `json:"amount"`
	AmountBaseUnits string    `json:"amount_base_units"`
	BurnTxHash      string    `json:"burn_tx_hash"`
	MessageHash     string    `json:"message_hash"`
	TransactionSize int       `json:"transaction_size"`
	CreatedATA      bool      `json:"created_token_account"`
	SubmissionID    string    `json:"submission_id"`
	SubmissionState string    `json:"submission_state"`
	StartedAt       time.Time `json:"started_at"`
	CompletedAt     time.Time `json:"completed_at"`
}
