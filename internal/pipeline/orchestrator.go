package pipeline

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/custodia-labs/cctp-courier/internal/attestation"
	"github.com/custodia-labs/cctp-courier/internal/burn"
	"github.com/custodia-labs/cctp-courier/internal/cctp"
	"github.com/custodia-labs/cctp-courier/internal/fordefi"
	"github.com/custodia-labs/cctp-courier/internal/receive"
	"github.com/custodia-labs/cctp-courier/pkg/logger"
	"github.com/custodia-labs/cctp-courier/pkg/metrics"
	"github.com/custodia-labs/cctp-courier/pkg/tracing"
)

// Burner executes the burn leg on the source chain.
type Burner interface {
	Execute(ctx context.Context, req burn.Request) (*burn.Receipt, error)
}

// Poller waits for the oracle to attest the burn.
type Poller interface {
	Poll(ctx context.Context, sourceDomain uint32, txHash string, maxAttempts int) (*attestation.Attestation, error)
}

// Builder assembles the destination chain receive transaction.
type Builder interface {
	Build(ctx context.Context, att *attestation.Attestation) (*receive.Transaction, error)
}

// Submitter hands the serialized transaction to the remote signer.
type Submitter interface {
	SubmitTransaction(ctx context.Context, serializedMessage string) (*fordefi.TransactionResponse, error)
}

// FeeOracle exposes the advertised fee schedule for a route.
type FeeOracle interface {
	GetFees(ctx context.Context, sourceDomain, destinationDomain uint32) ([]attestation.FeeEntry, error)
}

// Config carries the route parameters shared by every transfer.
type Config struct {
	SourceDomain      uint32
	DestinationDomain uint32

	// MintRecipient is the destination token account the burn mints into,
	// padded to the 32 byte wire form.
	MintRecipient [32]byte
}

// Orchestrator drives a transfer through its four stages in order. Stages
// run strictly one after another on the calling goroutine; a stage failure
// stops the transfer and is returned classified.
type Orchestrator struct {
	burner    Burner
	poller    Poller
	builder   Builder
	submitter Submitter
	fees      FeeOracle
	config    Config
	logger    *logger.Logger
}

// New creates a transfer orchestrator. fees may be nil, disabling the
// advisory fee comparison before fast transfers.
func New(
	burner Burner,
	poller Poller,
	builder Builder,
	submitter Submitter,
	fees FeeOracle,
	config Config,
	log *logger.Logger,
) *Orchestrator {
	return &Orchestrator{
		burner:    burner,
		poller:    poller,
		builder:   builder,
		submitter: submitter,
		fees:      fees,
		config:    config,
		logger:    log,
	}
}

// Execute runs a full transfer: burn, attestation, build, submit.
func (o *Orchestrator) Execute(ctx context.Context, req TransferRequest) (*TransferResult, error) {
	mode := req.Mode
	if mode == "" {
		mode = cctp.ModeStandard
	}

	baseUnits, err := ToBaseUnits(req.Amount)
	if err != nil {
		return nil, fmt.Errorf("invalid transfer amount: %w", err)
	}

	result := &TransferResult{
		ID:              uuid.New(),
		Mode:            mode,
		Amount:          FromBaseUnits(baseUnits).String(),
		AmountBaseUnits: baseUnits.String(),
		StartedAt:       time.Now(),
	}
	log := o.logger.With("transfer_id", result.ID.String(), "mode", string(mode))

	ctx, span := tracing.GetTracer("pipeline").Start(ctx, "transfer", trace.WithAttributes(
		attribute.String("transfer.id", result.ID.String()),
		attribute.String("transfer.mode", string(mode)),
		attribute.String("transfer.amount", result.Amount),
	))
	defer span.End()

	log.Info("starting transfer",
		"amount", result.Amount,
		"amount_base_units", result.AmountBaseUnits,
		"source_domain", cctp.DomainName(o.config.SourceDomain),
		"destination_domain", cctp.DomainName(o.config.DestinationDomain))

	maxFee := mode.MaxFee(baseUnits)
	o.adviseFee(ctx, mode, baseUnits, maxFee, log)

	receipt, err := o.runBurn(ctx, burn.Request{
		Amount:               baseUnits,
		MintRecipient:        o.config.MintRecipient,
		MaxFee:               maxFee,
		MinFinalityThreshold: mode.FinalityThreshold(),
	})
	if err != nil {
		metrics.RecordTransfer(string(mode), "failed")
		return nil, err
	}
	result.BurnTxHash = receipt.TxHash.Hex()
	result.MessageHash = cctp.EncodeHex(receipt.MessageHash[:])
	log.Info("burn stage complete", "burn_tx_hash", result.BurnTxHash)

	att, err := o.runPoll(ctx, result.BurnTxHash, mode.MaxPollAttempts())
	if err == nil {
		err = verifyEcho(receipt, att)
		if err != nil {
			err = stageError(StageAttestation, err)
		}
	}
	if err != nil {
		metrics.RecordTransfer(string(mode), "failed")
		return nil, err
	}
	log.Info("attestation stage complete", "message_hash", result.MessageHash)

	tx, err := o.runBuild(ctx, att)
	if err != nil {
		metrics.RecordTransfer(string(mode), "failed")
		return nil, err
	}
	result.TransactionSize = tx.Size
	result.CreatedATA = tx.CreatedATA
	log.Info("build stage complete",
		"transaction_size", tx.Size,
		"created_token_account", tx.CreatedATA,
		"used_lookup_table", tx.UsedLookupTable)

	sub, err := o.runSubmit(ctx, tx.Base64)
	if err != nil {
		metrics.RecordTransfer(string(mode), "failed")
		return nil, err
	}
	result.SubmissionID = sub.ID
	result.SubmissionState = sub.State
	result.CompletedAt = time.Now()

	metrics.RecordTransfer(string(mode), "success")
	log.Info("transfer complete",
		"burn_tx_hash", result.BurnTxHash,
		"submission_id", result.SubmissionID,
		"submission_state", result.SubmissionState,
		"duration", result.CompletedAt.Sub(result.StartedAt).String())
	return result, nil
}

// Resume picks up a transfer whose burn already confirmed, identified by
// its burn transaction hash. The oracle's copy of the message is the
// source of truth here; the local extraction from the original run is
// gone.
func (o *Orchestrator) Resume(ctx context.Context, burnTxHash string, mode cctp.Mode) (*TransferResult, error) {
	if mode == "" {
		mode = cctp.ModeStandard
	}

	result := &TransferResult{
		ID:         uuid.New(),
		Mode:       mode,
		BurnTxHash: burnTxHash,
		StartedAt:  time.Now(),
	}
	log := o.logger.With("transfer_id", result.ID.String(), "mode", string(mode))

	ctx, span := tracing.GetTracer("pipeline").Start(ctx, "transfer.resume", trace.WithAttributes(
		attribute.String("transfer.id", result.ID.String()),
		attribute.String("transfer.burn_tx_hash", burnTxHash),
	))
	defer span.End()

	log.Info("resuming transfer", "burn_tx_hash", burnTxHash)

	att, err := o.runPoll(ctx, burnTxHash, mode.MaxPollAttempts())
	if err != nil {
		metrics.RecordTransfer(string(mode), "failed")
		return nil, err
	}
	raw, err := att.MessageBytes()
	if err != nil {
		metrics.RecordTransfer(string(mode), "failed")
		return nil, stageError(StageAttestation, fmt.Errorf("decode echoed message: %w", err))
	}
	hash := cctp.Keccak256(raw)
	result.MessageHash = cctp.EncodeHex(hash[:])

	tx, err := o.runBuild(ctx, att)
	if err != nil {
		metrics.RecordTransfer(string(mode), "failed")
		return nil, err
	}
	result.TransactionSize = tx.Size
	result.CreatedATA = tx.CreatedATA

	sub, err := o.runSubmit(ctx, tx.Base64)
	if err != nil {
		metrics.RecordTransfer(string(mode), "failed")
		return nil, err
	}
	result.SubmissionID = sub.ID
	result.SubmissionState = sub.State
	result.CompletedAt = time.Now()

	metrics.RecordTransfer(string(mode), "success")
	log.Info("transfer resumed to completion",
		"burn_tx_hash", burnTxHash,
		"submission_id", result.SubmissionID)
	return result, nil
}

func (o *Orchestrator) runBurn(ctx context.Context, req burn.Request) (*burn.Receipt, error) {
	ctx, span := tracing.GetTracer("pipeline").Start(ctx, "stage.burn")
	defer span.End()

	start := time.Now()
	receipt, err := o.burner.Execute(ctx, req)
	observeStage(StageBurn, start, err)
	if err != nil {
		return nil, stageError(StageBurn, err)
	}
	return receipt, nil
}

func (o *Orchestrator) runPoll(ctx context.Context, txHash string, maxAttempts int) (*attestation.Attestation, error) {
	ctx, span := tracing.GetTracer("pipeline").Start(ctx, "stage.attestation")
	defer span.End()

	start := time.Now()
	att, err := o.poller.Poll(ctx, o.config.SourceDomain, txHash, maxAttempts)
	observeStage(StageAttestation, start, err)
	if err != nil {
		return nil, stageError(StageAttestation, err)
	}
	return att, nil
}

func (o *Orchestrator) runBuild(ctx context.Context, att *attestation.Attestation) (*receive.Transaction, error) {
	ctx, span := tracing.GetTracer("pipeline").Start(ctx, "stage.build")
	defer span.End()

	start := time.Now()
	tx, err := o.builder.Build(ctx, att)
	observeStage(StageBuild, start, err)
	if err != nil {
		return nil, stageError(StageBuild, err)
	}
	return tx, nil
}

func (o *Orchestrator) runSubmit(ctx context.Context, serialized string) (*fordefi.TransactionResponse, error) {
	ctx, span := tracing.GetTracer("pipeline").Start(ctx, "stage.submit")
	defer span.End()

	start := time.Now()
	sub, err := o.submitter.SubmitTransaction(ctx, serialized)
	observeStage(StageSubmit, start, err)
	if err != nil {
		return nil, stageError(StageSubmit, err)
	}
	return sub, nil
}

func observeStage(stage Stage, start time.Time, err error) {
	kind := ""
	if err != nil {
		kind = string(classify(stage, err))
	}
	metrics.RecordStage(string(stage), time.Since(start).Seconds(), err, kind)
}

// verifyEcho checks that the oracle attested the exact message the burn
// emitted. A mismatch means the oracle answered for a different event in
// the same transaction, and minting against it would pay the wrong
// recipient.
func verifyEcho(receipt *burn.Receipt, att *attestation.Attestation) error {
	raw, err := att.MessageBytes()
	if err != nil {
		return fmt.Errorf("decode echoed message: %w", err)
	}
	echoed := cctp.Keccak256(raw)
	if echoed != receipt.MessageHash {
		return fmt.Errorf("oracle echoed message hash %s, burn emitted %s",
			cctp.EncodeHex(echoed[:]), cctp.EncodeHex(receipt.MessageHash[:]))
	}
	return nil
}

// adviseFee compares the fast mode fee cap against the oracle's advertised
// minimum. The comparison is advisory: the burn proceeds either way, but an
// undershot cap means the attestation will only arrive at the standard
// finality tier.
func (o *Orchestrator) adviseFee(ctx context.Context, mode cctp.Mode, amount, maxFee *big.Int, log *logger.Logger) {
	if o.fees == nil || mode != cctp.ModeFast {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	entries, err := o.fees.GetFees(ctx, o.config.SourceDomain, o.config.DestinationDomain)
	if err != nil {
		log.Warn("fee schedule lookup failed, proceeding", "error", err.Error())
		return
	}

	threshold := mode.FinalityThreshold()
	for _, entry := range entries {
		if entry.FinalityThreshold != threshold {
			continue
		}
		required := new(big.Int).Div(
			new(big.Int).Mul(amount, new(big.Int).SetUint64(entry.MinimumFee)),
			big.NewInt(10000),
		)
		if maxFee.Cmp(required) < 0 {
			log.Warn("fee cap below advertised minimum",
				"max_fee", maxFee.String(),
				"required_fee", required.String(),
				"minimum_fee_bps", entry.MinimumFee)
		}
		return
	}
}
