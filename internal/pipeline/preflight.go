package pipeline

import (
	"context"
	"math/big"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"

	"github.com/custodia-labs/cctp-courier/internal/attestation"
	"github.com/custodia-labs/cctp-courier/pkg/logger"
)

// FundsChecker probes balance and allowance without transacting.
type FundsChecker interface {
	CheckFunds(ctx context.Context, amount *big.Int) error
}

// OracleChecker is the oracle surface preflight exercises: the fee schedule
// for the route, plus the signing-keys endpoint as a reachability probe.
type OracleChecker interface {
	FeeOracle
	GetPublicKeys(ctx context.Context) (*attestation.PublicKeysResponse, error)
}

// DestinationChecker probes the destination node and its account state.
type DestinationChecker interface {
	Health(ctx context.Context) error
	AccountExists(ctx context.Context, address solana.PublicKey) (bool, error)
}

// Preflight validates a planned transfer end to end without moving funds:
// source chain funds, oracle reachability and the fee schedule for the
// route, destination node health, and the recipient token account.
type Preflight struct {
	funds        FundsChecker
	oracle       OracleChecker
	solana       DestinationChecker
	recipientATA solana.PublicKey
	config       Config
	logger       *logger.Logger
}

// NewPreflight creates a preflight checker over the same dependencies the
// transfer itself will use.
func NewPreflight(funds FundsChecker, oracle OracleChecker, solana DestinationChecker, recipientATA solana.PublicKey, config Config, log *logger.Logger) *Preflight {
	return &Preflight{
		funds:        funds,
		oracle:       oracle,
		solana:       solana,
		recipientATA: recipientATA,
		config:       config,
		logger:       log,
	}
}

// Report lists everything preflight verified and every problem it found.
// An empty Issues slice means the transfer can proceed. A missing recipient
// token account is informational, not an issue: the receive transaction
// creates it on the fly.
type Report struct {
	AmountBaseUnits    string                 `json:"amount_base_units"`
	FundsOK            bool                   `json:"funds_ok"`
	OracleKeys         int                    `json:"oracle_keys"`
	FeeSchedule        []attestation.FeeEntry `json:"fee_schedule,omitempty"`
	SolanaHealthy      bool                   `json:"solana_healthy"`
	RecipientATA       string                 `json:"recipient_token_account"`
	RecipientATAExists bool                   `json:"recipient_token_account_exists"`
	Issues             []string               `json:"issues,omitempty"`
}

// OK reports whether every check passed.
func (r *Report) OK() bool {
	return len(r.Issues) == 0
}

// Run executes all checks. Individual check failures are collected into
// the report instead of aborting, so one run surfaces every problem.
func (p *Preflight) Run(ctx context.Context, amount decimal.Decimal) (*Report, error) {
	baseUnits, err := ToBaseUnits(amount)
	if err != nil {
		return nil, err
	}

	report := &Report{
		AmountBaseUnits: baseUnits.String(),
		RecipientATA:    p.recipientATA.String(),
	}

	if err := p.funds.CheckFunds(ctx, baseUnits); err != nil {
		report.Issues = append(report.Issues, err.Error())
	} else {
		report.FundsOK = true
	}

	keys, err := p.oracle.GetPublicKeys(ctx)
	switch {
	case err != nil:
		report.Issues = append(report.Issues, "oracle unreachable: "+err.Error())
	case len(keys.Keys) == 0:
		report.Issues = append(report.Issues, "oracle reachable but returned no signing keys")
	default:
		report.OracleKeys = len(keys.Keys)
	}

	entries, err := p.oracle.GetFees(ctx, p.config.SourceDomain, p.config.DestinationDomain)
	if err != nil {
		report.Issues = append(report.Issues, "fee schedule lookup failed: "+err.Error())
	} else {
		report.FeeSchedule = entries
	}

	if err := p.solana.Health(ctx); err != nil {
		report.Issues = append(report.Issues, "destination node unhealthy: "+err.Error())
	} else {
		report.SolanaHealthy = true
	}

	exists, err := p.solana.AccountExists(ctx, p.recipientATA)
	if err != nil {
		report.Issues = append(report.Issues, "recipient token account lookup failed: "+err.Error())
	} else {
		report.RecipientATAExists = exists
	}

	for _, issue := range report.Issues {
		p.logger.Warn("preflight check failed", "issue", issue)
	}
	if report.OK() {
		p.logger.Info("preflight passed",
			"amount_base_units", report.AmountBaseUnits,
			"oracle_keys", report.OracleKeys,
			"fee_entries", len(report.FeeSchedule),
			"recipient_token_account_exists", report.RecipientATAExists)
	}
	return report, nil
}
