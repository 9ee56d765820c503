package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/cctp-courier/internal/attestation"
	"github.com/custodia-labs/cctp-courier/internal/burn"
	"github.com/custodia-labs/cctp-courier/internal/cctp"
	"github.com/custodia-labs/cctp-courier/internal/fordefi"
	"github.com/custodia-labs/cctp-courier/internal/receive"
	"github.com/custodia-labs/cctp-courier/pkg/logger"
)

type fakeBurner struct {
	receipt *burn.Receipt
	err     error
	gotReq  burn.Request
	calls   int
}

func (f *fakeBurner) Execute(ctx context.Context, req burn.Request) (*burn.Receipt, error) {
	f.calls++
	f.gotReq = req
	if f.err != nil {
		return nil, f.err
	}
	return f.receipt, nil
}

type fakePoller struct {
	att       *attestation.Attestation
	err       error
	gotDomain uint32
	gotTxHash string
	gotMax    int
	calls     int
}

func (f *fakePoller) Poll(ctx context.Context, sourceDomain uint32, txHash string, maxAttempts int) (*attestation.Attestation, error) {
	f.calls++
	f.gotDomain = sourceDomain
	f.gotTxHash = txHash
	f.gotMax = maxAttempts
	if f.err != nil {
		return nil, f.err
	}
	return f.att, nil
}

type fakeBuilder struct {
	tx     *receive.Transaction
	err    error
	gotAtt *attestation.Attestation
	calls  int
}

func (f *fakeBuilder) Build(ctx context.Context, att *attestation.Attestation) (*receive.Transaction, error) {
	f.calls++
	f.gotAtt = att
	if f.err != nil {
		return nil, f.err
	}
	return f.tx, nil
}

type fakeSubmitter struct {
	resp    *fordefi.TransactionResponse
	err     error
	gotData string
	calls   int
}

func (f *fakeSubmitter) SubmitTransaction(ctx context.Context, serializedMessage string) (*fordefi.TransactionResponse, error) {
	f.calls++
	f.gotData = serializedMessage
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

type fakeFees struct {
	entries []attestation.FeeEntry
	err     error
	calls   int
}

func (f *fakeFees) GetFees(ctx context.Context, sourceDomain, destinationDomain uint32) ([]attestation.FeeEntry, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.entries, nil
}

// matchingPair returns a burn receipt and the oracle attestation echoing
// the same message, as a well-behaved oracle would.
func matchingPair(payload []byte) (*burn.Receipt, *attestation.Attestation) {
	receipt := &burn.Receipt{
		TxHash:      common.HexToHash("0xfeed"),
		Message:     payload,
		MessageHash: cctp.Keccak256(payload),
	}
	att := &attestation.Attestation{
		Message:     cctp.EncodeHex(payload),
		Attestation: "0x1234",
	}
	return receipt, att
}

type fixture struct {
	burner    *fakeBurner
	poller    *fakePoller
	builder   *fakeBuilder
	submitter *fakeSubmitter
	fees      *fakeFees
}

func newFixture(payload []byte) *fixture {
	receipt, att := matchingPair(payload)
	return &fixture{
		burner: &fakeBurner{receipt: receipt},
		poller: &fakePoller{att: att},
		builder: &fakeBuilder{tx: &receive.Transaction{
			Base64:     "c2VyaWFsaXplZA==",
			Size:       10,
			CreatedATA: true,
		}},
		submitter: &fakeSubmitter{resp: &fordefi.TransactionResponse{
			ID:    "sub-1",
			State: "waiting_for_signature",
		}},
		fees: &fakeFees{},
	}
}

func (f *fixture) orchestrator(cfg Config) *Orchestrator {
	return New(f.burner, f.poller, f.builder, f.submitter, f.fees, cfg, logger.NewNop())
}

func testTransferConfig() Config {
	cfg := Config{
		SourceDomain:      cctp.DomainEthereum,
		DestinationDomain: cctp.DomainSolana,
	}
	cfg.MintRecipient[31] = 0x42
	return cfg
}

func TestExecute(t *testing.T) {
	payload := []byte("cross-chain message")

	t.Run("runs all four stages in order", func(t *testing.T) {
		f := newFixture(payload)
		o := f.orchestrator(testTransferConfig())

		result, err := o.Execute(context.Background(), TransferRequest{
			Amount: decimal.RequireFromString("0.1"),
			Mode:   cctp.ModeFast,
		})
		require.NoError(t, err)

		assert.Equal(t, 1, f.burner.calls)
		assert.Equal(t, 1, f.poller.calls)
		assert.Equal(t, 1, f.builder.calls)
		assert.Equal(t, 1, f.submitter.calls)

		assert.Equal(t, "100000", result.AmountBaseUnits)
		assert.Equal(t, "0.1", result.Amount)
		assert.Equal(t, f.burner.receipt.TxHash.Hex(), result.BurnTxHash)
		assert.Equal(t, cctp.EncodeHex(f.burner.receipt.MessageHash[:]), result.MessageHash)
		assert.Equal(t, 10, result.TransactionSize)
		assert.True(t, result.CreatedATA)
		assert.Equal(t, "sub-1", result.SubmissionID)
		assert.Equal(t, "waiting_for_signature", result.SubmissionState)
		assert.False(t, result.CompletedAt.Before(result.StartedAt))
	})

	t.Run("fast mode shapes the burn request", func(t *testing.T) {
		f := newFixture(payload)
		o := f.orchestrator(testTransferConfig())

		_, err := o.Execute(context.Background(), TransferRequest{
			Amount: decimal.RequireFromString("0.1"),
			Mode:   cctp.ModeFast,
		})
		require.NoError(t, err)

		req := f.burner.gotReq
		assert.Equal(t, int64(100000), req.Amount.Int64())
		assert.Equal(t, int64(10), req.MaxFee.Int64(), "1 bps of the amount")
		assert.Equal(t, uint32(1000), req.MinFinalityThreshold)
		assert.Equal(t, byte(0x42), req.MintRecipient[31])
		assert.Equal(t, 60, f.poller.gotMax)
	})

	t.Run("standard mode shapes the burn request", func(t *testing.T) {
		f := newFixture(payload)
		o := f.orchestrator(testTransferConfig())

		_, err := o.Execute(context.Background(), TransferRequest{
			Amount: decimal.RequireFromString("0.1"),
			Mode:   cctp.ModeStandard,
		})
		require.NoError(t, err)

		req := f.burner.gotReq
		assert.Equal(t, int64(0), req.MaxFee.Int64())
		assert.Equal(t, uint32(2000), req.MinFinalityThreshold)
		assert.Equal(t, 240, f.poller.gotMax)
	})

	t.Run("empty mode defaults to standard", func(t *testing.T) {
		f := newFixture(payload)
		o := f.orchestrator(testTransferConfig())

		result, err := o.Execute(context.Background(), TransferRequest{
			Amount: decimal.RequireFromString("1"),
		})
		require.NoError(t, err)
		assert.Equal(t, cctp.ModeStandard, result.Mode)
	})

	t.Run("poller receives the burn hash and route domain", func(t *testing.T) {
		f := newFixture(payload)
		o := f.orchestrator(testTransferConfig())

		_, err := o.Execute(context.Background(), TransferRequest{
			Amount: decimal.RequireFromString("0.5"),
			Mode:   cctp.ModeStandard,
		})
		require.NoError(t, err)

		assert.Equal(t, f.burner.receipt.TxHash.Hex(), f.poller.gotTxHash)
		assert.Equal(t, cctp.DomainEthereum, f.poller.gotDomain)
	})

	t.Run("submitter receives the built transaction", func(t *testing.T) {
		f := newFixture(payload)
		o := f.orchestrator(testTransferConfig())

		_, err := o.Execute(context.Background(), TransferRequest{
			Amount: decimal.RequireFromString("0.5"),
			Mode:   cctp.ModeStandard,
		})
		require.NoError(t, err)
		assert.Equal(t, "c2VyaWFsaXplZA==", f.submitter.gotData)
	})

	t.Run("rejects invalid amounts before any stage", func(t *testing.T) {
		f := newFixture(payload)
		o := f.orchestrator(testTransferConfig())

		_, err := o.Execute(context.Background(), TransferRequest{
			Amount: decimal.RequireFromString("0.0000001"),
			Mode:   cctp.ModeFast,
		})
		require.Error(t, err)
		assert.Zero(t, f.burner.calls)
		assert.Zero(t, f.poller.calls)
	})
}

func TestExecuteEchoVerification(t *testing.T) {
	payload := []byte("the real message")
	f := newFixture(payload)

	// Oracle echoes a different message than the burn emitted.
	f.poller.att = &attestation.Attestation{
		Message:     cctp.EncodeHex([]byte("a different message")),
		Attestation: "0xabcd",
	}
	o := f.orchestrator(testTransferConfig())

	_, err := o.Execute(context.Background(), TransferRequest{
		Amount: decimal.RequireFromString("1"),
		Mode:   cctp.ModeStandard,
	})
	require.Error(t, err)

	var stageErr *Error
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, StageAttestation, stageErr.Stage)
	assert.Zero(t, f.builder.calls, "a mismatched message must never be built")
	assert.Zero(t, f.submitter.calls)
}

func TestExecuteStageFailures(t *testing.T) {
	payload := []byte("message")

	tests := []struct {
		name      string
		setup     func(f *fixture)
		wantStage Stage
		wantKind  Kind
	}{
		{
			name:      "insufficient balance",
			setup:     func(f *fixture) { f.burner.err = burn.ErrInsufficientBalance },
			wantStage: StageBurn,
			wantKind:  KindInsufficientBalance,
		},
		{
			name:      "approval failed",
			setup:     func(f *fixture) { f.burner.err = burn.ErrApprovalFailed },
			wantStage: StageBurn,
			wantKind:  KindApprovalFailed,
		},
		{
			name:      "missing burn event",
			setup:     func(f *fixture) { f.burner.err = burn.ErrMissingBurnEvent },
			wantStage: StageBurn,
			wantKind:  KindMissingBurnEvent,
		},
		{
			name:      "attestation timeout",
			setup:     func(f *fixture) { f.poller.err = attestation.ErrTimeout },
			wantStage: StageAttestation,
			wantKind:  KindAttestationTimeout,
		},
		{
			name:      "account resolution",
			setup:     func(f *fixture) { f.builder.err = receive.ErrAccountResolution },
			wantStage: StageBuild,
			wantKind:  KindAccountResolution,
		},
		{
			name:      "remote submission rejected",
			setup:     func(f *fixture) { f.submitter.err = &fordefi.APIError{StatusCode: 422, Body: "no"} },
			wantStage: StageSubmit,
			wantKind:  KindRemoteSubmission,
		},
		{
			name:      "unknown submit failure still maps to remote submission",
			setup:     func(f *fixture) { f.submitter.err = errors.New("connection reset") },
			wantStage: StageSubmit,
			wantKind:  KindRemoteSubmission,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(payload)
			tt.setup(f)
			o := f.orchestrator(testTransferConfig())

			_, err := o.Execute(context.Background(), TransferRequest{
				Amount: decimal.RequireFromString("1"),
				Mode:   cctp.ModeStandard,
			})
			require.Error(t, err)

			var stageErr *Error
			require.ErrorAs(t, err, &stageErr)
			assert.Equal(t, tt.wantStage, stageErr.Stage)
			assert.Equal(t, tt.wantKind, stageErr.Kind)
		})
	}
}

func TestExecuteStopsAtFirstFailure(t *testing.T) {
	f := newFixture([]byte("message"))
	f.poller.err = attestation.ErrTimeout
	o := f.orchestrator(testTransferConfig())

	_, err := o.Execute(context.Background(), TransferRequest{
		Amount: decimal.RequireFromString("1"),
		Mode:   cctp.ModeStandard,
	})
	require.Error(t, err)
	assert.Equal(t, 1, f.burner.calls)
	assert.Equal(t, 1, f.poller.calls)
	assert.Zero(t, f.builder.calls)
	assert.Zero(t, f.submitter.calls)
}

func TestExecuteFeeAdvisory(t *testing.T) {
	payload := []byte("message")

	t.Run("consulted in fast mode", func(t *testing.T) {
		f := newFixture(payload)
		f.fees.entries = []attestation.FeeEntry{{FinalityThreshold: 1000, MinimumFee: 5}}
		o := f.orchestrator(testTransferConfig())

		_, err := o.Execute(context.Background(), TransferRequest{
			Amount: decimal.RequireFromString("0.1"),
			Mode:   cctp.ModeFast,
		})
		require.NoError(t, err)
		assert.Equal(t, 1, f.fees.calls)
	})

	t.Run("skipped in standard mode", func(t *testing.T) {
		f := newFixture(payload)
		o := f.orchestrator(testTransferConfig())

		_, err := o.Execute(context.Background(), TransferRequest{
			Amount: decimal.RequireFromString("0.1"),
			Mode:   cctp.ModeStandard,
		})
		require.NoError(t, err)
		assert.Zero(t, f.fees.calls)
	})

	t.Run("lookup failure does not block the transfer", func(t *testing.T) {
		f := newFixture(payload)
		f.fees.err = errors.New("oracle down")
		o := f.orchestrator(testTransferConfig())

		_, err := o.Execute(context.Background(), TransferRequest{
			Amount: decimal.RequireFromString("0.1"),
			Mode:   cctp.ModeFast,
		})
		require.NoError(t, err)
	})

	t.Run("nil oracle disables the check", func(t *testing.T) {
		f := newFixture(payload)
		o := New(f.burner, f.poller, f.builder, f.submitter, nil, testTransferConfig(), logger.NewNop())

		_, err := o.Execute(context.Background(), TransferRequest{
			Amount: decimal.RequireFromString("0.1"),
			Mode:   cctp.ModeFast,
		})
		require.NoError(t, err)
	})
}

func TestResume(t *testing.T) {
	payload := []byte("recovered message")
	f := newFixture(payload)
	o := f.orchestrator(testTransferConfig())

	result, err := o.Resume(context.Background(), "0xdeadbeef", cctp.ModeFast)
	require.NoError(t, err)

	assert.Zero(t, f.burner.calls, "resume must never burn again")
	assert.Equal(t, 1, f.poller.calls)
	assert.Equal(t, "0xdeadbeef", f.poller.gotTxHash)
	assert.Equal(t, 60, f.poller.gotMax)

	hash := cctp.Keccak256(payload)
	assert.Equal(t, "0xdeadbeef", result.BurnTxHash)
	assert.Equal(t, cctp.EncodeHex(hash[:]), result.MessageHash)
	assert.Equal(t, "sub-1", result.SubmissionID)
}

func TestResumeTimeout(t *testing.T) {
	f := newFixture([]byte("message"))
	f.poller.err = attestation.ErrTimeout
	o := f.orchestrator(testTransferConfig())

	_, err := o.Resume(context.Background(), "0xdeadbeef", cctp.ModeStandard)
	require.ErrorIs(t, err, attestation.ErrTimeout)
	assert.Equal(t, 240, f.poller.gotMax)
}
