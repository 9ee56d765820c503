package burn

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/custodia-labs/cctp-courier/internal/cctp"
	"github.com/custodia-labs/cctp-courier/pkg/logger"
)

// Initiator checks preconditions, submits the burn, and extracts the
// emitted cross-chain message.
type Initiator struct {
	signer ChainSigner
	params Params
	logger *logger.Logger
}

func NewInitiator(signer ChainSigner, params Params, log *logger.Logger) *Initiator {
	return &Initiator{
		signer: signer,
		params: params,
		logger: log,
	}
}

// Execute runs the burn for a single request. Balance and allowance are
// checked first; an approval is submitted and confirmed when the allowance
// is short. Read failures are fatal, not retried.
func (i *Initiator) Execute(ctx context.Context, req Request) (*Receipt, error) {
	owner := i.signer.Address()

	balance, err := i.readUint256(ctx, i.params.Token, "balanceOf", packBalanceOf(owner))
	if err != nil {
		return nil, fmt.Errorf("read balance: %w", err)
	}
	if balance.Cmp(req.Amount) < 0 {
		return nil, fmt.Errorf("balance %s below requested amount %s: %w",
			balance, req.Amount, ErrInsufficientBalance)
	}

	if err := i.ensureAllowance(ctx, owner, req); err != nil {
		return nil, err
	}

	i.logger.Info("submitting burn",
		"amount", req.Amount.String(),
		"destination_domain", cctp.DomainName(i.params.DestinationDomain),
		"min_finality_threshold", req.MinFinalityThreshold,
		"max_fee", req.MaxFee.String())

	txHash, err := i.signer.SendTransaction(ctx, i.params.TokenMessenger, packDepositForBurn(req, i.params))
	if err != nil {
		return nil, fmt.Errorf("submit burn: %w", err)
	}

	receipt, err := i.signer.WaitForReceipt(ctx, txHash)
	if err != nil {
		return nil, fmt.Errorf("wait for burn receipt %s: %w", txHash.Hex(), err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return nil, fmt.Errorf("burn transaction %s reverted", txHash.Hex())
	}

	message, err := extractMessage(receipt)
	if err != nil {
		return nil, fmt.Errorf("burn %s: %w", txHash.Hex(), err)
	}

	hash := cctp.Keccak256(message)
	i.logger.Info("burn confirmed",
		"tx_hash", txHash.Hex(),
		"message_bytes", len(message),
		"message_hash", cctp.EncodeHex(hash[:]))

	return &Receipt{
		TxHash:      txHash,
		Message:     message,
		MessageHash: hash,
	}, nil
}

// ensureAllowance approves the token messenger for the requested amount
// when the current allowance is short, blocking until the approval confirms.
func (i *Initiator) ensureAllowance(ctx context.Context, owner common.Address, req Request) error {
	allowance, err := i.readUint256(ctx, i.params.Token, "allowance", packAllowance(owner, i.params.TokenMessenger))
	if err != nil {
		return fmt.Errorf("read allowance: %w", err)
	}
	if allowance.Cmp(req.Amount) >= 0 {
		return nil
	}

	i.logger.Info("allowance below amount, approving",
		"allowance", allowance.String(), "amount", req.Amount.String())

	txHash, err := i.signer.SendTransaction(ctx, i.params.Token, packApprove(i.params.TokenMessenger, req.Amount))
	if err != nil {
		return fmt.Errorf("%w: submit approval: %v", ErrApprovalFailed, err)
	}

	receipt, err := i.signer.WaitForReceipt(ctx, txHash)
	if err != nil {
		return fmt.Errorf("%w: wait for approval %s: %v", ErrApprovalFailed, txHash.Hex(), err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return fmt.Errorf("approval transaction %s reverted: %w", txHash.Hex(), ErrApprovalFailed)
	}

	i.logger.Info("approval confirmed", "tx_hash", txHash.Hex())
	return nil
}

// CheckFunds verifies balance and allowance cover amount without sending
// any transaction. A short allowance is reported, not fixed, so callers can
// probe before committing to a transfer.
func (i *Initiator) CheckFunds(ctx context.Context, amount *big.Int) error {
	owner := i.signer.Address()

	balance, err := i.readUint256(ctx, i.params.Token, "balanceOf", packBalanceOf(owner))
	if err != nil {
		return fmt.Errorf("read balance: %w", err)
	}
	if balance.Cmp(amount) < 0 {
		return fmt.Errorf("balance %s below requested amount %s: %w",
			balance, amount, ErrInsufficientBalance)
	}

	allowance, err := i.readUint256(ctx, i.params.Token, "allowance", packAllowance(owner, i.params.TokenMessenger))
	if err != nil {
		return fmt.Errorf("read allowance: %w", err)
	}
	if allowance.Cmp(amount) < 0 {
		return fmt.Errorf("allowance %s below requested amount %s: %w",
			allowance, amount, ErrInsufficientAllowance)
	}
	return nil
}

func (i *Initiator) readUint256(ctx context.Context, to common.Address, method string, data []byte) (*big.Int, error) {
	out, err := i.signer.CallContract(ctx, to, data)
	if err != nil {
		return nil, err
	}
	return unpackUint256(method, out)
}

// extractMessage locates the MessageSent event among the receipt's logs and
// decodes its payload.
func extractMessage(receipt *types.Receipt) ([]byte, error) {
	topic := common.Hash(cctp.MessageSentTopic)
	for _, log := range receipt.Logs {
		if len(log.Topics) == 0 || log.Topics[0] != topic {
			continue
		}
		message, err := cctp.DecodeMessageSentData(log.Data)
		if err != nil {
			return nil, fmt.Errorf("decode MessageSent data: %w", err)
		}
		return message, nil
	}
	return nil, ErrMissingBurnEvent
}
