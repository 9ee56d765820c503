// Package burn submits the source-chain burn that starts a transfer and
// extracts the emitted cross-chain message from its receipt.
package burn

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// ChainSigner is the source-chain capability the initiator depends on:
// an address, contract reads, transaction submission, and receipt waits.
// internal/evm provides the go-ethereum implementation; tests use fakes.
type ChainSigner interface {
	// Address returns the signing account's address.
	Address() common.Address

	// CallContract executes a read-only contract call.
	CallContract(ctx context.Context, to common.Address, data []byte) ([]byte, error)

	// SendTransaction signs and submits a transaction to the given contract.
	SendTransaction(ctx context.Context, to common.Address, data []byte) (common.Hash, error)

	// WaitForReceipt blocks until the transaction is mined.
	WaitForReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// Params are the static contract coordinates for the source chain.
type Params struct {
	// TokenMessenger is the CCTP token messenger contract.
	TokenMessenger common.Address

	// Token is the burn asset's ERC-20 contract.
	Token common.Address

	// DestinationDomain is the CCTP domain the funds move to.
	DestinationDomain uint32

	// DestinationCaller restricts who may trigger the receive on the
	// destination chain. Zero means permissionless.
	DestinationCaller [32]byte
}

// Request is a single burn order in base units.
type Request struct {
	// Amount to burn, in the asset's smallest unit.
	Amount *big.Int

	// MintRecipient is the destination token account, left-padded to 32
	// bytes.
	MintRecipient [32]byte

	// MaxFee is the fee cap for the transfer, in base units.
	MaxFee *big.Int

	// MinFinalityThreshold selects fast or standard settlement.
	MinFinalityThreshold uint32
}

// Receipt is the result of a confirmed burn.
type Receipt struct {
	TxHash      common.Hash
	Message     []byte
	MessageHash [32]byte
}
