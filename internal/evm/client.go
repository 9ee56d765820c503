// Package evm implements the source-chain signer capability on go-ethereum.
package evm

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/custodia-labs/cctp-courier/internal/burn"
	"github.com/custodia-labs/cctp-courier/pkg/logger"
)

const (
	defaultGasLimit        = 300000
	defaultReceiptInterval = time.Second
	defaultReceiptTimeout  = 3 * time.Minute
)

// Config holds the source-chain connection and signing settings.
type Config struct {
	RPCURL     string
	PrivateKey string // hex, with or without 0x prefix

	GasLimit        uint64
	ReceiptInterval time.Duration
	ReceiptTimeout  time.Duration
}

func (c Config) withDefaults() Config {
	if c.GasLimit == 0 {
		c.GasLimit = defaultGasLimit
	}
	if c.ReceiptInterval <= 0 {
		c.ReceiptInterval = defaultReceiptInterval
	}
	if c.ReceiptTimeout <= 0 {
		c.ReceiptTimeout = defaultReceiptTimeout
	}
	return c
}

// Client signs and submits transactions with a local key over an RPC
// connection.
type Client struct {
	config  Config
	eth     *ethclient.Client
	key     *ecdsa.PrivateKey
	address common.Address
	chainID *big.Int
	logger  *logger.Logger
}

var _ burn.ChainSigner = (*Client)(nil)

// NewClient dials the RPC endpoint and prepares the signing key. The chain
// id is read from the node so transactions are replay-protected without
// extra configuration.
func NewClient(ctx context.Context, cfg Config, log *logger.Logger) (*Client, error) {
	cfg = cfg.withDefaults()

	key, address, err := parsePrivateKey(cfg.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}

	eth, err := ethclient.DialContext(ctx, cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", cfg.RPCURL, err)
	}

	chainID, err := eth.ChainID(ctx)
	if err != nil {
		eth.Close()
		return nil, fmt.Errorf("read chain id: %w", err)
	}

	log.Info("source chain connected",
		"chain_id", chainID.String(), "signer", address.Hex())

	return &Client{
		config:  cfg,
		eth:     eth,
		key:     key,
		address: address,
		chainID: chainID,
		logger:  log,
	}, nil
}

func parsePrivateKey(keyHex string) (*ecdsa.PrivateKey, common.Address, error) {
	keyHex = strings.TrimPrefix(keyHex, "0x")
	key, err := crypto.HexToECDSA(keyHex)
	if err != nil {
		return nil, common.Address{}, err
	}
	return key, crypto.PubkeyToAddress(key.PublicKey), nil
}

func (c *Client) Address() common.Address { return c.address }

// ChainID returns the connected chain's id.
func (c *Client) ChainID() *big.Int { return c.chainID }

func (c *Client) Close() { c.eth.Close() }

func (c *Client) CallContract(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	return c.eth.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
}

// SendTransaction builds, signs, and broadcasts a legacy transaction
// carrying the given calldata.
func (c *Client) SendTransaction(ctx context.Context, to common.Address, data []byte) (common.Hash, error) {
	nonce, err := c.eth.PendingNonceAt(ctx, c.address)
	if err != nil {
		return common.Hash{}, fmt.Errorf("pending nonce: %w", err)
	}

	gasPrice, err := c.eth.SuggestGasPrice(ctx)
	if err != nil {
		return common.Hash{}, fmt.Errorf("suggest gas price: %w", err)
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &to,
		Value:    big.NewInt(0),
		Gas:      c.config.GasLimit,
		GasPrice: gasPrice,
		Data:     data,
	})

	auth, err := bind.NewKeyedTransactorWithChainID(c.key, c.chainID)
	if err != nil {
		return common.Hash{}, fmt.Errorf("build transactor: %w", err)
	}
	signedTx, err := auth.Signer(c.address, tx)
	if err != nil {
		return common.Hash{}, fmt.Errorf("sign transaction: %w", err)
	}

	if err := c.eth.SendTransaction(ctx, signedTx); err != nil {
		return common.Hash{}, fmt.Errorf("broadcast transaction: %w", err)
	}

	c.logger.Debug("transaction broadcast",
		"tx_hash", signedTx.Hash().Hex(), "to", to.Hex(), "nonce", nonce)
	return signedTx.Hash(), nil
}

// WaitForReceipt polls until the transaction is mined or the configured
// timeout elapses.
func (c *Client) WaitForReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	deadline := time.Now().Add(c.config.ReceiptTimeout)

	for {
		receipt, err := c.eth.TransactionReceipt(ctx, txHash)
		if err == nil {
			return receipt, nil
		}
		if !errors.Is(err, ethereum.NotFound) {
			c.logger.Debug("receipt lookup failed", "tx_hash", txHash.Hex(), "error", err)
		}

		if time.Now().After(deadline) {
			return nil, fmt.Errorf("timeout waiting for receipt %s", txHash.Hex())
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.config.ReceiptInterval):
		}
	}
}
