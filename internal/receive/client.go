package receive

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	addresslookuptable "github.com/gagliardetto/solana-go/programs/address-lookup-table"
	"github.com/gagliardetto/solana-go/rpc"
)

// RPCClient implements SolanaClient over a JSON-RPC endpoint.
type RPCClient struct {
	rpc *rpc.Client
}

var _ SolanaClient = (*RPCClient)(nil)

func NewRPCClient(endpoint string) *RPCClient {
	return &RPCClient{rpc: rpc.New(endpoint)}
}

func (c *RPCClient) LatestBlockhash(ctx context.Context) (solana.Hash, error) {
	out, err := c.rpc.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		return solana.Hash{}, fmt.Errorf("get latest blockhash: %w", err)
	}
	return out.Value.Blockhash, nil
}

func (c *RPCClient) AccountExists(ctx context.Context, address solana.PublicKey) (bool, error) {
	_, err := c.rpc.GetAccountInfo(ctx, address)
	if err != nil {
		if errors.Is(err, rpc.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("get account info %s: %w", address, err)
	}
	return true, nil
}

func (c *RPCClient) LookupTableAddresses(ctx context.Context, table solana.PublicKey) (solana.PublicKeySlice, error) {
	info, err := c.rpc.GetAccountInfo(ctx, table)
	if err != nil {
		return nil, fmt.Errorf("get lookup table %s: %w", table, err)
	}

	state, err := addresslookuptable.DecodeAddressLookupTableState(info.GetBinary())
	if err != nil {
		return nil, fmt.Errorf("decode lookup table %s: %w", table, err)
	}
	return state.Addresses, nil
}

// Health checks the RPC endpoint is reachable.
func (c *RPCClient) Health(ctx context.Context) error {
	out, err := c.rpc.GetHealth(ctx)
	if err != nil {
		return fmt.Errorf("rpc health: %w", err)
	}
	if out != rpc.HealthOk {
		return fmt.Errorf("rpc unhealthy: %s", out)
	}
	return nil
}
