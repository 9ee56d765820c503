package burn

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

const erc20ABIJSON = `[
	{"inputs":[{"name":"account","type":"address"}],"name":"balanceOf","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
	{"inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],"name":"allowance","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
	{"inputs":[{"name":"spender","type":"address"},{"name":"amount","type":"uint256"}],"name":"approve","outputs":[{"name":"","type":"bool"}],"stateMutability":"nonpayable","type":"function"}
]`

const tokenMessengerABIJSON = `[
	{"inputs":[
		{"name":"amount","type":"uint256"},
		{"name":"destinationDomain","type":"uint32"},
		{"name":"mintRecipient","type":"bytes32"},
		{"name":"burnToken","type":"address"},
		{"name":"destinationCaller","type":"bytes32"},
		{"name":"maxFee","type":"uint256"},
		{"name":"minFinalityThreshold","type":"uint32"}
	],"name":"depositForBurn","outputs":[],"stateMutability":"nonpayable","type":"function"}
]`

var (
	erc20ABI          = mustParseABI(erc20ABIJSON)
	tokenMessengerABI = mustParseABI(tokenMessengerABIJSON)
)

func mustParseABI(s string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(s))
	if err != nil {
		panic(err)
	}
	return parsed
}

func packBalanceOf(account common.Address) []byte {
	data, _ := erc20ABI.Pack("balanceOf", account)
	return data
}

func packAllowance(owner, spender common.Address) []byte {
	data, _ := erc20ABI.Pack("allowance", owner, spender)
	return data
}

func packApprove(spender common.Address, amount *big.Int) []byte {
	data, _ := erc20ABI.Pack("approve", spender, amount)
	return data
}

func packDepositForBurn(req Request, p Params) []byte {
	data, _ := tokenMessengerABI.Pack("depositForBurn",
		req.Amount,
		p.DestinationDomain,
		req.MintRecipient,
		p.Token,
		p.DestinationCaller,
		req.MaxFee,
		req.MinFinalityThreshold,
	)
	return data
}

func unpackUint256(method string, out []byte) (*big.Int, error) {
	values, err := erc20ABI.Unpack(method, out)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	if len(values) != 1 {
		return nil, fmt.Errorf("unpack %s: unexpected output arity %d", method, len(values))
	}
	value, ok := values[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unpack %s: unexpected output type %T", method, values[0])
	}
	return value, nil
}
