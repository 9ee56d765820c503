package pipeline

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// usdcDecimals is fixed by the token contract on every supported chain.
const usdcDecimals = 6

// ToBaseUnits converts a human USDC amount to base units. Amounts that do
// not land exactly on a base unit are rejected rather than rounded; a
// transfer must burn precisely what the operator asked for.
func ToBaseUnits(amount decimal.Decimal) (*big.Int, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("amount must be positive, got %s", amount)
	}
	shifted := amount.Shift(usdcDecimals)
	if !shifted.IsInteger() {
		return nil, fmt.Errorf("amount %s has more than %d decimal places", amount, usdcDecimals)
	}
	return shifted.BigInt(), nil
}

// FromBaseUnits converts base units back to a human USDC amount.
func FromBaseUnits(units *big.Int) decimal.Decimal {
	return decimal.NewFromBigInt(units, -usdcDecimals)
}
