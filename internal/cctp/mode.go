package cctp

import (
	"fmt"
	"math/big"
)

// Mode selects the settlement speed of a transfer. Fast settles at a lower
// finality threshold for a capped proportional fee; standard waits for full
// finality and pays nothing.
type Mode string

const (
	ModeFast     Mode = "fast"
	ModeStandard Mode = "standard"
)

const (
	fastFinalityThreshold     uint32 = 1000
	standardFinalityThreshold uint32 = 2000

	// Fast transfers pay at most 1 basis point of the burned amount.
	fastMaxFeeBps int64 = 1

	fastMaxPollAttempts     = 60
	standardMaxPollAttempts = 240
)

// ParseMode validates a mode string from configuration.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeFast, ModeStandard:
		return Mode(s), nil
	case "":
		return ModeStandard, nil
	default:
		return "", fmt.Errorf("unknown transfer mode %q (want fast or standard)", s)
	}
}

// FinalityThreshold returns the minFinalityThreshold parameter for the burn.
func (m Mode) FinalityThreshold() uint32 {
	if m == ModeFast {
		return fastFinalityThreshold
	}
	return standardFinalityThreshold
}

// MaxFee returns the maxFee parameter for the burn, in base units.
func (m Mode) MaxFee(amount *big.Int) *big.Int {
	if m != ModeFast {
		return new(big.Int)
	}
	fee := new(big.Int).Mul(amount, big.NewInt(fastMaxFeeBps))
	return fee.Div(fee, big.NewInt(10000))
}

// MaxPollAttempts returns the attestation poll budget for the mode.
// At a 5s interval this is ~5 minutes for fast and ~20 minutes for standard.
func (m Mode) MaxPollAttempts() int {
	if m == ModeFast {
		return fastMaxPollAttempts
	}
	return standardMaxPollAttempts
}
