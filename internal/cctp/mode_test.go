package cctp

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMode(t *testing.T) {
	tests := []struct {
		input   string
		want    Mode
		wantErr bool
	}{
		{input: "fast", want: ModeFast},
		{input: "standard", want: ModeStandard},
		{input: "", want: ModeStandard},
		{input: "turbo", wantErr: true},
	}

	for _, tt := range tests {
		t.Run("input "+tt.input, func(t *testing.T) {
			got, err := ParseMode(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestModeParameters(t *testing.T) {
	tests := []struct {
		name          string
		mode          Mode
		amount        int64
		wantThreshold uint32
		wantMaxFee    int64
		wantAttempts  int
	}{
		{
			name:          "fast takes one basis point",
			mode:          ModeFast,
			amount:        100000,
			wantThreshold: 1000,
			wantMaxFee:    10,
			wantAttempts:  60,
		},
		{
			name:          "fast rounds fee down",
			mode:          ModeFast,
			amount:        9999,
			wantThreshold: 1000,
			wantMaxFee:    0,
			wantAttempts:  60,
		},
		{
			name:          "fast large amount",
			mode:          ModeFast,
			amount:        123456789,
			wantThreshold: 1000,
			wantMaxFee:    12345,
			wantAttempts:  60,
		},
		{
			name:          "standard is free",
			mode:          ModeStandard,
			amount:        100000,
			wantThreshold: 2000,
			wantMaxFee:    0,
			wantAttempts:  240,
		},
		{
			name:          "standard large amount still free",
			mode:          ModeStandard,
			amount:        900000000000,
			wantThreshold: 2000,
			wantMaxFee:    0,
			wantAttempts:  240,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantThreshold, tt.mode.FinalityThreshold())
			assert.Equal(t, tt.wantMaxFee, tt.mode.MaxFee(big.NewInt(tt.amount)).Int64())
			assert.Equal(t, tt.wantAttempts, tt.mode.MaxPollAttempts())
		})
	}
}

func TestModeMaxFeeDoesNotMutateAmount(t *testing.T) {
	amount := big.NewInt(100000)
	_ = ModeFast.MaxFee(amount)
	assert.Equal(t, int64(100000), amount.Int64())
}

func TestDomainName(t *testing.T) {
	assert.Equal(t, "ethereum", DomainName(DomainEthereum))
	assert.Equal(t, "solana", DomainName(DomainSolana))
	assert.Equal(t, "unknown", DomainName(99))
}
