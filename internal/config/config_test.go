package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("ETH_RPC_URL", "https://eth.example.org")
	t.Setenv("SOLANA_RPC_URL", "https://sol.example.org")
	t.Setenv("SOLANA_RECIPIENT", "4Nd1mYvM2kWtDin6MTpbGUkfSFbYMGpKhQq4kXjEF7sY")
	t.Setenv("SOLANA_FEE_PAYER", "7S9iqvQjJz6ipERBPzk9ZEGLyYdrCMPtrWvvTXW2HMEV")
	t.Setenv("SOLANA_FEE_RECIPIENT", "HW6ipwSSTG1uTERPjEs4Gy96v2SCAAVMIRrsBk2CGmPA")
	t.Setenv("FORDEFI_VAULT_ID", "vault")
}

func TestLoad(t *testing.T) {
	viper.Reset()
	setRequiredEnv(t)
	t.Setenv("TRANSFER_AMOUNT", "0.25")
	t.Setenv("SECRETS_DIR", "/run/secrets")

	cfg, err := Load("")
	require.NoError(t, err)

	t.Run("environment overrides land in place", func(t *testing.T) {
		assert.Equal(t, "https://eth.example.org", cfg.Ethereum.RPC)
		assert.Equal(t, "https://sol.example.org", cfg.Solana.RPC)
		assert.Equal(t, "vault", cfg.Fordefi.VaultID)
		assert.Equal(t, "0.25", cfg.Transfer.Amount)
		assert.Equal(t, "/run/secrets", cfg.SecretsDir)
	})

	t.Run("mainnet deployment defaults", func(t *testing.T) {
		assert.Equal(t, "0x28b5a0e9C621a5BadaA536219b3a228C8168cf5d", cfg.Ethereum.TokenMessenger)
		assert.Equal(t, "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48", cfg.Ethereum.USDC)
		assert.Equal(t, uint32(0), cfg.Ethereum.SourceDomain)
		assert.Equal(t, "CCTPV2Sm4AdWt5296sk4P66VBZ7bEhcARwFaaS9YPbeC", cfg.Solana.MessageTransmitterProgram)
		assert.Equal(t, "CCTPV2vPZJS2u2BBsUoscuikbYjnpFmbFsvVuJdgUMQe", cfg.Solana.TokenMessengerMinterProgram)
		assert.Equal(t, "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v", cfg.Solana.USDCMint)
		assert.Equal(t, uint32(5), cfg.Solana.DestinationDomain)
	})

	t.Run("ambient defaults", func(t *testing.T) {
		assert.Equal(t, "development", cfg.Environment)
		assert.Equal(t, "info", cfg.LogLevel)
		assert.Equal(t, 8080, cfg.Server.Port)
		assert.Equal(t, "standard", cfg.Transfer.Mode)
		assert.Equal(t, 5, cfg.Transfer.PollInterval)
		assert.Equal(t, "mainnet", cfg.Iris.Environment)
		assert.Equal(t, "https://api.fordefi.com", cfg.Fordefi.BaseURL)
		assert.False(t, cfg.Tracing.Enabled)
	})
}

func TestLoadExplicitConfigFile(t *testing.T) {
	viper.Reset()
	setRequiredEnv(t)

	path := filepath.Join(t.TempDir(), "courier.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log_level: debug\nserver:\n  port: 9090\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 9090, cfg.Server.Port)

	t.Run("missing explicit file is an error", func(t *testing.T) {
		viper.Reset()
		setRequiredEnv(t)

		_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
		require.Error(t, err)
	})
}

func TestLoadMissingRequired(t *testing.T) {
	tests := []struct {
		unset string
	}{
		{"ETH_RPC_URL"},
		{"SOLANA_RPC_URL"},
		{"SOLANA_RECIPIENT"},
		{"SOLANA_FEE_PAYER"},
		{"SOLANA_FEE_RECIPIENT"},
		{"FORDEFI_VAULT_ID"},
	}

	for _, tt := range tests {
		t.Run(tt.unset, func(t *testing.T) {
			viper.Reset()
			setRequiredEnv(t)
			t.Setenv(tt.unset, "")

			_, err := Load("")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.unset, "the error must name the missing variable")
		})
	}
}

func TestLoadRejectsUnknownMode(t *testing.T) {
	viper.Reset()
	setRequiredEnv(t)
	t.Setenv("TRANSFER_MODE", "instant")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TRANSFER_MODE")
}
