package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the courier. Key material is not
// part of it: signing keys and tokens resolve through pkg/secrets so they
// never land in viper dumps.
type Config struct {
	Environment string         `mapstructure:"environment"`
	LogLevel    string         `mapstructure:"log_level"`
	SecretsDir  string         `mapstructure:"secrets_dir"` // mounted-secrets fallback for pkg/secrets
	Server      ServerConfig   `mapstructure:"server"`
	Transfer    TransferConfig `mapstructure:"transfer"`
	Ethereum    EthereumConfig `mapstructure:"ethereum"`
	Solana      SolanaConfig   `mapstructure:"solana"`
	Iris        IrisConfig     `mapstructure:"iris"`
	Fordefi     FordefiConfig  `mapstructure:"fordefi"`
	Tracing     TracingConfig  `mapstructure:"tracing"`
}

// ServerConfig configures the HTTP API in serve mode.
type ServerConfig struct {
	Port            int    `mapstructure:"port"`
	Host            string `mapstructure:"host"`
	ReadTimeout     int    `mapstructure:"read_timeout"`
	WriteTimeout    int    `mapstructure:"write_timeout"`
	RateLimitPerMin int    `mapstructure:"rate_limit_per_min"`
}

// TransferConfig carries the default transfer behavior.
type TransferConfig struct {
	Amount       string `mapstructure:"amount"`        // human units, e.g. "0.1"
	Mode         string `mapstructure:"mode"`          // "fast" or "standard"
	PollInterval int    `mapstructure:"poll_interval"` // seconds between attestation polls
}

// EthereumConfig configures the source chain leg.
type EthereumConfig struct {
	RPC            string `mapstructure:"rpc"`
	TokenMessenger string `mapstructure:"token_messenger"`
	USDC           string `mapstructure:"usdc"`
	SourceDomain   uint32 `mapstructure:"source_domain"`
	GasLimit       uint64 `mapstructure:"gas_limit"`
	ReceiptTimeout int    `mapstructure:"receipt_timeout"` // seconds
}

// SolanaConfig configures the destination chain leg.
type SolanaConfig struct {
	RPC                         string `mapstructure:"rpc"`
	MessageTransmitterProgram   string `mapstructure:"message_transmitter_program"`
	TokenMessengerMinterProgram string `mapstructure:"token_messenger_minter_program"`
	USDCMint                    string `mapstructure:"usdc_mint"`
	Recipient                   string `mapstructure:"recipient"`
	FeePayer                    string `mapstructure:"fee_payer"`
	FeeRecipient                string `mapstructure:"fee_recipient"`
	LookupTable                 string `mapstructure:"lookup_table"`
	DestinationDomain           uint32 `mapstructure:"destination_domain"`
}

// IrisConfig configures the attestation oracle client.
type IrisConfig struct {
	BaseURL     string `mapstructure:"base_url"`
	Environment string `mapstructure:"environment"` // "sandbox" or "mainnet"
	Timeout     int    `mapstructure:"timeout"`     // seconds
}

// FordefiConfig configures the remote signing service. The API token and
// the P-256 request-signing key come from pkg/secrets, not from here.
type FordefiConfig struct {
	BaseURL string `mapstructure:"base_url"`
	VaultID string `mapstructure:"vault_id"`
	Chain   string `mapstructure:"chain"`
}

// TracingConfig configures the OpenTelemetry exporter.
type TracingConfig struct {
	Enabled      bool    `mapstructure:"enabled"`
	CollectorURL string  `mapstructure:"collector_url"`
	SampleRate   float64 `mapstructure:"sample_rate"`
	Insecure     bool    `mapstructure:"insecure"`
}

// Load loads configuration from environment variables and config files.
// A non-empty configFile pins the config source to that path; otherwise
// the usual search path applies.
func Load(configFile string) (*Config, error) {
	// Load .env file if it exists (ignore errors if file doesn't exist)
	godotenv.Load()

	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath("./configs")
		viper.AddConfigPath(".")
	}

	setDefaults()

	// Read from config file if it exists
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	// Override with environment variables
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Override specific environment variables
	overrideFromEnv()

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("environment", "development")
	viper.SetDefault("log_level", "info")

	// Server defaults
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.read_timeout", 30)
	viper.SetDefault("server.write_timeout", 30)
	viper.SetDefault("server.rate_limit_per_min", 120)

	// Transfer defaults
	viper.SetDefault("transfer.mode", "standard")
	viper.SetDefault("transfer.poll_interval", 5)

	// Ethereum defaults: CCTP v2 mainnet deployment
	viper.SetDefault("ethereum.token_messenger", "0x28b5a0e9C621a5BadaA536219b3a228C8168cf5d")
	viper.SetDefault("ethereum.usdc", "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")
	viper.SetDefault("ethereum.source_domain", 0)
	viper.SetDefault("ethereum.gas_limit", 300000)
	viper.SetDefault("ethereum.receipt_timeout", 180)

	// Solana defaults: CCTP v2 mainnet deployment
	viper.SetDefault("solana.message_transmitter_program", "CCTPV2Sm4AdWt5296sk4P66VBZ7bEhcARwFaaS9YPbeC")
	viper.SetDefault("solana.token_messenger_minter_program", "CCTPV2vPZJS2u2BBsUoscuikbYjnpFmbFsvVuJdgUMQe")
	viper.SetDefault("solana.usdc_mint", "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v")
	viper.SetDefault("solana.destination_domain", 5)

	// Iris defaults
	viper.SetDefault("iris.environment", "mainnet")
	viper.SetDefault("iris.timeout", 30)

	// Fordefi defaults
	viper.SetDefault("fordefi.base_url", "https://api.fordefi.com")
	viper.SetDefault("fordefi.chain", "solana_mainnet")

	// Tracing defaults
	viper.SetDefault("tracing.enabled", false)
	viper.SetDefault("tracing.sample_rate", 1.0)
	viper.SetDefault("tracing.insecure", false)
}

func overrideFromEnv() {
	if dir := os.Getenv("SECRETS_DIR"); dir != "" {
		viper.Set("secrets_dir", dir)
	}

	// Server
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			viper.Set("server.port", p)
		}
	}

	// Transfer
	if amount := os.Getenv("TRANSFER_AMOUNT"); amount != "" {
		viper.Set("transfer.amount", amount)
	}
	if mode := os.Getenv("TRANSFER_MODE"); mode != "" {
		viper.Set("transfer.mode", mode)
	}

	// Ethereum
	if rpc := os.Getenv("ETH_RPC_URL"); rpc != "" {
		viper.Set("ethereum.rpc", rpc)
	}
	if messenger := os.Getenv("TOKEN_MESSENGER_ADDRESS"); messenger != "" {
		viper.Set("ethereum.token_messenger", messenger)
	}
	if usdc := os.Getenv("USDC_ADDRESS"); usdc != "" {
		viper.Set("ethereum.usdc", usdc)
	}
	if domain := os.Getenv("SOURCE_DOMAIN"); domain != "" {
		if d, err := strconv.ParseUint(domain, 10, 32); err == nil {
			viper.Set("ethereum.source_domain", uint32(d))
		}
	}

	// Solana
	if rpc := os.Getenv("SOLANA_RPC_URL"); rpc != "" {
		viper.Set("solana.rpc", rpc)
	}
	if recipient := os.Getenv("SOLANA_RECIPIENT"); recipient != "" {
		viper.Set("solana.recipient", recipient)
	}
	if payer := os.Getenv("SOLANA_FEE_PAYER"); payer != "" {
		viper.Set("solana.fee_payer", payer)
	}
	if feeRecipient := os.Getenv("SOLANA_FEE_RECIPIENT"); feeRecipient != "" {
		viper.Set("solana.fee_recipient", feeRecipient)
	}
	if table := os.Getenv("SOLANA_LOOKUP_TABLE"); table != "" {
		viper.Set("solana.lookup_table", table)
	}

	// Iris
	if baseURL := os.Getenv("IRIS_API_URL"); baseURL != "" {
		viper.Set("iris.base_url", baseURL)
	}
	if env := os.Getenv("IRIS_ENVIRONMENT"); env != "" {
		viper.Set("iris.environment", env)
	}

	// Fordefi
	if baseURL := os.Getenv("FORDEFI_BASE_URL"); baseURL != "" {
		viper.Set("fordefi.base_url", baseURL)
	}
	if vault := os.Getenv("FORDEFI_VAULT_ID"); vault != "" {
		viper.Set("fordefi.vault_id", vault)
	}
	if chain := os.Getenv("FORDEFI_CHAIN"); chain != "" {
		viper.Set("fordefi.chain", chain)
	}

	// Tracing
	if enabled := os.Getenv("TRACING_ENABLED"); enabled != "" {
		if b, err := strconv.ParseBool(enabled); err == nil {
			viper.Set("tracing.enabled", b)
		}
	}
	if collector := os.Getenv("OTEL_COLLECTOR_URL"); collector != "" {
		viper.Set("tracing.collector_url", collector)
	}
}

func validate(config *Config) error {
	required := []struct {
		value, name string
	}{
		{config.Ethereum.RPC, "ETH_RPC_URL"},
		{config.Ethereum.TokenMessenger, "TOKEN_MESSENGER_ADDRESS"},
		{config.Ethereum.USDC, "USDC_ADDRESS"},
		{config.Solana.RPC, "SOLANA_RPC_URL"},
		{config.Solana.Recipient, "SOLANA_RECIPIENT"},
		{config.Solana.FeePayer, "SOLANA_FEE_PAYER"},
		{config.Solana.FeeRecipient, "SOLANA_FEE_RECIPIENT"},
		{config.Fordefi.VaultID, "FORDEFI_VAULT_ID"},
	}
	for _, r := range required {
		if r.value == "" {
			return fmt.Errorf("%s is required", r.name)
		}
	}

	switch config.Transfer.Mode {
	case "fast", "standard":
	default:
		return fmt.Errorf("TRANSFER_MODE must be \"fast\" or \"standard\", got %q", config.Transfer.Mode)
	}

	return nil
}
