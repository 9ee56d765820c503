package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gagliardetto/solana-go"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/spf13/pflag"

	"github.com/custodia-labs/cctp-courier/internal/api/routes"
	"github.com/custodia-labs/cctp-courier/internal/attestation"
	"github.com/custodia-labs/cctp-courier/internal/burn"
	"github.com/custodia-labs/cctp-courier/internal/cctp"
	"github.com/custodia-labs/cctp-courier/internal/config"
	"github.com/custodia-labs/cctp-courier/internal/evm"
	"github.com/custodia-labs/cctp-courier/internal/fordefi"
	"github.com/custodia-labs/cctp-courier/internal/pipeline"
	"github.com/custodia-labs/cctp-courier/internal/receive"
	"github.com/custodia-labs/cctp-courier/pkg/graceful"
	"github.com/custodia-labs/cctp-courier/pkg/logger"
	"github.com/custodia-labs/cctp-courier/pkg/secrets"
	"github.com/custodia-labs/cctp-courier/pkg/security"
	"github.com/custodia-labs/cctp-courier/pkg/tracing"
)

var (
	runMode    = pflag.String("mode", "transfer", "run mode: transfer, resume, preflight, or serve")
	configFile = pflag.String("config", "", "path to config file (default: search ./configs, .)")
	amount     = pflag.String("amount", "", "transfer amount in human units (overrides TRANSFER_AMOUNT)")
	recipient  = pflag.String("recipient", "", "destination owner address (overrides SOLANA_RECIPIENT)")
	burnTx     = pflag.String("burn-tx", "", "confirmed burn transaction hash to resume from (resume mode)")
	speed      = pflag.String("transfer-mode", "", "settlement speed: fast or standard (overrides TRANSFER_MODE)")
)

// courier bundles the wired pipeline with the clients the run modes need
// directly.
type courier struct {
	evm          *evm.Client
	solana       *receive.RPCClient
	orchestrator *pipeline.Orchestrator
	preflight    *pipeline.Preflight
	secrets      *secrets.Manager
}

func main() {
	pflag.Parse()

	// Load configuration
	cfg, err := config.Load(*configFile)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}
	if *amount != "" {
		cfg.Transfer.Amount = *amount
	}
	if *recipient != "" {
		cfg.Solana.Recipient = *recipient
	}
	if *speed != "" {
		cfg.Transfer.Mode = *speed
	}

	// Initialize logger
	log := logger.New(cfg.LogLevel, cfg.Environment)
	defer log.Sync()

	// Initialize OpenTelemetry tracing
	tracingConfig := tracing.Config{
		Enabled:      cfg.Tracing.Enabled,
		CollectorURL: cfg.Tracing.CollectorURL,
		Environment:  cfg.Environment,
		SampleRate:   cfg.Tracing.SampleRate,
		Insecure:     cfg.Tracing.Insecure,
	}
	tracingShutdown, err := tracing.InitTracer(context.Background(), tracingConfig, log.Zap())
	if err != nil {
		log.Fatal("Failed to initialize tracing", "error", err)
	}
	defer tracingShutdown(context.Background())

	mode, err := cctp.ParseMode(cfg.Transfer.Mode)
	if err != nil {
		log.Fatal("Invalid transfer mode", "error", err)
	}

	ctx := context.Background()
	c, err := buildCourier(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to build courier", "error", err)
	}
	defer c.evm.Close()

	log.Info("Courier configured",
		"source_signer", security.MaskAddress(c.evm.Address().Hex()),
		"recipient", security.MaskAddress(cfg.Solana.Recipient),
		"vault_id", security.MaskVaultID(cfg.Fordefi.VaultID),
		"transfer_mode", cfg.Transfer.Mode,
	)

	switch *runMode {
	case "transfer":
		runTransfer(ctx, c, cfg.Transfer.Amount, mode, log)
	case "resume":
		runResume(ctx, c, *burnTx, mode, log)
	case "preflight":
		runPreflight(ctx, c, cfg.Transfer.Amount, log)
	case "serve":
		runServe(cfg, c, tracingShutdown, log)
	default:
		log.Fatal("Unknown run mode", "mode", *runMode)
	}
}

// buildCourier wires every stage of the pipeline from configuration. Key
// material resolves through the secrets chain, never through viper.
func buildCourier(ctx context.Context, cfg *config.Config, log *logger.Logger) (*courier, error) {
	sec := newSecretsManager(cfg)

	evmKey, err := sec.GetSourceSignerKey(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve source signer key: %w", err)
	}
	apiToken, err := sec.GetFordefiAPIToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve Fordefi API token: %w", err)
	}
	pemData, err := sec.GetFordefiPrivateKeyPEM(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve Fordefi signing key: %w", err)
	}

	evmClient, err := evm.NewClient(ctx, evm.Config{
		RPCURL:         cfg.Ethereum.RPC,
		PrivateKey:     evmKey,
		GasLimit:       cfg.Ethereum.GasLimit,
		ReceiptTimeout: time.Duration(cfg.Ethereum.ReceiptTimeout) * time.Second,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("connect source chain: %w", err)
	}

	initiator := burn.NewInitiator(evmClient, burn.Params{
		TokenMessenger:    common.HexToAddress(cfg.Ethereum.TokenMessenger),
		Token:             common.HexToAddress(cfg.Ethereum.USDC),
		DestinationDomain: cfg.Solana.DestinationDomain,
	}, log)

	oracle := attestation.NewClient(attestation.Config{
		BaseURL:     cfg.Iris.BaseURL,
		Environment: cfg.Iris.Environment,
		Timeout:     time.Duration(cfg.Iris.Timeout) * time.Second,
	}, log.Zap())
	poller := attestation.NewPoller(oracle, time.Duration(cfg.Transfer.PollInterval)*time.Second, log)

	receiveCfg, err := receiveConfig(cfg)
	if err != nil {
		return nil, err
	}
	solanaClient := receive.NewRPCClient(cfg.Solana.RPC)
	builder := receive.NewBuilder(solanaClient, receiveCfg, log)

	signer, err := fordefi.NewSigner([]byte(pemData))
	if err != nil {
		return nil, fmt.Errorf("parse Fordefi signing key: %w", err)
	}
	submitter := fordefi.NewClient(fordefi.Config{
		BaseURL:  cfg.Fordefi.BaseURL,
		APIToken: apiToken,
		VaultID:  cfg.Fordefi.VaultID,
		Chain:    cfg.Fordefi.Chain,
	}, signer, log)

	recipientATA, mintRecipient, err := receive.MintRecipient(receiveCfg.Recipient, receiveCfg.Mint)
	if err != nil {
		return nil, err
	}

	routeCfg := pipeline.Config{
		SourceDomain:      cfg.Ethereum.SourceDomain,
		DestinationDomain: cfg.Solana.DestinationDomain,
		MintRecipient:     mintRecipient,
	}

	return &courier{
		evm:          evmClient,
		solana:       solanaClient,
		orchestrator: pipeline.New(initiator, poller, builder, submitter, oracle, routeCfg, log),
		preflight:    pipeline.NewPreflight(initiator, oracle, solanaClient, recipientATA, routeCfg, log),
		secrets:      sec,
	}, nil
}

// newSecretsManager builds the provider chain: environment first, then the
// mounted secrets directory when one is configured.
func newSecretsManager(cfg *config.Config) *secrets.Manager {
	providers := []secrets.Provider{secrets.NewEnvProvider()}
	if cfg.SecretsDir != "" {
		providers = append(providers, secrets.NewFileProvider(cfg.SecretsDir))
	}
	return secrets.NewManager(secrets.NewChainProvider(providers...))
}

// receiveConfig parses the destination chain coordinates out of the loaded
// configuration.
func receiveConfig(cfg *config.Config) (receive.Config, error) {
	var out receive.Config
	for _, f := range []struct {
		name   string
		value  string
		target *solana.PublicKey
	}{
		{"SOLANA_MESSAGE_TRANSMITTER_PROGRAM", cfg.Solana.MessageTransmitterProgram, &out.MessageTransmitterProgram},
		{"SOLANA_TOKEN_MESSENGER_MINTER_PROGRAM", cfg.Solana.TokenMessengerMinterProgram, &out.TokenMessengerMinterProgram},
		{"SOLANA_USDC_MINT", cfg.Solana.USDCMint, &out.Mint},
		{"SOLANA_RECIPIENT", cfg.Solana.Recipient, &out.Recipient},
		{"SOLANA_FEE_PAYER", cfg.Solana.FeePayer, &out.Payer},
		{"SOLANA_FEE_RECIPIENT", cfg.Solana.FeeRecipient, &out.FeeRecipient},
	} {
		key, err := solana.PublicKeyFromBase58(f.value)
		if err != nil {
			return out, fmt.Errorf("parse %s %q: %w", f.name, f.value, err)
		}
		*f.target = key
	}

	if cfg.Solana.LookupTable != "" {
		table, err := solana.PublicKeyFromBase58(cfg.Solana.LookupTable)
		if err != nil {
			return out, fmt.Errorf("parse SOLANA_LOOKUP_TABLE %q: %w", cfg.Solana.LookupTable, err)
		}
		out.LookupTable = table
	}

	// The source asset address, left-padded to the 32 byte wire form.
	copy(out.RemoteToken[12:], common.HexToAddress(cfg.Ethereum.USDC).Bytes())

	return out, nil
}

func runTransfer(ctx context.Context, c *courier, amount string, mode cctp.Mode, log *logger.Logger) {
	amt := parseAmount(amount, log)

	result, err := c.orchestrator.Execute(ctx, pipeline.TransferRequest{
		Amount: amt,
		Mode:   mode,
	})
	if err != nil {
		fatalTransfer(err, log)
	}
	printJSON(result)
}

func runResume(ctx context.Context, c *courier, burnTxHash string, mode cctp.Mode, log *logger.Logger) {
	if burnTxHash == "" {
		log.Fatal("Resume mode requires --burn-tx")
	}

	result, err := c.orchestrator.Resume(ctx, burnTxHash, mode)
	if err != nil {
		fatalTransfer(err, log)
	}
	printJSON(result)
}

func runPreflight(ctx context.Context, c *courier, amount string, log *logger.Logger) {
	amt := parseAmount(amount, log)

	report, err := c.preflight.Run(ctx, amt)
	if err != nil {
		log.Fatal("Preflight failed", "error", err)
	}
	printJSON(report)
	if !report.OK() {
		os.Exit(1)
	}
}

func runServe(cfg *config.Config, c *courier, tracingShutdown func(context.Context) error, log *logger.Logger) {
	// Set Gin mode
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	authToken, err := c.secrets.GetAPIAuthToken(context.Background())
	if err != nil {
		authToken = ""
		log.Warn("API_AUTH_TOKEN not configured; transfer endpoints are unauthenticated")
	}

	router := routes.SetupRoutes(cfg, authToken, c.orchestrator, c.solana, log)

	server := &http.Server{
		Addr:           fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:        router,
		ReadTimeout:    time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout:   time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:    120 * time.Second,
		MaxHeaderBytes: 1 << 20, // 1MB
	}

	sm := graceful.NewShutdownManager(server, log)
	sm.Register(graceful.ShutdownFunc(func(ctx context.Context) error {
		c.evm.Close()
		return nil
	}))
	sm.Register(graceful.ShutdownFunc(tracingShutdown))

	// Start server in goroutine
	go func() {
		log.Info("Starting server",
			"addr", server.Addr,
			"environment", cfg.Environment,
			"read_timeout", cfg.Server.ReadTimeout,
			"write_timeout", cfg.Server.WriteTimeout,
		)

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", "error", err)
		}
	}()

	sm.WaitForShutdown()
}

func parseAmount(amount string, log *logger.Logger) decimal.Decimal {
	if amount == "" {
		log.Fatal("TRANSFER_AMOUNT (or --amount) is required")
	}
	amt, err := decimal.NewFromString(amount)
	if err != nil {
		log.Fatal("Invalid transfer amount", "amount", amount, "error", err)
	}
	return amt
}

// fatalTransfer reports a failed run with its stage and classification so
// the operator knows whether to resume or restart.
func fatalTransfer(err error, log *logger.Logger) {
	var stageErr *pipeline.Error
	if errors.As(err, &stageErr) {
		log.Fatal("Transfer failed",
			"stage", string(stageErr.Stage),
			"kind", string(stageErr.Kind),
			"recoverable", stageErr.Recoverable(),
			"error", err,
		)
	}
	log.Fatal("Transfer failed", "error", err)
}

func printJSON(v interface{}) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return
	}
	fmt.Println(string(out))
}
