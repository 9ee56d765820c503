package receive

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	ata "github.com/gagliardetto/solana-go/programs/associated-token-account"

	"github.com/custodia-labs/cctp-courier/internal/attestation"
	"github.com/custodia-labs/cctp-courier/internal/cctp"
	"github.com/custodia-labs/cctp-courier/pkg/logger"
)

// Config are the static destination-chain coordinates for the builder.
type Config struct {
	MessageTransmitterProgram   solana.PublicKey
	TokenMessengerMinterProgram solana.PublicKey

	// Mint is the asset being received.
	Mint solana.PublicKey

	// Recipient is the destination wallet owner; the funds land in its
	// associated token account.
	Recipient solana.PublicKey

	// Payer signs and pays for the receive transaction (the remote
	// signer's vault address).
	Payer solana.PublicKey

	// FeeRecipient owns the token account fast-transfer fees accrue to.
	FeeRecipient solana.PublicKey

	// RemoteToken is the source-chain asset address, left-padded to 32
	// bytes.
	RemoteToken [32]byte

	// LookupTable optionally compacts the transaction. Zero disables it.
	LookupTable solana.PublicKey
}

// SolanaClient is the destination-chain capability the builder depends on.
type SolanaClient interface {
	// LatestBlockhash returns a fresh blockhash to anchor the transaction.
	LatestBlockhash(ctx context.Context) (solana.Hash, error)

	// AccountExists reports whether the account has been created on chain.
	AccountExists(ctx context.Context, address solana.PublicKey) (bool, error)

	// LookupTableAddresses resolves the address list of a lookup table.
	LookupTableAddresses(ctx context.Context, table solana.PublicKey) (solana.PublicKeySlice, error)
}

// Transaction is the serialized, unsigned receive transaction plus build
// diagnostics.
type Transaction struct {
	Base64          string
	Size            int
	Accounts        *Accounts
	CreatedATA      bool
	UsedLookupTable bool
}

// receiveMessageDiscriminator is the Anchor global dispatch id of
// receive_message.
var receiveMessageDiscriminator = anchorDiscriminator("receive_message")

func anchorDiscriminator(method string) []byte {
	sum := sha256.Sum256([]byte("global:" + method))
	return sum[:8]
}

type receiveMessageParams struct {
	Message     []byte
	Attestation []byte
}

// Builder assembles receive transactions for attested messages.
type Builder struct {
	client SolanaClient
	config Config
	logger *logger.Logger
}

func NewBuilder(client SolanaClient, cfg Config, log *logger.Logger) *Builder {
	return &Builder{
		client: client,
		config: cfg,
		logger: log,
	}
}

// Build derives the account set for the attested message and serializes the
// unsigned receive transaction. The attestation must already be ready;
// passing an unattested message is a programming error, not a runtime
// condition this method recovers from.
func (b *Builder) Build(ctx context.Context, att *attestation.Attestation) (*Transaction, error) {
	msgBytes, err := att.MessageBytes()
	if err != nil {
		return nil, fmt.Errorf("decode message hex: %w", err)
	}
	attBytes, err := att.AttestationBytes()
	if err != nil {
		return nil, fmt.Errorf("decode attestation hex: %w", err)
	}

	msg, err := cctp.DecodeMessage(msgBytes)
	if err != nil {
		return nil, fmt.Errorf("decode message: %w", err)
	}

	accounts, err := DeriveAccounts(b.config, msg)
	if err != nil {
		return nil, err
	}

	instructions := make([]solana.Instruction, 0, 2)

	ataExists, err := b.client.AccountExists(ctx, accounts.RecipientATA)
	if err != nil {
		return nil, fmt.Errorf("%w: check recipient token account: %v", ErrAccountResolution, err)
	}
	if !ataExists {
		b.logger.Info("recipient token account missing, prepending creation",
			"token_account", accounts.RecipientATA.String())
		instructions = append(instructions,
			ata.NewCreateInstruction(b.config.Payer, b.config.Recipient, b.config.Mint).Build())
	}

	data, err := encodeReceiveMessageData(msgBytes, attBytes)
	if err != nil {
		return nil, fmt.Errorf("encode instruction data: %w", err)
	}

	metas := append(accounts.coreMetas(b.config), accounts.protocolMetas(b.config)...)
	instructions = append(instructions,
		solana.NewInstruction(b.config.MessageTransmitterProgram, metas, data))

	blockhash, err := b.client.LatestBlockhash(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch blockhash: %w", err)
	}

	opts := []solana.TransactionOption{solana.TransactionPayer(b.config.Payer)}
	usedLookupTable := false
	if !b.config.LookupTable.IsZero() {
		addresses, err := b.client.LookupTableAddresses(ctx, b.config.LookupTable)
		if err != nil {
			// The table is an optimization; a transfer must not fail
			// because it cannot be resolved.
			b.logger.Warn("lookup table unresolvable, proceeding without it",
				"table", b.config.LookupTable.String(), "error", err)
		} else {
			opts = append(opts, solana.TransactionAddressTables(
				map[solana.PublicKey]solana.PublicKeySlice{b.config.LookupTable: addresses}))
			usedLookupTable = true
		}
	}

	tx, err := solana.NewTransaction(instructions, blockhash, opts...)
	if err != nil {
		return nil, fmt.Errorf("assemble transaction: %w", err)
	}

	serialized, err := tx.Message.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("serialize transaction message: %w", err)
	}

	b.logger.Info("receive transaction built",
		"size_bytes", len(serialized),
		"created_ata", !ataExists,
		"lookup_table", usedLookupTable)

	return &Transaction{
		Base64:          base64.StdEncoding.EncodeToString(serialized),
		Size:            len(serialized),
		Accounts:        accounts,
		CreatedATA:      !ataExists,
		UsedLookupTable: usedLookupTable,
	}, nil
}

func encodeReceiveMessageData(message, attestationBytes []byte) ([]byte, error) {
	buf := new(bytes.Buffer)
	enc := bin.NewBorshEncoder(buf)
	if err := enc.Encode(receiveMessageParams{
		Message:     message,
		Attestation: attestationBytes,
	}); err != nil {
		return nil, err
	}
	return append(append([]byte{}, receiveMessageDiscriminator...), buf.Bytes()...), nil
}
