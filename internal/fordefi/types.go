package fordefi

// Wire constants for the transaction creation endpoint. The API rejects
// requests whose discriminator fields deviate from these values.
const (
	transactionsPath = "/api/v1/transactions"

	signerTypeAPI             = "api_signer"
	signModeAuto              = "auto"
	pushModeAuto              = "auto"
	typeSolanaTransaction     = "solana_transaction"
	typeSerializedMessageData = "solana_serialized_transaction_message"

	// ChainSolanaMainnet is the chain identifier for Solana mainnet vaults.
	ChainSolanaMainnet = "solana_mainnet"
	// ChainSolanaDevnet is the chain identifier for Solana devnet vaults.
	ChainSolanaDevnet = "solana_devnet"
)

// CreateTransactionRequest asks the platform to sign and push a serialized
// Solana transaction message from the configured vault.
type CreateTransactionRequest struct {
	VaultID    string             `json:"vault_id"`
	SignerType string             `json:"signer_type"`
	SignMode   string             `json:"sign_mode"`
	Type       string             `json:"type"`
	Details    TransactionDetails `json:"details"`
}

// TransactionDetails carries the serialized message payload.
type TransactionDetails struct {
	Type     string `json:"type"`
	PushMode string `json:"push_mode"`
	Chain    string `json:"chain"`
	Data     string `json:"data"`
}

// TransactionResponse is the subset of the creation response the pipeline
// records. State transitions past "waiting_for_signature" happen
// asynchronously on the platform side.
type TransactionResponse struct {
	ID        string `json:"id"`
	State     string `json:"state"`
	CreatedAt string `json:"created_at"`
}
