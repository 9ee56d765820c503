package fordefi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/custodia-labs/cctp-courier/pkg/logger"
	"github.com/custodia-labs/cctp-courier/pkg/metrics"
	"github.com/custodia-labs/cctp-courier/pkg/security"
)

// DefaultBaseURL is the production Fordefi API endpoint.
const DefaultBaseURL = "https://api.fordefi.com"

const defaultTimeout = 30 * time.Second

// Config represents Fordefi API configuration.
type Config struct {
	BaseURL  string
	APIToken string
	VaultID  string
	Chain    string // "solana_mainnet" or "solana_devnet"
	Timeout  time.Duration
}

// Client submits serialized transaction messages to the Fordefi
// transaction API. Every request is authenticated twice: the bearer token
// identifies the API user, and the payload signature proves possession of
// the registered API signer key.
type Client struct {
	config     Config
	signer     *Signer
	httpClient *http.Client
	logger     *logger.Logger
	now        func() time.Time
}

// NewClient creates a new Fordefi API client.
func NewClient(config Config, signer *Signer, log *logger.Logger) *Client {
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	if config.Chain == "" {
		config.Chain = ChainSolanaMainnet
	}
	if config.Timeout == 0 {
		config.Timeout = defaultTimeout
	}

	return &Client{
		config:     config,
		signer:     signer,
		httpClient: &http.Client{Timeout: config.Timeout},
		logger:     log,
		now:        time.Now,
	}
}

// SubmitTransaction asks the platform to sign and broadcast the serialized
// message from the configured vault. The request is sent exactly once:
// a failed submission must surface to the operator rather than risk a
// duplicate broadcast attempt.
func (c *Client) SubmitTransaction(ctx context.Context, serializedMessage string) (*TransactionResponse, error) {
	reqBody := &CreateTransactionRequest{
		VaultID:    c.config.VaultID,
		SignerType: signerTypeAPI,
		SignMode:   signModeAuto,
		Type:       typeSolanaTransaction,
		Details: TransactionDetails{
			Type:     typeSerializedMessageData,
			PushMode: pushModeAuto,
			Chain:    c.config.Chain,
			Data:     serializedMessage,
		},
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal transaction request: %w", err)
	}

	timestamp := c.now().UnixMilli()
	signature, err := c.signer.Sign(canonicalPayload(transactionsPath, timestamp, body))
	if err != nil {
		return nil, fmt.Errorf("sign transaction request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+transactionsPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.config.APIToken)
	req.Header.Set("X-Timestamp", strconv.FormatInt(timestamp, 10))
	req.Header.Set("X-Signature", signature)

	c.logger.Debug("Submitting transaction to signer",
		"vault_id", security.MaskVaultID(c.config.VaultID),
		"chain", c.config.Chain,
		"message_size", len(serializedMessage),
	)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.SubmissionsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("submit transaction: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.SubmissionsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		metrics.SubmissionsTotal.WithLabelValues("rejected").Inc()
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	var txResp TransactionResponse
	if err := json.Unmarshal(respBody, &txResp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	metrics.SubmissionsTotal.WithLabelValues("accepted").Inc()
	c.logger.Info("Transaction accepted by signer",
		"transaction_id", txResp.ID,
		"state", txResp.State,
	)
	return &txResp, nil
}

// Config returns the client configuration.
func (c *Client) Config() Config {
	return c.config
}

// canonicalPayload builds the signed request payload. The format is fixed
// by the API: path, millisecond timestamp and the exact body bytes joined
// with "|". Any deviation invalidates the signature server side.
func canonicalPayload(path string, timestamp int64, body []byte) []byte {
	payload := make([]byte, 0, len(path)+1+20+1+len(body))
	payload = append(payload, path...)
	payload = append(payload, '|')
	payload = strconv.AppendInt(payload, timestamp, 10)
	payload = append(payload, '|')
	payload = append(payload, body...)
	return payload
}
