package attestation

import (
	"strings"

	"github.com/custodia-labs/cctp-courier/internal/cctp"
)

const (
	// API Hosts
	IrisMainnetURL = "https://iris-api.circle.com"
	IrisSandboxURL = "https://iris-api-sandbox.circle.com"

	// Rate limiting
	MaxRequestsPerSecond = 35

	// PendingSentinel is the attestation value Iris returns while the
	// signature quorum has not been reached yet.
	PendingSentinel = "PENDING"

	// Attestation statuses
	StatusPendingConfirmations = "pending_confirmations"
	StatusComplete             = "complete"
)

// MessagesResponse represents the response from the v2 messages endpoint
type MessagesResponse struct {
	Messages []MessageStatus `json:"messages"`
}

// MessageStatus represents a single message entry with its attestation state
type MessageStatus struct {
	Message                   string `json:"message"`
	EventNonce                string `json:"eventNonce"`
	Attestation               string `json:"attestation"`
	Status                    string `json:"status"`
	CctpVersion               int    `json:"cctpVersion"`
	SourceDomain              uint32 `json:"sourceDomain"`
	DestinationDomain         uint32 `json:"destinationDomain"`
	FinalityThresholdExecuted uint32 `json:"finalityThresholdExecuted"`
}

// Ready reports whether the attestation is usable: present, not the pending
// sentinel, and hex with the 0x marker. Anything else means keep polling.
func (m MessageStatus) Ready() bool {
	att := m.Attestation
	if att == "" || att == PendingSentinel {
		return false
	}
	return strings.HasPrefix(att, "0x")
}

// Attestation is an oracle-signed proof that a burn occurred, paired with
// the message it covers.
type Attestation struct {
	Message     string // hex, 0x-prefixed
	Attestation string // hex, 0x-prefixed
}

// MessageBytes decodes the echoed message.
func (a *Attestation) MessageBytes() ([]byte, error) {
	return cctp.DecodeHex(a.Message)
}

// AttestationBytes decodes the attestation signature bytes.
func (a *Attestation) AttestationBytes() ([]byte, error) {
	return cctp.DecodeHex(a.Attestation)
}

// FeeEntry is one row of the v2 fee schedule for a domain pair.
type FeeEntry struct {
	FinalityThreshold uint32 `json:"finalityThreshold"`
	MinimumFee        uint64 `json:"minimumFee"` // in basis points
}

// PublicKeysResponse represents attestation public keys
type PublicKeysResponse struct {
	Keys []PublicKey `json:"keys"`
}

// PublicKey represents a single attestation public key
type PublicKey struct {
	KeyID     string `json:"keyId"`
	PublicKey string `json:"publicKey"`
	Algorithm string `json:"algorithm"`
}
