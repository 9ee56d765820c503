// Package cctp implements the CCTP v2 wire format: the cross-chain message
// layout, the burn message body, and the MessageSent event encoding. Pure
// byte-level decoding, no chain clients.
package cctp

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"golang.org/x/crypto/sha3"
)

// CCTP v2 message field offsets. All integers big-endian.
const (
	msgVersionOffset           = 0
	msgSourceDomainOffset      = 4
	msgDestinationDomainOffset = 8
	msgNonceOffset             = 12
	msgSenderOffset            = 44
	msgRecipientOffset         = 76
	msgDestinationCallerOffset = 108
	msgMinFinalityOffset       = 140
	msgFinalityExecutedOffset  = 144
	msgBodyOffset              = 148
)

// Burn message body offsets, relative to the body start.
const (
	burnVersionOffset         = 0
	burnTokenOffset           = 4
	burnMintRecipientOffset   = 36
	burnAmountOffset          = 68
	burnMessageSenderOffset   = 100
	burnMaxFeeOffset          = 132
	burnFeeExecutedOffset     = 164
	burnExpirationBlockOffset = 196
	burnHookDataOffset        = 228
)

// Message is a decoded CCTP v2 cross-chain message header plus raw body.
type Message struct {
	Version                   uint32
	SourceDomain              uint32
	DestinationDomain         uint32
	Nonce                     [32]byte
	Sender                    [32]byte
	Recipient                 [32]byte
	DestinationCaller         [32]byte
	MinFinalityThreshold      uint32
	FinalityThresholdExecuted uint32
	Body                      []byte

	raw []byte
}

// DecodeMessage parses the v2 message layout. The input must contain at
// least the fixed-size header.
func DecodeMessage(data []byte) (*Message, error) {
	if len(data) < msgBodyOffset {
		return nil, fmt.Errorf("message too short: %d bytes, need at least %d", len(data), msgBodyOffset)
	}

	m := &Message{
		Version:                   binary.BigEndian.Uint32(data[msgVersionOffset:]),
		SourceDomain:              binary.BigEndian.Uint32(data[msgSourceDomainOffset:]),
		DestinationDomain:         binary.BigEndian.Uint32(data[msgDestinationDomainOffset:]),
		MinFinalityThreshold:      binary.BigEndian.Uint32(data[msgMinFinalityOffset:]),
		FinalityThresholdExecuted: binary.BigEndian.Uint32(data[msgFinalityExecutedOffset:]),
		Body:                      data[msgBodyOffset:],
		raw:                       data,
	}
	copy(m.Nonce[:], data[msgNonceOffset:msgSenderOffset])
	copy(m.Sender[:], data[msgSenderOffset:msgRecipientOffset])
	copy(m.Recipient[:], data[msgRecipientOffset:msgDestinationCallerOffset])
	copy(m.DestinationCaller[:], data[msgDestinationCallerOffset:msgMinFinalityOffset])

	return m, nil
}

// Raw returns the original message bytes.
func (m *Message) Raw() []byte { return m.raw }

// Hash returns the keccak256 digest of the raw message bytes. This is the
// identifier the attestation oracle keys attestations by.
func (m *Message) Hash() [32]byte {
	return Keccak256(m.raw)
}

// BurnBody is the decoded body of a depositForBurn message.
type BurnBody struct {
	Version         uint32
	BurnToken       [32]byte
	MintRecipient   [32]byte
	Amount          *big.Int
	MessageSender   [32]byte
	MaxFee          *big.Int
	FeeExecuted     *big.Int
	ExpirationBlock *big.Int
	HookData        []byte
}

// DecodeBurnBody parses a burn message body.
func (m *Message) DecodeBurnBody() (*BurnBody, error) {
	body := m.Body
	if len(body) < burnHookDataOffset {
		return nil, fmt.Errorf("burn body too short: %d bytes, need at least %d", len(body), burnHookDataOffset)
	}

	b := &BurnBody{
		Version:         binary.BigEndian.Uint32(body[burnVersionOffset:]),
		Amount:          new(big.Int).SetBytes(body[burnAmountOffset:burnMessageSenderOffset]),
		MaxFee:          new(big.Int).SetBytes(body[burnMaxFeeOffset:burnFeeExecutedOffset]),
		FeeExecuted:     new(big.Int).SetBytes(body[burnFeeExecutedOffset:burnExpirationBlockOffset]),
		ExpirationBlock: new(big.Int).SetBytes(body[burnExpirationBlockOffset:burnHookDataOffset]),
		HookData:        body[burnHookDataOffset:],
	}
	copy(b.BurnToken[:], body[burnTokenOffset:burnMintRecipientOffset])
	copy(b.MintRecipient[:], body[burnMintRecipientOffset:burnAmountOffset])
	copy(b.MessageSender[:], body[burnMessageSenderOffset:burnMaxFeeOffset])

	return b, nil
}

// Keccak256 computes the legacy Keccak-256 digest used for EVM hashing.
func Keccak256(data []byte) [32]byte {
	h := sha3.NewLegacyKeccak256()
	h.Write(data)
	var out [32]byte
	h.Sum(out[:0])
	return out
}

// DecodeHex decodes a hex string with or without a 0x prefix.
func DecodeHex(s string) ([]byte, error) {
	s = strings.TrimPrefix(s, "0x")
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid hex: %w", err)
	}
	return b, nil
}

// EncodeHex returns the 0x-prefixed hex encoding of b.
func EncodeHex(b []byte) string {
	return "0x" + hex.EncodeToString(b)
}
