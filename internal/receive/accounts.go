// Package receive builds the destination-chain transaction that finalizes a
// transfer: PDA derivation, the receive_message instruction, and the
// serialized unsigned transaction handed to the remote signer.
package receive

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/gagliardetto/solana-go"

	"github.com/custodia-labs/cctp-courier/internal/cctp"
)

// ErrAccountResolution wraps every PDA, ATA, or lookup-table resolution
// failure.
var ErrAccountResolution = errors.New("account resolution failed")

// Accounts is the full resolved account set for one receive_message call.
type Accounts struct {
	// Message transmitter side.
	AuthorityPDA              solana.PublicKey
	MessageTransmitter        solana.PublicKey
	UsedNonce                 solana.PublicKey
	TransmitterEventAuthority solana.PublicKey

	// Token messenger minter side.
	TokenMessenger          solana.PublicKey
	RemoteTokenMessenger    solana.PublicKey
	TokenMinter             solana.PublicKey
	LocalToken              solana.PublicKey
	TokenPair               solana.PublicKey
	FeeRecipientATA         solana.PublicKey
	RecipientATA            solana.PublicKey
	CustodyTokenAccount     solana.PublicKey
	MessengerEventAuthority solana.PublicKey
}

// MintRecipient derives the recipient's associated token account for the
// mint and returns it with its 32-byte wire form, which is what the source
// chain burn takes as its destination.
func MintRecipient(recipient, mint solana.PublicKey) (solana.PublicKey, [32]byte, error) {
	ata, _, err := solana.FindAssociatedTokenAddress(recipient, mint)
	if err != nil {
		return solana.PublicKey{}, [32]byte{}, resolutionErr("recipient token account", err)
	}
	var wire [32]byte
	copy(wire[:], ata.Bytes())
	return ata, wire, nil
}

// DeriveAccounts resolves every program-derived address the receiving
// program requires for the given message. The nonce and source domain are
// read from the message's fixed-format fields.
func DeriveAccounts(cfg Config, msg *cctp.Message) (*Accounts, error) {
	mt := cfg.MessageTransmitterProgram
	tmm := cfg.TokenMessengerMinterProgram
	domainSeed := []byte(strconv.FormatUint(uint64(msg.SourceDomain), 10))

	a := &Accounts{}
	var err error

	if a.AuthorityPDA, err = findPDA(mt, []byte("message_transmitter_authority"), tmm.Bytes()); err != nil {
		return nil, resolutionErr("authority", err)
	}
	if a.MessageTransmitter, err = findPDA(mt, []byte("message_transmitter")); err != nil {
		return nil, resolutionErr("message transmitter", err)
	}
	if a.UsedNonce, err = findPDA(mt, []byte("used_nonce"), msg.Nonce[:]); err != nil {
		return nil, resolutionErr("used nonce", err)
	}
	if a.TransmitterEventAuthority, err = findPDA(mt, []byte("__event_authority")); err != nil {
		return nil, resolutionErr("transmitter event authority", err)
	}

	if a.TokenMessenger, err = findPDA(tmm, []byte("token_messenger")); err != nil {
		return nil, resolutionErr("token messenger", err)
	}
	if a.RemoteTokenMessenger, err = findPDA(tmm, []byte("remote_token_messenger"), domainSeed); err != nil {
		return nil, resolutionErr("remote token messenger", err)
	}
	if a.TokenMinter, err = findPDA(tmm, []byte("token_minter")); err != nil {
		return nil, resolutionErr("token minter", err)
	}
	if a.LocalToken, err = findPDA(tmm, []byte("local_token"), cfg.Mint.Bytes()); err != nil {
		return nil, resolutionErr("local token", err)
	}
	if a.TokenPair, err = findPDA(tmm, []byte("token_pair"), domainSeed, cfg.RemoteToken[:]); err != nil {
		return nil, resolutionErr("token pair", err)
	}
	if a.CustodyTokenAccount, err = findPDA(tmm, []byte("custody"), cfg.Mint.Bytes()); err != nil {
		return nil, resolutionErr("custody", err)
	}
	if a.MessengerEventAuthority, err = findPDA(tmm, []byte("__event_authority")); err != nil {
		return nil, resolutionErr("messenger event authority", err)
	}

	if a.RecipientATA, _, err = solana.FindAssociatedTokenAddress(cfg.Recipient, cfg.Mint); err != nil {
		return nil, resolutionErr("recipient token account", err)
	}
	if a.FeeRecipientATA, _, err = solana.FindAssociatedTokenAddress(cfg.FeeRecipient, cfg.Mint); err != nil {
		return nil, resolutionErr("fee recipient token account", err)
	}

	return a, nil
}

// coreMetas is the transmitter-level account list of receive_message, in
// calling-convention order.
func (a *Accounts) coreMetas(cfg Config) solana.AccountMetaSlice {
	return solana.AccountMetaSlice{
		solana.Meta(cfg.Payer).WRITE().SIGNER(),
		solana.Meta(cfg.Payer).SIGNER(),
		solana.Meta(a.AuthorityPDA),
		solana.Meta(a.MessageTransmitter),
		solana.Meta(a.UsedNonce).WRITE(),
		solana.Meta(cfg.TokenMessengerMinterProgram),
		solana.Meta(solana.SystemProgramID),
		solana.Meta(a.TransmitterEventAuthority),
		solana.Meta(cfg.MessageTransmitterProgram),
	}
}

// protocolMetas is the fixed 11-entry account tail consumed by the token
// messenger minter. Order and writable flags are a hard contract with the
// program; a wrong flag fails on-chain, not here.
func (a *Accounts) protocolMetas(cfg Config) solana.AccountMetaSlice {
	return solana.AccountMetaSlice{
		solana.Meta(a.TokenMessenger),
		solana.Meta(a.RemoteTokenMessenger),
		solana.Meta(a.TokenMinter).WRITE(),
		solana.Meta(a.LocalToken).WRITE(),
		solana.Meta(a.TokenPair),
		solana.Meta(a.FeeRecipientATA).WRITE(),
		solana.Meta(a.RecipientATA).WRITE(),
		solana.Meta(a.CustodyTokenAccount).WRITE(),
		solana.Meta(solana.TokenProgramID),
		solana.Meta(a.MessengerEventAuthority),
		solana.Meta(cfg.TokenMessengerMinterProgram),
	}
}

func findPDA(program solana.PublicKey, seeds ...[]byte) (solana.PublicKey, error) {
	address, _, err := solana.FindProgramAddress(seeds, program)
	return address, err
}

func resolutionErr(what string, err error) error {
	return fmt.Errorf("%w: derive %s: %v", ErrAccountResolution, what, err)
}
