//go:build ignore

package main

import (
	"fmt"
	"log"
	"os"

	"github.com/gagliardetto/solana-go"

	"github.com/custodia-labs/cctp-courier/internal/cctp"
	"github.com/custodia-labs/cctp-courier/internal/receive"
)

// Prints the receive_message account set for a burn message, for comparing
// against explorer output when a receive transaction fails on chain.
// MESSAGE_HEX is the oracle-echoed message; SOLANA_RECIPIENT the wallet the
// funds land in.
func main() {
	messageHex := os.Getenv("MESSAGE_HEX")
	if messageHex == "" {
		log.Fatal("MESSAGE_HEX environment variable is required")
	}
	recipient := os.Getenv("SOLANA_RECIPIENT")
	if recipient == "" {
		log.Fatal("SOLANA_RECIPIENT environment variable is required")
	}

	raw, err := cctp.DecodeHex(messageHex)
	if err != nil {
		log.Fatalf("Invalid MESSAGE_HEX: %v", err)
	}
	msg, err := cctp.DecodeMessage(raw)
	if err != nil {
		log.Fatalf("Failed to decode message: %v", err)
	}
	body, err := msg.DecodeBurnBody()
	if err != nil {
		log.Fatalf("Failed to decode burn body: %v", err)
	}

	cfg := receive.Config{
		MessageTransmitterProgram:   mustKey("SOLANA_MESSAGE_TRANSMITTER_PROGRAM", "CCTPV2Sm4AdWt5296sk4P66VBZ7bEhcARwFaaS9YPbeC"),
		TokenMessengerMinterProgram: mustKey("SOLANA_TOKEN_MESSENGER_MINTER_PROGRAM", "CCTPV2vPZJS2u2BBsUoscuikbYjnpFmbFsvVuJdgUMQe"),
		Mint:                        mustKey("SOLANA_USDC_MINT", "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"),
		Recipient:                   mustKey("SOLANA_RECIPIENT", ""),
		FeeRecipient:                mustKey("SOLANA_FEE_RECIPIENT", recipient),
		RemoteToken:                 body.BurnToken,
	}

	accounts, err := receive.DeriveAccounts(cfg, msg)
	if err != nil {
		log.Fatalf("Account derivation failed: %v", err)
	}

	fmt.Printf("Message: source domain %d (%s), nonce %x\n\n",
		msg.SourceDomain, cctp.DomainName(msg.SourceDomain), msg.Nonce)

	for _, row := range []struct {
		name string
		key  solana.PublicKey
	}{
		{"authority", accounts.AuthorityPDA},
		{"message_transmitter", accounts.MessageTransmitter},
		{"used_nonce", accounts.UsedNonce},
		{"transmitter_event_authority", accounts.TransmitterEventAuthority},
		{"token_messenger", accounts.TokenMessenger},
		{"remote_token_messenger", accounts.RemoteTokenMessenger},
		{"token_minter", accounts.TokenMinter},
		{"local_token", accounts.LocalToken},
		{"token_pair", accounts.TokenPair},
		{"fee_recipient_ata", accounts.FeeRecipientATA},
		{"recipient_ata", accounts.RecipientATA},
		{"custody", accounts.CustodyTokenAccount},
		{"messenger_event_authority", accounts.MessengerEventAuthority},
	} {
		fmt.Printf("%-28s %s\n", row.name, row.key)
	}
}

func mustKey(env, fallback string) solana.PublicKey {
	value := os.Getenv(env)
	if value == "" {
		value = fallback
	}
	key, err := solana.PublicKeyFromBase58(value)
	if err != nil {
		log.Fatalf("Invalid %s: %v", env, err)
	}
	return key
}
