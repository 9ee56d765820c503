package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/custodia-labs/cctp-courier/internal/attestation"
	"github.com/custodia-labs/cctp-courier/internal/cctp"
	"github.com/custodia-labs/cctp-courier/internal/receive"
)

func main() {
	environment := os.Getenv("IRIS_ENVIRONMENT")
	if environment == "" {
		environment = "mainnet"
	}

	sourceDomain := uint32(cctp.DomainEthereum)
	if d := os.Getenv("SOURCE_DOMAIN"); d != "" {
		parsed, err := strconv.ParseUint(d, 10, 32)
		if err != nil {
			log.Fatalf("Invalid SOURCE_DOMAIN: %v", err)
		}
		sourceDomain = uint32(parsed)
	}

	// Initialize logger
	zapLogger, _ := zap.NewDevelopment()

	client := attestation.NewClient(attestation.Config{
		BaseURL:     os.Getenv("IRIS_API_URL"),
		Environment: environment,
		Timeout:     30 * time.Second,
	}, zapLogger)

	ctx := context.Background()

	// Test oracle reachability
	fmt.Println("Testing Iris API reachability...")
	keys, err := client.GetPublicKeys(ctx)
	if err != nil {
		log.Printf("Public keys lookup failed: %v", err)
		return
	}
	fmt.Printf("✓ Iris API reachable (%d signing keys published)\n", len(keys.Keys))

	// Test the fee schedule for the Ethereum -> Solana route
	fmt.Println("\nTesting fee schedule...")
	fees, err := client.GetFees(ctx, sourceDomain, cctp.DomainSolana)
	if err != nil {
		log.Printf("Fee schedule lookup failed: %v", err)
	} else {
		fmt.Printf("✓ Fee schedule retrieved (%d entries):\n", len(fees))
		for _, entry := range fees {
			fmt.Printf("  finality threshold %d: %d bps minimum\n", entry.FinalityThreshold, entry.MinimumFee)
		}
	}

	// Test message lookup for a known burn, if one was provided
	if txHash := os.Getenv("BURN_TX_HASH"); txHash != "" {
		fmt.Println("\nTesting message lookup...")
		messages, err := client.GetMessages(ctx, sourceDomain, txHash)
		if err != nil {
			log.Printf("Message lookup failed: %v", err)
		} else {
			for _, msg := range messages {
				fmt.Printf("✓ Message found:\n")
				fmt.Printf("  Status: %s\n", msg.Status)
				fmt.Printf("  Ready: %v\n", msg.Ready())
			}
		}
	}

	// Test Solana RPC health
	if rpcURL := os.Getenv("SOLANA_RPC_URL"); rpcURL != "" {
		fmt.Println("\nTesting Solana RPC...")
		solana := receive.NewRPCClient(rpcURL)
		if err := solana.Health(ctx); err != nil {
			log.Printf("Solana RPC health check failed: %v", err)
			return
		}
		blockhash, err := solana.LatestBlockhash(ctx)
		if err != nil {
			log.Printf("Latest blockhash lookup failed: %v", err)
			return
		}
		fmt.Printf("✓ Solana RPC healthy (latest blockhash %s)\n", blockhash)
	}

	fmt.Println("\n🎉 Connectivity test completed successfully!")
}
