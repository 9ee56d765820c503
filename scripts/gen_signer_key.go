//go:build ignore

package main

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"log"
	"os"
)

// Generates a fresh P-256 keypair for registration as a Fordefi API signer.
// The private key PEM goes into the courier's secrets (FORDEFI_PRIVATE_KEY_PEM),
// the public key PEM gets uploaded to the Fordefi workspace.
func main() {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		log.Fatalf("Failed to generate key: %v", err)
	}

	privDER, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		log.Fatalf("Failed to marshal private key: %v", err)
	}
	pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		log.Fatalf("Failed to marshal public key: %v", err)
	}

	fmt.Println("Private key (keep this in your secrets store):")
	pem.Encode(os.Stdout, &pem.Block{Type: "EC PRIVATE KEY", Bytes: privDER})

	fmt.Println("\nPublic key (upload to the Fordefi workspace):")
	pem.Encode(os.Stdout, &pem.Block{Type: "PUBLIC KEY", Bytes: pubDER})
}
