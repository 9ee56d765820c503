package fordefi

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
)

// ErrInvalidKey indicates the configured API signer key could not be used.
var ErrInvalidKey = errors.New("invalid API signer key")

// Signer produces the request signatures the Fordefi API verifies against
// the registered API user key. Signatures are ECDSA over P-256, SHA-256
// digest, ASN.1 DER encoded and then base64 encoded.
type Signer struct {
	key *ecdsa.PrivateKey
}

// NewSigner parses a PEM encoded EC private key. Both SEC 1 ("EC PRIVATE
// KEY") and PKCS#8 ("PRIVATE KEY") encodings are accepted.
func NewSigner(pemData []byte) (*Signer, error) {
	block, _ := pem.Decode(pemData)
	if block == nil {
		return nil, fmt.Errorf("%w: no PEM block found", ErrInvalidKey)
	}

	var (
		key *ecdsa.PrivateKey
		err error
	)
	switch block.Type {
	case "EC PRIVATE KEY":
		key, err = x509.ParseECPrivateKey(block.Bytes)
	case "PRIVATE KEY":
		var parsed any
		parsed, err = x509.ParsePKCS8PrivateKey(block.Bytes)
		if err == nil {
			var ok bool
			if key, ok = parsed.(*ecdsa.PrivateKey); !ok {
				return nil, fmt.Errorf("%w: PKCS#8 key is not an EC key", ErrInvalidKey)
			}
		}
	default:
		return nil, fmt.Errorf("%w: unexpected PEM block %q", ErrInvalidKey, block.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}

	if key.Curve != elliptic.P256() {
		return nil, fmt.Errorf("%w: curve %s, want P-256", ErrInvalidKey, key.Curve.Params().Name)
	}

	return &Signer{key: key}, nil
}

// Sign returns the base64 encoded DER signature over the SHA-256 digest
// of payload.
func (s *Signer) Sign(payload []byte) (string, error) {
	digest := sha256.Sum256(payload)
	sig, err := ecdsa.SignASN1(rand.Reader, s.key, digest[:])
	if err != nil {
		return "", fmt.Errorf("sign payload: %w", err)
	}
	return base64.StdEncoding.EncodeToString(sig), nil
}

// PublicKey exposes the verification key, mainly for tests and key
// registration tooling.
func (s *Signer) PublicKey() *ecdsa.PublicKey {
	return &s.key.PublicKey
}
