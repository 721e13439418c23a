// Package verifier implements signature recovery for EIP-191
// personal_sign payloads, which is how wallets sign SIWE messages.
package verifier

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/veristamp/veristamp/ports"
)

// EthVerifier recovers the signer of a personal_sign signature and
// compares it to the claimed address. It never interprets the message.
type EthVerifier struct{}

// NewEthVerifier creates the go-ethereum backed verifier.
func NewEthVerifier() ports.SignatureVerifier {
	return &EthVerifier{}
}

// Verify reports whether signature over message was produced by address.
func (v *EthVerifier) Verify(message, signature, address string) (bool, error) {
	sig, err := hexutil.Decode(signature)
	if err != nil {
		return false, fmt.Errorf("failed to decode signature: %w", err)
	}
	if len(sig) != 65 {
		return false, fmt.Errorf("signature must be 65 bytes, got %d", len(sig))
	}

	// Wallets emit V as 27/28; crypto.SigToPub expects 0/1.
	if sig[64] >= 27 {
		sig = append([]byte(nil), sig...)
		sig[64] -= 27
	}

	prefixed := fmt.Sprintf("\x19Ethereum Signed Message:\n%d%s", len(message), message)
	hash := crypto.Keccak256Hash([]byte(prefixed))

	pubKey, err := crypto.SigToPub(hash.Bytes(), sig)
	if err != nil {
		return false, fmt.Errorf("failed to recover public key: %w", err)
	}

	recovered := crypto.PubkeyToAddress(*pubKey)
	return strings.EqualFold(recovered.Hex(), address), nil
}
