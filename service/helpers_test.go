package service

import (
	"crypto/ecdsa"
	"fmt"
	"testing"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"

	"github.com/veristamp/veristamp/adapters/verifier"
	"github.com/veristamp/veristamp/core"
	"github.com/veristamp/veristamp/siwe"
)

var testSiweConfig = SiweConfig{
	Domain:  "veristamp.io",
	URI:     "https://veristamp.io",
	ChainID: 1,
}

type testWallet struct {
	key     *ecdsa.PrivateKey
	address string
}

func newWallet(t *testing.T) testWallet {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	return testWallet{key: key, address: crypto.PubkeyToAddress(key.PublicKey).Hex()}
}

// signedSession builds a SIWE message for the wallet and signs its
// canonical form the way a wallet's personal_sign does.
func (w testWallet) signedSession(t *testing.T, expirationMinutes int) *core.SiweSession {
	t.Helper()
	nonce, err := siwe.GenerateNonce()
	require.NoError(t, err)

	msg, err := siwe.NewMessage(w.address, testSiweConfig.ChainID, nonce,
		"Sign in to attest your campaign.", testSiweConfig.Domain, testSiweConfig.URI,
		expirationMinutes, nil)
	require.NoError(t, err)

	return w.sign(t, msg)
}

func (w testWallet) sign(t *testing.T, msg core.SiweMessage) *core.SiweSession {
	t.Helper()
	formatted := siwe.FormatMessage(msg)

	prefixed := fmt.Sprintf("\x19Ethereum Signed Message:\n%d%s", len(formatted), formatted)
	hash := crypto.Keccak256Hash([]byte(prefixed))
	sig, err := crypto.Sign(hash.Bytes(), w.key)
	require.NoError(t, err)
	sig[64] += 27

	return &core.SiweSession{
		Message:   msg,
		Signature: hexutil.Encode(sig),
		Signed:    formatted,
	}
}

func newTestGuard() *Guard {
	return NewGuard(verifier.NewEthVerifier(), testSiweConfig)
}
