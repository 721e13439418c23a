package verifier

import (
	"fmt"
	"testing"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signPersonal(t *testing.T, message string) (signature, address string) {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	prefixed := fmt.Sprintf("\x19Ethereum Signed Message:\n%d%s", len(message), message)
	hash := crypto.Keccak256Hash([]byte(prefixed))

	sig, err := crypto.Sign(hash.Bytes(), key)
	require.NoError(t, err)
	sig[64] += 27 // wallet-style recovery id

	return hexutil.Encode(sig), crypto.PubkeyToAddress(key.PublicKey).Hex()
}

func TestVerifyRecoversSigner(t *testing.T) {
	v := NewEthVerifier()
	message := "veristamp.io wants you to sign in with your Ethereum account:"

	sig, addr := signPersonal(t, message)

	ok, err := v.Verify(message, sig, addr)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestVerifyAddressCaseInsensitive(t *testing.T) {
	v := NewEthVerifier()
	sig, addr := signPersonal(t, "hello")

	ok, err := v.Verify("hello", sig, "0x"+lower(addr[2:]))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestVerifyRejectsWrongSigner(t *testing.T) {
	v := NewEthVerifier()
	sig, _ := signPersonal(t, "hello")

	ok, err := v.Verify("hello", sig, "0x1111111111111111111111111111111111111111")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerifyRejectsTamperedMessage(t *testing.T) {
	v := NewEthVerifier()
	sig, addr := signPersonal(t, "hello")

	ok, err := v.Verify("hello, tampered", sig, addr)
	if err == nil {
		assert.False(t, ok)
	}
}

func TestVerifyRejectsGarbageSignature(t *testing.T) {
	v := NewEthVerifier()

	_, err := v.Verify("hello", "not-hex", "0x1111111111111111111111111111111111111111")
	assert.Error(t, err)

	_, err = v.Verify("hello", "0xdeadbeef", "0x1111111111111111111111111111111111111111")
	assert.Error(t, err)
}

func lower(s string) string {
	out := []rune(s)
	for i, r := range out {
		if r >= 'A' && r <= 'F' {
			out[i] = r + ('a' - 'A')
		}
	}
	return string(out)
}
