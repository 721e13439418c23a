package siwe

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veristamp/veristamp/core"
)

const (
	testAddress = "0xAb5801a7D398351b8bE11C439e05C5B3259aeC9B"
	testDomain  = "veristamp.io"
	testURI     = "https://veristamp.io"
)

func testMessage(t *testing.T, expirationMinutes int, resources []string) core.SiweMessage {
	t.Helper()
	nonce, err := GenerateNonce()
	require.NoError(t, err)

	msg, err := NewMessage(testAddress, 1, nonce, "Sign in to attest your campaign.", testDomain, testURI, expirationMinutes, resources)
	require.NoError(t, err)
	return msg
}

func TestNewMessage(t *testing.T) {
	msg := testMessage(t, 10, nil)

	assert.Equal(t, testAddress, msg.Address)
	assert.Equal(t, "1", msg.Version)
	require.NotNil(t, msg.ExpirationTime)
	assert.True(t, msg.ExpirationTime.After(msg.IssuedAt))
}

func TestNewMessageRejectsBadInput(t *testing.T) {
	nonce, err := GenerateNonce()
	require.NoError(t, err)

	cases := []struct {
		name              string
		address           string
		nonce             string
		statement         string
		domain            string
		expirationMinutes int
	}{
		{"bad address", "not-an-address", nonce, "hi", testDomain, 0},
		{"missing 0x prefix", "Ab5801a7D398351b8bE11C439e05C5B3259aeC9B", nonce, "hi", testDomain, 0},
		{"empty nonce", testAddress, "", "hi", testDomain, 0},
		{"multiline statement", testAddress, nonce, "line one\nline two", testDomain, 0},
		{"empty domain", testAddress, nonce, "hi", "", 0},
		{"domain with space", testAddress, nonce, "hi", "veristamp.io wants", 0},
		{"multiline domain", testAddress, nonce, "hi", "veristamp.io\nevil.example", 0},
		{"multiline nonce", testAddress, nonce + "\nNonce: forged", "hi", testDomain, 0},
		{"negative expiration", testAddress, nonce, "hi", testDomain, -5},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewMessage(tc.address, 1, tc.nonce, tc.statement, tc.domain, testURI, tc.expirationMinutes, nil)
			assert.Error(t, err)
		})
	}
}

func TestNewMessageRejectsBadResources(t *testing.T) {
	nonce, err := GenerateNonce()
	require.NoError(t, err)

	for _, resources := range [][]string{
		{"https://a.example\n- https://smuggled.example"},
		{""},
	} {
		_, err := NewMessage(testAddress, 1, nonce, "hi", testDomain, testURI, 0, resources)
		assert.ErrorIs(t, err, core.ErrMalformedMessage)
	}
}

func TestNewMessageNormalizesEmptyResources(t *testing.T) {
	nonce, err := GenerateNonce()
	require.NoError(t, err)

	// An empty slice and nil format identically, so the constructor keeps
	// the single canonical form and the round trip stays exact.
	msg, err := NewMessage(testAddress, 1, nonce, "hi", testDomain, testURI, 0, []string{})
	require.NoError(t, err)
	assert.Nil(t, msg.Resources)

	parsed, err := ParseMessage(FormatMessage(msg))
	require.NoError(t, err)
	assert.Equal(t, msg, parsed)
}

func TestGenerateNonceIsFresh(t *testing.T) {
	a, err := GenerateNonce()
	require.NoError(t, err)
	b, err := GenerateNonce()
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.GreaterOrEqual(t, len(a), 22, "nonce must carry at least 16 bytes of entropy")
}

func TestFormatMessageLayout(t *testing.T) {
	msg := testMessage(t, 10, []string{"https://veristamp.io/c/abc"})
	formatted := FormatMessage(msg)

	lines := strings.Split(formatted, "\n")
	require.GreaterOrEqual(t, len(lines), 12)
	assert.Equal(t, testDomain+" wants you to sign in with your Ethereum account:", lines[0])
	assert.Equal(t, testAddress, lines[1])
	assert.Empty(t, lines[2])
	assert.Equal(t, "Sign in to attest your campaign.", lines[3])
	assert.Empty(t, lines[4])
	assert.Equal(t, "URI: "+testURI, lines[5])
	assert.Equal(t, "Version: 1", lines[6])
	assert.Equal(t, "Chain ID: 1", lines[7])
	assert.Equal(t, "Nonce: "+msg.Nonce, lines[8])
	assert.True(t, strings.HasPrefix(lines[9], "Issued At: "))
	assert.True(t, strings.HasPrefix(lines[10], "Expiration Time: "))
	assert.Equal(t, "Resources:", lines[11])
	assert.Equal(t, "- https://veristamp.io/c/abc", lines[12])
}

func TestFormatMessageDeterministic(t *testing.T) {
	msg := testMessage(t, 10, nil)
	assert.Equal(t, FormatMessage(msg), FormatMessage(msg))
}

func TestParseFormatRoundTrip(t *testing.T) {
	cases := []struct {
		name              string
		expirationMinutes int
		resources         []string
	}{
		{"minimal", 0, nil},
		{"with expiration", 30, nil},
		{"with resources", 0, []string{"https://a.example", "ipfs://Qm123"}},
		{"full", 15, []string{"https://a.example"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			msg := testMessage(t, tc.expirationMinutes, tc.resources)

			parsed, err := ParseMessage(FormatMessage(msg))
			require.NoError(t, err)
			assert.Equal(t, msg, parsed)
			assert.Equal(t, FormatMessage(msg), FormatMessage(parsed))
		})
	}
}

func TestParseRoundTripEmptyStatement(t *testing.T) {
	nonce, err := GenerateNonce()
	require.NoError(t, err)
	msg, err := NewMessage(testAddress, 137, nonce, "", testDomain, testURI, 0, nil)
	require.NoError(t, err)

	parsed, err := ParseMessage(FormatMessage(msg))
	require.NoError(t, err)
	assert.Equal(t, msg, parsed)
}

func TestParseIgnoresAddressShapedStatement(t *testing.T) {
	// An address-shaped token in the statement must not be picked up as
	// the signing address.
	decoy := "0x1111111111111111111111111111111111111111"
	nonce, err := GenerateNonce()
	require.NoError(t, err)
	msg, err := NewMessage(testAddress, 1, nonce, "Send rewards to "+decoy+" after signing.", testDomain, testURI, 0, nil)
	require.NoError(t, err)

	parsed, err := ParseMessage(FormatMessage(msg))
	require.NoError(t, err)
	assert.Equal(t, testAddress, parsed.Address)
}

func TestParseRejectsMalformed(t *testing.T) {
	valid := FormatMessage(testMessage(t, 10, []string{"https://a.example"}))

	cases := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"too few lines", "veristamp.io wants you to sign in with your Ethereum account:\n0xAb5801a7D398351b8bE11C439e05C5B3259aeC9B"},
		{"bad preamble", strings.Replace(valid, " wants you to sign in", " wishes you to sign in", 1)},
		{"bad address line", strings.Replace(valid, testAddress, "not-an-address", 1)},
		{"bad chain id", strings.Replace(valid, "Chain ID: 1", "Chain ID: one", 1)},
		{"missing nonce prefix", strings.Replace(valid, "Nonce: ", "Nonce ", 1)},
		{"bad issued at", strings.Replace(valid, "Issued At: 2", "Issued At: yesterday 2", 1)},
		{"trailing garbage", valid + "\nextra"},
		{"bad resource line", strings.Replace(valid, "- https://a.example", "* https://a.example", 1)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseMessage(tc.raw)
			require.Error(t, err)
			assert.ErrorIs(t, err, core.ErrMalformedMessage)
		})
	}
}

func TestValidateOrder(t *testing.T) {
	msg := testMessage(t, 10, nil)
	now := time.Now()

	// Address is checked first: even with every other field wrong, the
	// first failure reported is the address mismatch.
	err := Validate(msg, "0x2222222222222222222222222222222222222222", 999, "other.example", now)
	assert.ErrorIs(t, err, core.ErrAddressMismatch)

	err = Validate(msg, msg.Address, 999, "other.example", now)
	assert.ErrorIs(t, err, core.ErrChainMismatch)

	err = Validate(msg, msg.Address, 1, "other.example", now)
	assert.ErrorIs(t, err, core.ErrDomainMismatch)

	assert.NoError(t, Validate(msg, msg.Address, 1, testDomain, now))
}

func TestValidateCaseInsensitiveAddress(t *testing.T) {
	msg := testMessage(t, 10, nil)
	err := Validate(msg, strings.ToLower(msg.Address), 1, testDomain, time.Now())
	assert.NoError(t, err)
}

func TestValidateExpired(t *testing.T) {
	msg := testMessage(t, 10, nil)
	expired := time.Now().Add(-60 * time.Second)
	msg.ExpirationTime = &expired

	err := Validate(msg, msg.Address, 1, testDomain, time.Now())
	assert.ErrorIs(t, err, core.ErrExpiredMessage)
}

func TestValidateNoExpirationNeverExpires(t *testing.T) {
	msg := testMessage(t, 0, nil)
	require.Nil(t, msg.ExpirationTime)

	err := Validate(msg, msg.Address, 1, testDomain, time.Now().Add(24*365*time.Hour))
	assert.NoError(t, err)
}
