package service

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veristamp/veristamp/core"
	"github.com/veristamp/veristamp/siwe"
)

func TestGuardVerifySession(t *testing.T) {
	g := newTestGuard()
	w := newWallet(t)

	sess := w.signedSession(t, 10)
	assert.NoError(t, g.VerifySession(sess, w.address))

	// The expected caller compares case-insensitively.
	assert.NoError(t, g.VerifySession(sess, strings.ToLower(w.address)))
}

func TestGuardVerifySessionNil(t *testing.T) {
	g := newTestGuard()
	assert.ErrorIs(t, g.VerifySession(nil, "0xabc"), core.ErrSessionRequired)
}

func TestGuardVerifySessionTamperedSignedString(t *testing.T) {
	g := newTestGuard()
	w := newWallet(t)

	sess := w.signedSession(t, 10)
	sess.Signed += "\nsmuggled line"
	assert.ErrorIs(t, g.VerifySession(sess, w.address), core.ErrMalformedMessage)
}

func TestGuardVerifySessionTamperedMessage(t *testing.T) {
	g := newTestGuard()
	w := newWallet(t)

	// Changing the message after signing leaves the signature over a string
	// that no longer matches the canonical form.
	sess := w.signedSession(t, 10)
	sess.Message.Nonce = "forged-nonce-value"
	assert.ErrorIs(t, g.VerifySession(sess, w.address), core.ErrMalformedMessage)
}

func TestGuardVerifySessionWrongSigner(t *testing.T) {
	g := newTestGuard()
	w := newWallet(t)
	other := newWallet(t)

	// other signs a message that claims w's address.
	nonce, err := siwe.GenerateNonce()
	require.NoError(t, err)
	msg, err := siwe.NewMessage(w.address, testSiweConfig.ChainID, nonce,
		"Sign in to attest your campaign.", testSiweConfig.Domain, testSiweConfig.URI, 10, nil)
	require.NoError(t, err)
	sess := other.sign(t, msg)

	assert.ErrorIs(t, g.VerifySession(sess, w.address), core.ErrInvalidSignature)
}

func TestGuardVerifySessionForeignAddress(t *testing.T) {
	g := newTestGuard()
	w := newWallet(t)
	other := newWallet(t)

	assert.ErrorIs(t, g.VerifySession(w.signedSession(t, 10), other.address), core.ErrAddressMismatch)
}

func TestGuardVerifySessionWrongContext(t *testing.T) {
	g := newTestGuard()
	w := newWallet(t)

	nonce, err := siwe.GenerateNonce()
	require.NoError(t, err)

	msg, err := siwe.NewMessage(w.address, testSiweConfig.ChainID, nonce,
		"Sign in to attest your campaign.", "evil.example", "https://evil.example", 10, nil)
	require.NoError(t, err)
	assert.ErrorIs(t, g.VerifySession(w.sign(t, msg), w.address), core.ErrDomainMismatch)

	msg, err = siwe.NewMessage(w.address, 137, nonce,
		"Sign in to attest your campaign.", testSiweConfig.Domain, testSiweConfig.URI, 10, nil)
	require.NoError(t, err)
	assert.ErrorIs(t, g.VerifySession(w.sign(t, msg), w.address), core.ErrChainMismatch)
}

func TestGuardVerifySessionExpired(t *testing.T) {
	g := newTestGuard()
	w := newWallet(t)

	past := time.Now().UTC().Add(-time.Minute).Truncate(time.Second)
	msg := core.SiweMessage{
		Domain:         testSiweConfig.Domain,
		Address:        w.address,
		Statement:      "Sign in to attest your campaign.",
		URI:            testSiweConfig.URI,
		Version:        siwe.Version,
		ChainID:        testSiweConfig.ChainID,
		Nonce:          "expired-session-nonce",
		IssuedAt:       past.Add(-time.Hour),
		ExpirationTime: &past,
	}
	assert.ErrorIs(t, g.VerifySession(w.sign(t, msg), w.address), core.ErrExpiredMessage)
}

func TestGuardAuthorize(t *testing.T) {
	g := newTestGuard()
	w := newWallet(t)

	// Address-only auth is enough without a session.
	assert.NoError(t, g.Authorize(w.address, strings.ToUpper(w.address), nil))
	assert.ErrorIs(t, g.Authorize(w.address, newWallet(t).address, nil), core.ErrNotOwner)

	// A supplied session must verify; it cannot be silently ignored.
	sess := w.signedSession(t, 10)
	assert.NoError(t, g.Authorize(w.address, w.address, sess))
	sess.Signature = "0x00"
	assert.Error(t, g.Authorize(w.address, w.address, sess))
}

func TestGuardAuthorizeHard(t *testing.T) {
	g := newTestGuard()
	w := newWallet(t)

	assert.ErrorIs(t, g.AuthorizeHard(w.address, w.address, nil), core.ErrSessionRequired)
	assert.NoError(t, g.AuthorizeHard(w.address, w.address, w.signedSession(t, 10)))
	assert.ErrorIs(t, g.AuthorizeHard(w.address, newWallet(t).address, w.signedSession(t, 10)), core.ErrNotOwner)
}
