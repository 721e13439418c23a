package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/veristamp/veristamp/core"
	"github.com/veristamp/veristamp/ports"
	"github.com/veristamp/veristamp/siwe"
)

// SiweConfig is the server's expected SIWE context: every presented
// message must have been issued for this domain, uri and chain.
type SiweConfig struct {
	Domain  string
	URI     string
	ChainID int
}

// Guard decides whether a caller may act on a resource. Operations come in
// three tiers: reads need nothing, drafting takes an optional session, and
// irreversible actions (finalize, proof record) demand a verified session.
type Guard struct {
	verifier ports.SignatureVerifier
	cfg      SiweConfig
	now      func() time.Time
}

// NewGuard creates an ownership guard.
func NewGuard(verifier ports.SignatureVerifier, cfg SiweConfig) *Guard {
	return &Guard{verifier: verifier, cfg: cfg, now: time.Now}
}

// VerifySession validates the SIWE message against the server context and
// the expected caller, then checks the signature over the canonical
// formatted string.
func (g *Guard) VerifySession(sess *core.SiweSession, expectedAddress string) error {
	if sess == nil {
		return core.ErrSessionRequired
	}

	formatted := siwe.FormatMessage(sess.Message)
	if sess.Signed != "" && sess.Signed != formatted {
		// The string claimed to be signed must be re-derivable from the
		// message, byte for byte.
		return core.ErrMalformedMessage
	}

	if err := siwe.Validate(sess.Message, expectedAddress, g.cfg.ChainID, g.cfg.Domain, g.now()); err != nil {
		return err
	}

	ok, err := g.verifier.Verify(formatted, sess.Signature, sess.Message.Address)
	if err != nil {
		return fmt.Errorf("%w: %v", core.ErrInvalidSignature, err)
	}
	if !ok {
		return core.ErrInvalidSignature
	}
	return nil
}

// Authorize allows the call when caller matches the resource owner
// (addresses compare case-insensitively). A supplied session must also
// verify; callers cannot upgrade an invalid session to address-only auth.
func (g *Guard) Authorize(ownerAddress, callerAddress string, sess *core.SiweSession) error {
	if !strings.EqualFold(ownerAddress, callerAddress) {
		return core.ErrNotOwner
	}
	if sess != nil {
		return g.VerifySession(sess, callerAddress)
	}
	return nil
}

// AuthorizeHard is the hard-auth tier: a valid session is mandatory.
func (g *Guard) AuthorizeHard(ownerAddress, callerAddress string, sess *core.SiweSession) error {
	if sess == nil {
		return core.ErrSessionRequired
	}
	return g.Authorize(ownerAddress, callerAddress, sess)
}
