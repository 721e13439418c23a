// Package siwe constructs, formats, parses and validates Sign-In With
// Ethereum challenge messages. FormatMessage produces the exact byte
// sequence a wallet signs; ParseMessage is its strict structural inverse.
package siwe

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/veristamp/veristamp/core"
)

// Version is the only SIWE message version this package emits.
const Version = "1"

const preambleSuffix = " wants you to sign in with your Ethereum account:"

// GenerateNonce returns a fresh cryptographically random nonce (32 bytes,
// base64url). A nonce must never be reused across messages.
func GenerateNonce() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// NewMessage builds a SIWE message. expirationMinutes of zero means the
// message never expires; a negative value is rejected. The statement must
// be a single line, since the canonical layout is line-oriented.
func NewMessage(address string, chainID int, nonce, statement, domain, uri string, expirationMinutes int, resources []string) (core.SiweMessage, error) {
	if !common.IsHexAddress(address) || !strings.HasPrefix(address, "0x") {
		return core.SiweMessage{}, fmt.Errorf("address %q: %w", address, core.ErrMalformedMessage)
	}
	if domain == "" || uri == "" {
		return core.SiweMessage{}, fmt.Errorf("domain and uri are required: %w", core.ErrMalformedMessage)
	}
	// Every rejected shape here is one ParseMessage cannot read back:
	// the canonical layout is line-oriented and the preamble keys off the
	// first space after the domain.
	if strings.ContainsAny(domain, " \n\r") {
		return core.SiweMessage{}, fmt.Errorf("domain must not contain spaces or line breaks: %w", core.ErrMalformedMessage)
	}
	if strings.ContainsAny(uri, "\n\r") {
		return core.SiweMessage{}, fmt.Errorf("uri must be a single line: %w", core.ErrMalformedMessage)
	}
	if nonce == "" {
		return core.SiweMessage{}, core.ErrInvalidNonce
	}
	if strings.ContainsAny(nonce, "\n\r") {
		return core.SiweMessage{}, fmt.Errorf("nonce must be a single line: %w", core.ErrInvalidNonce)
	}
	if strings.ContainsAny(statement, "\n\r") {
		return core.SiweMessage{}, fmt.Errorf("statement must be a single line: %w", core.ErrMalformedMessage)
	}
	if expirationMinutes < 0 {
		return core.SiweMessage{}, fmt.Errorf("expiration minutes must be positive: %w", core.ErrMalformedMessage)
	}
	for _, r := range resources {
		if r == "" || strings.ContainsAny(r, "\n\r") {
			return core.SiweMessage{}, fmt.Errorf("resource %q must be a non-empty single line: %w", r, core.ErrMalformedMessage)
		}
	}
	if len(resources) == 0 {
		// An empty slice formats identically to nil; keep one canonical form
		// so formatting and re-parsing reproduce the original message.
		resources = nil
	}

	msg := core.SiweMessage{
		Domain:    domain,
		Address:   address,
		Statement: statement,
		URI:       uri,
		Version:   Version,
		ChainID:   chainID,
		Nonce:     nonce,
		IssuedAt:  time.Now().UTC().Truncate(time.Second),
		Resources: resources,
	}
	if expirationMinutes > 0 {
		exp := msg.IssuedAt.Add(time.Duration(expirationMinutes) * time.Minute)
		msg.ExpirationTime = &exp
	}
	return msg, nil
}

// FormatMessage renders the canonical line-oriented serialization. Two
// calls with identical input produce byte-identical output; this string is
// exactly what gets signed and later re-verified.
func FormatMessage(msg core.SiweMessage) string {
	var b strings.Builder

	b.WriteString(msg.Domain)
	b.WriteString(preambleSuffix)
	b.WriteString("\n")
	b.WriteString(msg.Address)
	b.WriteString("\n\n")
	b.WriteString(msg.Statement)
	b.WriteString("\n\n")
	b.WriteString("URI: " + msg.URI + "\n")
	b.WriteString("Version: " + msg.Version + "\n")
	b.WriteString("Chain ID: " + strconv.Itoa(msg.ChainID) + "\n")
	b.WriteString("Nonce: " + msg.Nonce + "\n")
	b.WriteString("Issued At: " + msg.IssuedAt.UTC().Format(time.RFC3339))

	if msg.ExpirationTime != nil {
		b.WriteString("\nExpiration Time: " + msg.ExpirationTime.UTC().Format(time.RFC3339))
	}
	if len(msg.Resources) > 0 {
		b.WriteString("\nResources:")
		for _, r := range msg.Resources {
			b.WriteString("\n- " + r)
		}
	}
	return b.String()
}
