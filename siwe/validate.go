package siwe

import (
	"strings"
	"time"

	"github.com/veristamp/veristamp/core"
)

// Validate checks a message against the expected request context. Checks
// run in a fixed order (address, chain, domain, expiry) and the first
// failure short-circuits.
func Validate(msg core.SiweMessage, expectedAddress string, expectedChainID int, expectedDomain string, now time.Time) error {
	if !strings.EqualFold(msg.Address, expectedAddress) {
		return core.ErrAddressMismatch
	}
	if msg.ChainID != expectedChainID {
		return core.ErrChainMismatch
	}
	if msg.Domain != expectedDomain {
		return core.ErrDomainMismatch
	}
	if msg.ExpirationTime != nil && !msg.ExpirationTime.After(now) {
		return core.ErrExpiredMessage
	}
	return nil
}
