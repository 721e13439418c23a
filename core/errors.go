package core

import (
	"errors"
	"fmt"
)

// Authentication failures. Callers only learn the category, never which
// internal check tripped.
var (
	ErrInvalidSignature = errors.New("invalid signature")
	ErrExpiredMessage   = errors.New("message has expired")
	ErrDomainMismatch   = errors.New("domain mismatch")
	ErrChainMismatch    = errors.New("chain id mismatch")
	ErrAddressMismatch  = errors.New("address mismatch")
	ErrMalformedMessage = errors.New("malformed sign-in message")
	ErrInvalidNonce     = errors.New("invalid nonce")
	ErrSessionRequired  = errors.New("signed session required")
)

// Authorization failures.
var ErrNotOwner = errors.New("caller is not the resource owner")

// Session token failures.
var (
	ErrTokenExpired     = errors.New("token has expired")
	ErrTokenInvalidated = errors.New("token has been invalidated")
	ErrInvalidToken     = errors.New("invalid token")
)

// Resource failures.
var (
	ErrUnknownCampaign = errors.New("unknown campaign")
	ErrStoreFailure    = errors.New("store operation failed")
)

// ValidationError reports content policy violations. It is recoverable:
// the caller may amend the content and resubmit.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("content policy violations: %v", e.Violations)
}

// StateError reports an attempted transition from a state that does not
// permit it. The resource is unaffected and remains queryable.
type StateError struct {
	Current  State
	Required State
	Message  string
}

func (e *StateError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("invalid transition from %q, must be in %q state", e.Current, e.Required)
}

// ConflictError reports that a proof already exists for the
// (campaign, wallet) pair. From the caller's perspective this is an
// idempotent success: the existing proof id is surfaced.
type ConflictError struct {
	ExistingProofID string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("proof already recorded: %s", e.ExistingProofID)
}

// IsAuthentication reports whether err belongs to the authentication
// category of the taxonomy.
func IsAuthentication(err error) bool {
	for _, target := range []error{
		ErrInvalidSignature, ErrExpiredMessage, ErrDomainMismatch,
		ErrChainMismatch, ErrAddressMismatch, ErrMalformedMessage,
		ErrInvalidNonce, ErrSessionRequired,
		ErrTokenExpired, ErrTokenInvalidated, ErrInvalidToken,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
