package ports

import (
	"context"
	"time"
)

// NonceStore holds server-issued SIWE nonces for one-time use. A nonce is
// written at challenge time with a TTL and consumed exactly once at login.
type NonceStore interface {
	SaveNonce(ctx context.Context, address, nonce string, ttl time.Duration) error

	// ConsumeNonce atomically checks and deletes the nonce for address.
	// It returns false when the nonce is missing, expired or different.
	ConsumeNonce(ctx context.Context, address, nonce string) (bool, error)
}

// TokenStore tracks revoked refresh token IDs until their natural expiry.
type TokenStore interface {
	InvalidateToken(ctx context.Context, tokenID string, expiry time.Duration) error
	IsTokenInvalidated(ctx context.Context, tokenID string) (bool, error)
}
