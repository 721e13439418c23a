package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/veristamp/veristamp/core"
	"github.com/veristamp/veristamp/ports"
	"github.com/veristamp/veristamp/siwe"
)

// SessionService handles the SIWE sign-in lifecycle: challenge nonces,
// login, token rotation and sign-out. Bearer tokens are a convenience on
// top of SIWE; the artifact and proof services re-verify inline SIWE
// payloads themselves.
type SessionService struct {
	tokenizer ports.Tokenizer
	nonces    ports.NonceStore
	tokens    ports.TokenStore
	guard     *Guard
	eventPub  ports.EventPublisher
	cfg       SiweConfig

	challengeTTL time.Duration
	accessTTL    time.Duration
	refreshTTL   time.Duration
}

// NewSessionService creates a new session service.
func NewSessionService(tokenizer ports.Tokenizer, nonces ports.NonceStore, tokens ports.TokenStore, guard *Guard, eventPub ports.EventPublisher, cfg SiweConfig) *SessionService {
	return &SessionService{
		tokenizer:    tokenizer,
		nonces:       nonces,
		tokens:       tokens,
		guard:        guard,
		eventPub:     eventPub,
		cfg:          cfg,
		challengeTTL: 5 * time.Minute,
		accessTTL:    5 * time.Minute,
		refreshTTL:   5 * 24 * time.Hour, // 5 days
	}
}

// ChallengeResponse carries what the client needs to build the message it
// will sign.
type ChallengeResponse struct {
	Nonce   string `json:"nonce"`
	Domain  string `json:"domain"`
	URI     string `json:"uri"`
	ChainID int    `json:"chainId"`
}

// Challenge issues a fresh one-time nonce for address.
func (s *SessionService) Challenge(ctx context.Context, address string) (*ChallengeResponse, error) {
	nonce, err := siwe.GenerateNonce()
	if err != nil {
		return nil, err
	}
	if err := s.nonces.SaveNonce(ctx, address, nonce, s.challengeTTL); err != nil {
		return nil, fmt.Errorf("failed to store nonce: %w", err)
	}
	return &ChallengeResponse{
		Nonce:   nonce,
		Domain:  s.cfg.Domain,
		URI:     s.cfg.URI,
		ChainID: s.cfg.ChainID,
	}, nil
}

// Login verifies a signed SIWE message, consumes its nonce, and issues an
// access/refresh token pair.
func (s *SessionService) Login(ctx context.Context, rawMessage, signature string) (string, string, error) {
	msg, err := siwe.ParseMessage(rawMessage)
	if err != nil {
		return "", "", err
	}

	sess := &core.SiweSession{Message: msg, Signature: signature, Signed: rawMessage}
	if err := s.guard.VerifySession(sess, msg.Address); err != nil {
		return "", "", err
	}

	// Server-issued nonces are one-time: a replayed message fails here.
	ok, err := s.nonces.ConsumeNonce(ctx, msg.Address, msg.Nonce)
	if err != nil {
		return "", "", fmt.Errorf("failed to check nonce: %w", err)
	}
	if !ok {
		return "", "", core.ErrInvalidNonce
	}

	now := time.Now()
	session := &core.Session{
		ID:            uuid.New().String(),
		Address:       msg.Address,
		IssuedAt:      now,
		AccessExpiry:  now.Add(s.accessTTL),
		RefreshExpiry: now.Add(s.refreshTTL),
		RefreshID:     uuid.New().String(),
	}

	accessToken, err := s.tokenizer.SessionToAccessToken(session)
	if err != nil {
		return "", "", fmt.Errorf("failed to create access token: %w", err)
	}
	refreshToken, err := s.tokenizer.SessionToRefreshToken(session)
	if err != nil {
		return "", "", fmt.Errorf("failed to create refresh token: %w", err)
	}
	return accessToken, refreshToken, nil
}

// Refresh rotates the refresh token and issues a new pair.
func (s *SessionService) Refresh(ctx context.Context, refreshTokenStr string) (string, string, error) {
	session, err := s.tokenizer.RefreshTokenToSession(refreshTokenStr)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", core.ErrInvalidToken, err)
	}

	if time.Now().After(session.RefreshExpiry) {
		return "", "", core.ErrTokenExpired
	}

	invalidated, err := s.tokens.IsTokenInvalidated(ctx, session.RefreshID)
	if err != nil {
		return "", "", fmt.Errorf("failed to check token invalidation: %w", err)
	}
	if invalidated {
		return "", "", core.ErrTokenInvalidated
	}

	// Invalidate the old refresh token for the rest of its lifetime.
	remaining := time.Until(session.RefreshExpiry)
	if err := s.tokens.InvalidateToken(ctx, session.RefreshID, remaining); err != nil {
		return "", "", fmt.Errorf("failed to invalidate old token: %w", err)
	}

	now := time.Now()
	newSession := &core.Session{
		ID:            uuid.New().String(),
		Address:       session.Address,
		IssuedAt:      now,
		AccessExpiry:  now.Add(s.accessTTL),
		RefreshExpiry: now.Add(s.refreshTTL),
		RefreshID:     uuid.New().String(),
	}

	accessToken, err := s.tokenizer.SessionToAccessToken(newSession)
	if err != nil {
		return "", "", fmt.Errorf("failed to create new access token: %w", err)
	}
	refreshToken, err := s.tokenizer.SessionToRefreshToken(newSession)
	if err != nil {
		return "", "", fmt.Errorf("failed to create new refresh token: %w", err)
	}
	return accessToken, refreshToken, nil
}

// Logout invalidates a refresh token. Expired tokens are still recorded
// for a short window so they cannot be replayed under clock skew.
func (s *SessionService) Logout(ctx context.Context, refreshTokenStr string) error {
	session, err := s.tokenizer.RefreshTokenToSession(refreshTokenStr)
	if err != nil {
		return fmt.Errorf("%w: %v", core.ErrInvalidToken, err)
	}

	remaining := time.Until(session.RefreshExpiry)
	if remaining <= 0 {
		remaining = time.Hour
	}
	if err := s.tokens.InvalidateToken(ctx, session.RefreshID, remaining); err != nil {
		return fmt.Errorf("failed to invalidate token: %w", err)
	}

	if err := s.eventPub.PublishLogout(ctx, session.Address, session.RefreshID); err != nil {
		// The token is already invalidated, which is the critical part.
		log.Printf("warning: failed to publish logout event: %v", err)
	}
	return nil
}

// ValidateAccess parses and validates an access token, including the
// revocation state of its linked refresh token.
func (s *SessionService) ValidateAccess(ctx context.Context, accessToken string) (*core.Session, error) {
	session, err := s.tokenizer.AccessTokenToSession(accessToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrInvalidToken, err)
	}

	if time.Now().After(session.AccessExpiry) {
		return nil, core.ErrTokenExpired
	}

	if session.RefreshID != "" {
		invalidated, err := s.tokens.IsTokenInvalidated(ctx, session.RefreshID)
		if err != nil {
			return nil, fmt.Errorf("failed to check token invalidation: %w", err)
		}
		if invalidated {
			return nil, core.ErrTokenInvalidated
		}
	}
	return session, nil
}
