package store

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/veristamp/veristamp/core"
	"github.com/veristamp/veristamp/ports"
)

// MemoryStore is an in-memory implementation of the artifact, proof,
// nonce and token stores. Used in tests and single-node development; the
// uniqueness and conditional-update semantics match the gorm store.
type MemoryStore struct {
	mu sync.RWMutex

	artifacts map[string]core.Artifact
	proofs    map[string]core.Proof // key: campaignID + "\x00" + lower(address)

	nonces            map[string]nonceEntry
	invalidatedTokens map[string]time.Time
}

type nonceEntry struct {
	nonce   string
	expires time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		artifacts:         make(map[string]core.Artifact),
		proofs:            make(map[string]core.Proof),
		nonces:            make(map[string]nonceEntry),
		invalidatedTokens: make(map[string]time.Time),
	}
}

func proofKey(campaignID, userAddress string) string {
	return campaignID + "\x00" + strings.ToLower(userAddress)
}

func (s *MemoryStore) CreateArtifact(ctx context.Context, a *core.Artifact) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.artifacts[a.ID] = *a
	return nil
}

func (s *MemoryStore) GetArtifact(ctx context.Context, id string) (*core.Artifact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.artifacts[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return &a, nil
}

func (s *MemoryStore) UpdateContent(ctx context.Context, a *core.Artifact, fromState core.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.artifacts[a.ID]
	if !ok || stored.State != fromState {
		return ports.ErrStaleState
	}
	stored.State = a.State
	stored.Caption = a.Caption
	stored.CaptionHash = a.CaptionHash
	stored.ImageRef = a.ImageRef
	stored.UpdatedAt = a.UpdatedAt
	s.artifacts[a.ID] = stored
	return nil
}

func (s *MemoryStore) Transition(ctx context.Context, a *core.Artifact, fromState core.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.artifacts[a.ID]
	if !ok || stored.State != fromState {
		return ports.ErrStaleState
	}
	stored.State = a.State
	stored.UpdatedAt = a.UpdatedAt
	if a.ArtifactHash != "" {
		stored.ArtifactHash = a.ArtifactHash
	}
	if a.ImageRef != "" {
		stored.ImageRef = a.ImageRef
	}
	if !a.FinalizedAt.IsZero() {
		stored.FinalizedAt = a.FinalizedAt
	}
	s.artifacts[a.ID] = stored
	return nil
}

func (s *MemoryStore) CreateProof(ctx context.Context, p *core.Proof) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := proofKey(p.CampaignID, p.UserAddress)
	if _, exists := s.proofs[key]; exists {
		return ports.ErrDuplicateProof
	}
	stored := *p
	stored.UserAddress = strings.ToLower(p.UserAddress)
	s.proofs[key] = stored
	return nil
}

func (s *MemoryStore) FindProof(ctx context.Context, campaignID, userAddress string) (*core.Proof, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.proofs[proofKey(campaignID, userAddress)]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return &p, nil
}

func (s *MemoryStore) ListProofs(ctx context.Context, campaignID, userAddress string) ([]core.Proof, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.Proof
	for _, p := range s.proofs {
		if campaignID != "" && p.CampaignID != campaignID {
			continue
		}
		if userAddress != "" && !strings.EqualFold(p.UserAddress, userAddress) {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (s *MemoryStore) ProofStats(ctx context.Context, userAddress string) (*core.ProofStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stats := &core.ProofStats{TotalProofs: int64(len(s.proofs))}
	users := make(map[string]struct{})
	var userCount int64
	for _, p := range s.proofs {
		users[strings.ToLower(p.UserAddress)] = struct{}{}
		if userAddress != "" && strings.EqualFold(p.UserAddress, userAddress) {
			userCount++
		}
	}
	stats.UniqueUsers = int64(len(users))
	if userAddress != "" {
		stats.UserProofs = &userCount
	}
	return stats, nil
}

func (s *MemoryStore) SaveNonce(ctx context.Context, address, nonce string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nonces[strings.ToLower(address)] = nonceEntry{nonce: nonce, expires: time.Now().Add(ttl)}
	return nil
}

func (s *MemoryStore) ConsumeNonce(ctx context.Context, address, nonce string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.ToLower(address)
	entry, ok := s.nonces[key]
	if !ok || entry.nonce != nonce || time.Now().After(entry.expires) {
		return false, nil
	}
	delete(s.nonces, key)
	return true, nil
}

func (s *MemoryStore) InvalidateToken(ctx context.Context, tokenID string, expiry time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invalidatedTokens[tokenID] = time.Now().Add(expiry)
	return nil
}

func (s *MemoryStore) IsTokenInvalidated(ctx context.Context, tokenID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	expiry, ok := s.invalidatedTokens[tokenID]
	if !ok || time.Now().After(expiry) {
		return false, nil
	}
	return true, nil
}
