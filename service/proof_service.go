package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"

	"github.com/veristamp/veristamp/core"
	"github.com/veristamp/veristamp/ports"
)

// ProofService records at most one proof per (campaign, wallet) pair. The
// duplicate pre-check is a fast path; the store's uniqueness constraint is
// what makes the guarantee hold under concurrency.
type ProofService struct {
	artifacts ports.ArtifactStore
	proofs    ports.ProofStore
	guard     *Guard
	eventPub  ports.EventPublisher
}

// NewProofService creates the proof recorder.
func NewProofService(artifacts ports.ArtifactStore, proofs ports.ProofStore, guard *Guard, eventPub ports.EventPublisher) *ProofService {
	return &ProofService{
		artifacts: artifacts,
		proofs:    proofs,
		guard:     guard,
		eventPub:  eventPub,
	}
}

// RecordRequest carries a wallet's declared intent for a finalized
// artifact.
type RecordRequest struct {
	CampaignID     string
	UserAddress    string
	IntentCategory string
	TargetDApps    []string
	ActionOrder    []string
	TxHash         string
	Session        *core.SiweSession
}

// Record stores the proof. The session must prove control of the wallet
// being recorded. A duplicate, whether caught by the pre-check or by the
// store constraint, returns a ConflictError carrying the existing proof id.
func (s *ProofService) Record(ctx context.Context, req RecordRequest) (*core.Proof, error) {
	if err := s.guard.AuthorizeHard(req.UserAddress, req.UserAddress, req.Session); err != nil {
		return nil, err
	}

	artifact, err := s.artifacts.GetArtifact(ctx, req.CampaignID)
	if errors.Is(err, ports.ErrNotFound) {
		return nil, core.ErrUnknownCampaign
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrStoreFailure, err)
	}

	if !artifact.State.Frozen() {
		return nil, &core.StateError{
			Current:  artifact.State,
			Required: core.StateFinalized,
			Message:  fmt.Sprintf("Cannot record proof for campaign in %s state. Must be in 'finalized' state.", artifact.State),
		}
	}

	if existing, err := s.proofs.FindProof(ctx, req.CampaignID, req.UserAddress); err == nil {
		return nil, &core.ConflictError{ExistingProofID: existing.ProofID}
	} else if !errors.Is(err, ports.ErrNotFound) {
		return nil, fmt.Errorf("%w: %v", core.ErrStoreFailure, err)
	}

	proof := &core.Proof{
		ProofID:           uuid.New().String(),
		CampaignID:        req.CampaignID,
		UserAddress:       strings.ToLower(req.UserAddress),
		CampaignHash:      core.CampaignHash(req.CampaignID, req.UserAddress, artifact.CaptionHash),
		IntentFingerprint: IntentFingerprint(req.IntentCategory, req.TargetDApps, req.ActionOrder),
		IntentCategory:    req.IntentCategory,
		TargetDApps:       req.TargetDApps,
		ActionOrder:       req.ActionOrder,
		TxHash:            req.TxHash,
		Timestamp:         time.Now().UTC(),
	}

	if err := s.proofs.CreateProof(ctx, proof); err != nil {
		if errors.Is(err, ports.ErrDuplicateProof) {
			// Lost the race: another request committed first. Same outcome
			// as the pre-check hit.
			if existing, ferr := s.proofs.FindProof(ctx, req.CampaignID, req.UserAddress); ferr == nil {
				return nil, &core.ConflictError{ExistingProofID: existing.ProofID}
			}
			return nil, &core.ConflictError{}
		}
		return nil, fmt.Errorf("%w: %v", core.ErrStoreFailure, err)
	}

	s.markShared(ctx, artifact)

	if err := s.eventPub.PublishProofRecorded(ctx, proof); err != nil {
		log.Printf("warning: failed to publish proof event for %s: %v", proof.ProofID, err)
	}
	return proof, nil
}

// markShared drives the finalized -> shared transition after the first
// proof. Losing the conditional update means another proof already drove
// it, which is fine.
func (s *ProofService) markShared(ctx context.Context, artifact *core.Artifact) {
	if artifact.State != core.StateFinalized {
		return
	}
	artifact.State = core.StateShared
	artifact.UpdatedAt = time.Now().UTC()
	if err := s.artifacts.Transition(ctx, artifact, core.StateFinalized); err != nil && !errors.Is(err, ports.ErrStaleState) {
		log.Printf("warning: failed to mark campaign %s shared: %v", artifact.ID, err)
	}
}

// ProofVerifyResult reports the two independent facts a verifier may want:
// whether the provided hash matches the freshly recomputed one, and
// whether a proof row exists at all.
type ProofVerifyResult struct {
	Valid        bool   `json:"valid"`
	ProofExists  bool   `json:"proofExists"`
	ExpectedHash string `json:"expectedHash"`
	ProvidedHash string `json:"providedHash"`
}

// Verify recomputes the campaign hash from current artifact state and
// independently reports proof existence.
func (s *ProofService) Verify(ctx context.Context, campaignID, userAddress, providedHash string) (*ProofVerifyResult, error) {
	artifact, err := s.artifacts.GetArtifact(ctx, campaignID)
	if errors.Is(err, ports.ErrNotFound) {
		return nil, core.ErrUnknownCampaign
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrStoreFailure, err)
	}

	expected := core.CampaignHash(campaignID, userAddress, artifact.CaptionHash)

	exists := true
	if _, err := s.proofs.FindProof(ctx, campaignID, userAddress); errors.Is(err, ports.ErrNotFound) {
		exists = false
	} else if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrStoreFailure, err)
	}

	return &ProofVerifyResult{
		Valid:        strings.EqualFold(expected, providedHash),
		ProofExists:  exists,
		ExpectedHash: expected,
		ProvidedHash: providedHash,
	}, nil
}

// Get lists proofs for a campaign and/or wallet.
func (s *ProofService) Get(ctx context.Context, campaignID, userAddress string) ([]core.Proof, error) {
	proofs, err := s.proofs.ListProofs(ctx, campaignID, userAddress)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrStoreFailure, err)
	}
	return proofs, nil
}

// Stats returns the aggregate proof counts, scoped to userAddress when
// one is given.
func (s *ProofService) Stats(ctx context.Context, userAddress string) (*core.ProofStats, error) {
	stats, err := s.proofs.ProofStats(ctx, userAddress)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrStoreFailure, err)
	}
	return stats, nil
}

// intentPayload is the canonical serialization hashed into the intent
// fingerprint. Target dApps are sorted so the fingerprint is independent
// of selection order; actions keep caller order because sequencing is
// semantically meaningful.
type intentPayload struct {
	Category    string   `json:"category"`
	TargetDApps []string `json:"targetDApps"`
	ActionOrder []string `json:"actionOrder"`
}

// IntentFingerprint computes the 256-bit digest of a declared intent.
func IntentFingerprint(category string, targetDApps, actionOrder []string) string {
	sorted := make([]string, len(targetDApps))
	copy(sorted, targetDApps)
	sort.Strings(sorted)

	payload, _ := json.Marshal(intentPayload{
		Category:    category,
		TargetDApps: sorted,
		ActionOrder: actionOrder,
	})
	return crypto.Keccak256Hash(payload).Hex()
}
