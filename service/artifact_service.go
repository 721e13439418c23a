package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/veristamp/veristamp/core"
	"github.com/veristamp/veristamp/policy"
	"github.com/veristamp/veristamp/ports"
)

// ArtifactService owns the artifact lifecycle: draft -> generated ->
// finalized -> shared. Content is mutable only before finalization; the
// artifact hash is computed exactly once, at the generated -> finalized
// transition.
type ArtifactService struct {
	store     ports.ArtifactStore
	guard     *Guard
	policy    *policy.Engine
	eventPub  ports.EventPublisher
	publicURL string
}

// NewArtifactService creates the artifact service. publicURL is the base
// under which share payloads are addressed.
func NewArtifactService(store ports.ArtifactStore, guard *Guard, engine *policy.Engine, eventPub ports.EventPublisher, publicURL string) *ArtifactService {
	return &ArtifactService{
		store:     store,
		guard:     guard,
		policy:    engine,
		eventPub:  eventPub,
		publicURL: strings.TrimSuffix(publicURL, "/"),
	}
}

// Create opens a new artifact in draft state for ownerAddress.
func (s *ArtifactService) Create(ctx context.Context, id, ownerAddress string) (*core.Artifact, error) {
	if id == "" || ownerAddress == "" {
		return nil, fmt.Errorf("campaign id and owner address are required: %w", core.ErrMalformedMessage)
	}
	now := time.Now().UTC()
	artifact := &core.Artifact{
		ID:           id,
		OwnerAddress: strings.ToLower(ownerAddress),
		State:        core.StateDraft,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.CreateArtifact(ctx, artifact); err != nil {
		return nil, fmt.Errorf("failed to create artifact: %w", err)
	}
	return artifact, nil
}

// Generate runs the content policy over rawCaption and, when it passes,
// stores the amended caption and moves the artifact to generated. Soft
// auth: a session is optional, but one that is supplied must verify.
// Policy violations leave the artifact in its current state.
func (s *ArtifactService) Generate(ctx context.Context, id, rawCaption string, targetDApps []string, caller string, sess *core.SiweSession) (*core.Artifact, error) {
	artifact, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.guard.Authorize(artifact.OwnerAddress, caller, sess); err != nil {
		return nil, err
	}

	if artifact.State != core.StateDraft && artifact.State != core.StateGenerated {
		return nil, &core.StateError{Current: artifact.State, Required: core.StateDraft}
	}

	caption := s.policy.Sanitize(rawCaption)
	if result := s.policy.Validate(caption); !result.Valid {
		return nil, &core.ValidationError{Violations: result.Violations}
	}
	caption = s.policy.Inject(caption, targetDApps)

	fromState := artifact.State
	artifact.Caption = caption
	artifact.CaptionHash = core.CaptionHash(caption)
	artifact.State = core.StateGenerated
	artifact.UpdatedAt = time.Now().UTC()

	if err := s.store.UpdateContent(ctx, artifact, fromState); err != nil {
		return nil, fmt.Errorf("failed to store generated content: %w", err)
	}
	return artifact, nil
}

// Finalize freezes the artifact. Hard auth: the caller must present a
// verified session matching the owner. Not idempotent: finalizing twice
// fails, because the artifact hash must be computed exactly once from a
// known transition.
func (s *ArtifactService) Finalize(ctx context.Context, id, imageRef, caller string, sess *core.SiweSession) (*core.Artifact, error) {
	artifact, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.guard.AuthorizeHard(artifact.OwnerAddress, caller, sess); err != nil {
		return nil, err
	}

	if artifact.State != core.StateGenerated {
		return nil, &core.StateError{
			Current:  artifact.State,
			Required: core.StateGenerated,
			Message:  fmt.Sprintf("Cannot finalize campaign in %s state. Must be in 'generated' state.", artifact.State),
		}
	}

	if imageRef != "" {
		artifact.ImageRef = imageRef
	}
	now := time.Now().UTC()
	artifact.ArtifactHash = core.ArtifactHash(artifact.Caption, artifact.ImageRef)
	artifact.State = core.StateFinalized
	artifact.FinalizedAt = now
	artifact.UpdatedAt = now

	if err := s.store.Transition(ctx, artifact, core.StateGenerated); err != nil {
		return nil, fmt.Errorf("failed to finalize artifact: %w", err)
	}

	if err := s.eventPub.PublishArtifactFinalized(ctx, artifact); err != nil {
		// The artifact is already frozen; losing the notification is not
		// worth failing the call over.
		log.Printf("warning: failed to publish finalized event for %s: %v", artifact.ID, err)
	}
	return artifact, nil
}

// VerifyResult reports an artifact hash check.
type VerifyResult struct {
	Valid          bool   `json:"valid"`
	CalculatedHash string `json:"calculatedHash"`
	ProvidedHash   string `json:"providedHash"`
	Status         string `json:"status"`
}

// Verify recomputes the hash from the artifact's current (frozen) fields
// and compares it to providedHash. Read-only; it cannot fail the artifact.
func (s *ArtifactService) Verify(ctx context.Context, id, providedHash string) (*VerifyResult, error) {
	artifact, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	calculated := core.ArtifactHash(artifact.Caption, artifact.ImageRef)
	valid := strings.EqualFold(calculated, providedHash)
	status := "mismatch"
	if valid {
		status = "verified"
	}
	return &VerifyResult{
		Valid:          valid,
		CalculatedHash: calculated,
		ProvidedHash:   providedHash,
		Status:         status,
	}, nil
}

// SharePayload returns the public frozen view. Only finalized or shared
// artifacts have one.
func (s *ArtifactService) SharePayload(ctx context.Context, id string) (*core.SharePayload, error) {
	artifact, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !artifact.State.Frozen() {
		return nil, &core.StateError{Current: artifact.State, Required: core.StateFinalized}
	}
	return &core.SharePayload{
		CampaignID:   artifact.ID,
		Caption:      artifact.Caption,
		ImageURL:     artifact.ImageRef,
		CaptionHash:  artifact.CaptionHash,
		ArtifactHash: artifact.ArtifactHash,
		PublicURL:    fmt.Sprintf("%s/c/%s", s.publicURL, artifact.ID),
		CreatedAt:    artifact.CreatedAt,
		Frozen:       true,
	}, nil
}

// Get loads an artifact.
func (s *ArtifactService) Get(ctx context.Context, id string) (*core.Artifact, error) {
	return s.load(ctx, id)
}

func (s *ArtifactService) load(ctx context.Context, id string) (*core.Artifact, error) {
	artifact, err := s.store.GetArtifact(ctx, id)
	if errors.Is(err, ports.ErrNotFound) {
		return nil, core.ErrUnknownCampaign
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrStoreFailure, err)
	}
	return artifact, nil
}
