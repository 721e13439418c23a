package ports

import (
	"context"
	"errors"

	"github.com/veristamp/veristamp/core"
)

// Store-level sentinel errors. Adapters translate driver errors into these
// so services never see driver detail.
var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateProof is returned when the uniqueness constraint on
	// (campaign_id, user_address) rejects an insert. The constraint, not
	// the application pre-check, is the correctness mechanism.
	ErrDuplicateProof = errors.New("proof already exists")

	// ErrStaleState is returned when a conditional state update matched no
	// row, meaning the artifact moved under the caller.
	ErrStaleState = errors.New("artifact state changed concurrently")
)

// ArtifactStore persists artifacts. Transitions are conditional on the
// caller's observed state so racing transitions serialize at the store.
type ArtifactStore interface {
	CreateArtifact(ctx context.Context, a *core.Artifact) error
	GetArtifact(ctx context.Context, id string) (*core.Artifact, error)

	// UpdateContent writes caption, captionHash and imageRef, moving the
	// artifact to a.State only if the stored state is still fromState.
	UpdateContent(ctx context.Context, a *core.Artifact, fromState core.State) error

	// Transition moves the artifact from one state to the next, persisting
	// any hash fields set on a. Fails with ErrStaleState if the stored
	// state is no longer fromState.
	Transition(ctx context.Context, a *core.Artifact, fromState core.State) error
}

// ProofStore persists proofs append-only.
type ProofStore interface {
	CreateProof(ctx context.Context, p *core.Proof) error
	FindProof(ctx context.Context, campaignID, userAddress string) (*core.Proof, error)
	ListProofs(ctx context.Context, campaignID, userAddress string) ([]core.Proof, error)
	ProofStats(ctx context.Context, userAddress string) (*core.ProofStats, error)
}
