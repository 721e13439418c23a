package core

import "time"

// State is the lifecycle state of an artifact. States only move forward:
// draft -> generated -> finalized -> shared.
type State string

const (
	StateDraft     State = "draft"
	StateGenerated State = "generated"
	StateFinalized State = "finalized"
	StateShared    State = "shared"
)

// Order returns the position of the state in the lifecycle. Unknown states
// order before draft.
func (s State) Order() int {
	switch s {
	case StateDraft:
		return 1
	case StateGenerated:
		return 2
	case StateFinalized:
		return 3
	case StateShared:
		return 4
	}
	return 0
}

// Valid reports whether s is one of the four lifecycle states.
func (s State) Valid() bool {
	return s.Order() > 0
}

// CanTransition reports whether a single forward step from s to next is
// allowed. Skipping states or moving backward is never allowed.
func (s State) CanTransition(next State) bool {
	return s.Valid() && next.Valid() && next.Order() == s.Order()+1
}

// Frozen reports whether the artifact content is immutable in this state.
func (s State) Frozen() bool {
	return s == StateFinalized || s == StateShared
}

// Artifact is the content unit (a caption plus an optional image reference)
// that a wallet owns and drives through the lifecycle. Caption and ImageRef
// are mutable only while the state is draft or generated; ArtifactHash is
// computed exactly once, at finalization, and never changes afterwards.
type Artifact struct {
	ID           string    `json:"campaignId"`
	OwnerAddress string    `json:"ownerAddress"`
	State        State     `json:"state"`
	Caption      string    `json:"caption"`
	CaptionHash  string    `json:"captionHash"`
	ImageRef     string    `json:"imageUrl,omitempty"`
	ArtifactHash string    `json:"artifactHash,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
	FinalizedAt  time.Time `json:"finalizedAt,omitempty"`
}

// SharePayload is the public, frozen view of a finalized artifact.
type SharePayload struct {
	CampaignID   string    `json:"campaignId"`
	Caption      string    `json:"caption"`
	ImageURL     string    `json:"imageUrl,omitempty"`
	CaptionHash  string    `json:"captionHash"`
	ArtifactHash string    `json:"artifactHash"`
	PublicURL    string    `json:"publicUrl"`
	CreatedAt    time.Time `json:"createdAt"`
	Frozen       bool      `json:"frozen"`
}
