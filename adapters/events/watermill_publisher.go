package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"

	"github.com/veristamp/veristamp/core"
	"github.com/veristamp/veristamp/ports"
)

// Topics for domain events.
const (
	TopicArtifactFinalized = "veristamp.artifact.finalized"
	TopicProofRecorded     = "veristamp.proof.recorded"
	TopicLogout            = "veristamp.session.logout"
)

// ArtifactFinalizedEvent is published when an artifact freezes.
type ArtifactFinalizedEvent struct {
	CampaignID   string    `json:"campaignId"`
	OwnerAddress string    `json:"ownerAddress"`
	ArtifactHash string    `json:"artifactHash"`
	FinalizedAt  time.Time `json:"finalizedAt"`
}

// ProofRecordedEvent is published when a proof is durably stored.
type ProofRecordedEvent struct {
	ProofID           string    `json:"proofId"`
	CampaignID        string    `json:"campaignId"`
	UserAddress       string    `json:"userAddress"`
	CampaignHash      string    `json:"campaignHash"`
	IntentFingerprint string    `json:"intentFingerprint"`
	Timestamp         time.Time `json:"timestamp"`
}

// LogoutEvent notifies other instances that a refresh token was revoked.
type LogoutEvent struct {
	Address   string `json:"address"`
	RefreshID string `json:"refreshId"`
}

// WatermillPublisher implements the EventPublisher port using Watermill.
type WatermillPublisher struct {
	publisher message.Publisher
}

// NewWatermillPublisher creates a new Watermill publisher.
func NewWatermillPublisher(publisher message.Publisher) ports.EventPublisher {
	return &WatermillPublisher{publisher: publisher}
}

func (p *WatermillPublisher) PublishArtifactFinalized(ctx context.Context, artifact *core.Artifact) error {
	return p.publish(TopicArtifactFinalized, artifact.ID, ArtifactFinalizedEvent{
		CampaignID:   artifact.ID,
		OwnerAddress: artifact.OwnerAddress,
		ArtifactHash: artifact.ArtifactHash,
		FinalizedAt:  artifact.FinalizedAt,
	})
}

func (p *WatermillPublisher) PublishProofRecorded(ctx context.Context, proof *core.Proof) error {
	return p.publish(TopicProofRecorded, proof.ProofID, ProofRecordedEvent{
		ProofID:           proof.ProofID,
		CampaignID:        proof.CampaignID,
		UserAddress:       proof.UserAddress,
		CampaignHash:      proof.CampaignHash,
		IntentFingerprint: proof.IntentFingerprint,
		Timestamp:         proof.Timestamp,
	})
}

func (p *WatermillPublisher) PublishLogout(ctx context.Context, address, refreshID string) error {
	return p.publish(TopicLogout, refreshID, LogoutEvent{
		Address:   address,
		RefreshID: refreshID,
	})
}

func (p *WatermillPublisher) publish(topic, id string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if id == "" {
		id = uuid.New().String()
	}

	msg := message.NewMessage(id, payload)
	if err := p.publisher.Publish(topic, msg); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

// NopPublisher discards all events. Used in tests and when no broker is
// configured.
type NopPublisher struct{}

func (NopPublisher) PublishArtifactFinalized(context.Context, *core.Artifact) error { return nil }
func (NopPublisher) PublishProofRecorded(context.Context, *core.Proof) error        { return nil }
func (NopPublisher) PublishLogout(context.Context, string, string) error            { return nil }
