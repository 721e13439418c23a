package ports

import (
	"context"

	"github.com/veristamp/veristamp/core"
)

// EventPublisher notifies other instances and downstream consumers about
// domain milestones. Publish failures never fail the triggering operation.
type EventPublisher interface {
	PublishArtifactFinalized(ctx context.Context, artifact *core.Artifact) error
	PublishProofRecorded(ctx context.Context, proof *core.Proof) error
	PublishLogout(ctx context.Context, address, refreshID string) error
}
