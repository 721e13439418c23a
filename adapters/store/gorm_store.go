package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/veristamp/veristamp/core"
	"github.com/veristamp/veristamp/ports"
)

// artifactRow is the gorm mapping for artifacts.
type artifactRow struct {
	ID           string `gorm:"primaryKey;size:64"`
	OwnerAddress string `gorm:"size:64;not null;index"`
	State        string `gorm:"size:16;not null"`
	Caption      string `gorm:"size:512"`
	CaptionHash  string `gorm:"size:66"`
	ImageRef     string `gorm:"size:512"`
	ArtifactHash string `gorm:"size:66"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
	FinalizedAt  *time.Time
}

func (artifactRow) TableName() string { return "artifacts" }

// proofRow is the gorm mapping for proofs. The composite unique index is
// the correctness mechanism for at-most-one proof per (campaign, wallet);
// the service-level pre-check is only a fast path.
type proofRow struct {
	ProofID           string `gorm:"primaryKey;size:36"`
	CampaignID        string `gorm:"size:64;not null;uniqueIndex:ux_campaign_user,priority:1"`
	UserAddress       string `gorm:"size:64;not null;uniqueIndex:ux_campaign_user,priority:2"`
	CampaignHash      string `gorm:"size:66;not null"`
	IntentFingerprint string `gorm:"size:66;not null"`
	IntentCategory    string `gorm:"size:64;not null"`
	TargetDApps       string `gorm:"type:text"`
	ActionOrder       string `gorm:"type:text"`
	TxHash            string `gorm:"size:128"`
	Timestamp         time.Time
}

func (proofRow) TableName() string { return "proofs" }

// GormStore implements ArtifactStore and ProofStore over a relational
// database.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates the store and migrates its tables.
func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(&artifactRow{}, &proofRow{}); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}
	return &GormStore{db: db}, nil
}

func (s *GormStore) CreateArtifact(ctx context.Context, a *core.Artifact) error {
	row := artifactToRow(a)
	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		return fmt.Errorf("failed to create artifact: %w", err)
	}
	return nil
}

func (s *GormStore) GetArtifact(ctx context.Context, id string) (*core.Artifact, error) {
	var row artifactRow
	err := s.db.WithContext(ctx).First(&row, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ports.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load artifact: %w", err)
	}
	return rowToArtifact(&row), nil
}

func (s *GormStore) UpdateContent(ctx context.Context, a *core.Artifact, fromState core.State) error {
	res := s.db.WithContext(ctx).Model(&artifactRow{}).
		Where("id = ? AND state = ?", a.ID, string(fromState)).
		Updates(map[string]any{
			"state":        string(a.State),
			"caption":      a.Caption,
			"caption_hash": a.CaptionHash,
			"image_ref":    a.ImageRef,
			"updated_at":   a.UpdatedAt,
		})
	return checkConditional(res, fromState)
}

func (s *GormStore) Transition(ctx context.Context, a *core.Artifact, fromState core.State) error {
	updates := map[string]any{
		"state":      string(a.State),
		"updated_at": a.UpdatedAt,
	}
	if a.ArtifactHash != "" {
		updates["artifact_hash"] = a.ArtifactHash
	}
	if a.ImageRef != "" {
		updates["image_ref"] = a.ImageRef
	}
	if !a.FinalizedAt.IsZero() {
		updates["finalized_at"] = a.FinalizedAt
	}
	res := s.db.WithContext(ctx).Model(&artifactRow{}).
		Where("id = ? AND state = ?", a.ID, string(fromState)).
		Updates(updates)
	return checkConditional(res, fromState)
}

func checkConditional(res *gorm.DB, fromState core.State) error {
	if res.Error != nil {
		return fmt.Errorf("failed to update artifact: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("expected state %q: %w", fromState, ports.ErrStaleState)
	}
	return nil
}

func (s *GormStore) CreateProof(ctx context.Context, p *core.Proof) error {
	row, err := proofToRow(p)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		if isDuplicateKey(err) {
			return ports.ErrDuplicateProof
		}
		return fmt.Errorf("failed to create proof: %w", err)
	}
	return nil
}

func (s *GormStore) FindProof(ctx context.Context, campaignID, userAddress string) (*core.Proof, error) {
	var row proofRow
	err := s.db.WithContext(ctx).
		First(&row, "campaign_id = ? AND LOWER(user_address) = LOWER(?)", campaignID, userAddress).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ports.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load proof: %w", err)
	}
	return rowToProof(&row)
}

func (s *GormStore) ListProofs(ctx context.Context, campaignID, userAddress string) ([]core.Proof, error) {
	q := s.db.WithContext(ctx).Model(&proofRow{})
	if campaignID != "" {
		q = q.Where("campaign_id = ?", campaignID)
	}
	if userAddress != "" {
		q = q.Where("LOWER(user_address) = LOWER(?)", userAddress)
	}

	var rows []proofRow
	if err := q.Order("timestamp ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list proofs: %w", err)
	}

	proofs := make([]core.Proof, 0, len(rows))
	for i := range rows {
		p, err := rowToProof(&rows[i])
		if err != nil {
			return nil, err
		}
		proofs = append(proofs, *p)
	}
	return proofs, nil
}

func (s *GormStore) ProofStats(ctx context.Context, userAddress string) (*core.ProofStats, error) {
	stats := &core.ProofStats{}

	if err := s.db.WithContext(ctx).Model(&proofRow{}).Count(&stats.TotalProofs).Error; err != nil {
		return nil, fmt.Errorf("failed to count proofs: %w", err)
	}
	if err := s.db.WithContext(ctx).Model(&proofRow{}).
		Distinct("LOWER(user_address)").Count(&stats.UniqueUsers).Error; err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}
	if userAddress != "" {
		var n int64
		if err := s.db.WithContext(ctx).Model(&proofRow{}).
			Where("LOWER(user_address) = LOWER(?)", userAddress).Count(&n).Error; err != nil {
			return nil, fmt.Errorf("failed to count user proofs: %w", err)
		}
		stats.UserProofs = &n
	}
	return stats, nil
}

// isDuplicateKey matches both the gorm translated error and the raw mysql
// one, since error translation depends on dialect configuration.
func isDuplicateKey(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey) ||
		strings.Contains(err.Error(), "Duplicate entry") ||
		strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func artifactToRow(a *core.Artifact) *artifactRow {
	row := &artifactRow{
		ID:           a.ID,
		OwnerAddress: a.OwnerAddress,
		State:        string(a.State),
		Caption:      a.Caption,
		CaptionHash:  a.CaptionHash,
		ImageRef:     a.ImageRef,
		ArtifactHash: a.ArtifactHash,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
	if !a.FinalizedAt.IsZero() {
		t := a.FinalizedAt
		row.FinalizedAt = &t
	}
	return row
}

func rowToArtifact(row *artifactRow) *core.Artifact {
	a := &core.Artifact{
		ID:           row.ID,
		OwnerAddress: row.OwnerAddress,
		State:        core.State(row.State),
		Caption:      row.Caption,
		CaptionHash:  row.CaptionHash,
		ImageRef:     row.ImageRef,
		ArtifactHash: row.ArtifactHash,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}
	if row.FinalizedAt != nil {
		a.FinalizedAt = *row.FinalizedAt
	}
	return a
}

func proofToRow(p *core.Proof) (*proofRow, error) {
	dapps, err := json.Marshal(p.TargetDApps)
	if err != nil {
		return nil, fmt.Errorf("failed to encode target dapps: %w", err)
	}
	actions, err := json.Marshal(p.ActionOrder)
	if err != nil {
		return nil, fmt.Errorf("failed to encode action order: %w", err)
	}
	return &proofRow{
		ProofID:           p.ProofID,
		CampaignID:        p.CampaignID,
		UserAddress:       strings.ToLower(p.UserAddress),
		CampaignHash:      p.CampaignHash,
		IntentFingerprint: p.IntentFingerprint,
		IntentCategory:    p.IntentCategory,
		TargetDApps:       string(dapps),
		ActionOrder:       string(actions),
		TxHash:            p.TxHash,
		Timestamp:         p.Timestamp,
	}, nil
}

func rowToProof(row *proofRow) (*core.Proof, error) {
	p := &core.Proof{
		ProofID:           row.ProofID,
		CampaignID:        row.CampaignID,
		UserAddress:       row.UserAddress,
		CampaignHash:      row.CampaignHash,
		IntentFingerprint: row.IntentFingerprint,
		IntentCategory:    row.IntentCategory,
		TxHash:            row.TxHash,
		Timestamp:         row.Timestamp,
	}
	if row.TargetDApps != "" {
		if err := json.Unmarshal([]byte(row.TargetDApps), &p.TargetDApps); err != nil {
			return nil, fmt.Errorf("failed to decode target dapps: %w", err)
		}
	}
	if row.ActionOrder != "" {
		if err := json.Unmarshal([]byte(row.ActionOrder), &p.ActionOrder); err != nil {
			return nil, fmt.Errorf("failed to decode action order: %w", err)
		}
	}
	return p, nil
}
