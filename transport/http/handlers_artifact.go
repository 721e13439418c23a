package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/veristamp/veristamp/core"
	"github.com/veristamp/veristamp/service"
	"github.com/veristamp/veristamp/siwe"
)

// siwePayload is the inline SIWE proof a request carries: the canonical
// message string plus the wallet's signature over it.
type siwePayload struct {
	Message   string `json:"message" binding:"required"`
	Signature string `json:"signature" binding:"required"`
}

func (p *siwePayload) session() (*core.SiweSession, error) {
	msg, err := siwe.ParseMessage(p.Message)
	if err != nil {
		return nil, err
	}
	return &core.SiweSession{Message: msg, Signature: p.Signature, Signed: p.Message}, nil
}

// ArtifactHandlers contains HTTP handlers for the artifact lifecycle.
type ArtifactHandlers struct {
	artifacts *service.ArtifactService
}

// NewArtifactHandlers creates new artifact handlers.
func NewArtifactHandlers(artifacts *service.ArtifactService) *ArtifactHandlers {
	return &ArtifactHandlers{artifacts: artifacts}
}

// Create opens a new draft campaign.
func (h *ArtifactHandlers) Create(c *gin.Context) {
	var req struct {
		CampaignID    string `json:"campaignId" binding:"required"`
		WalletAddress string `json:"walletAddress" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	artifact, err := h.artifacts.Create(c.Request.Context(), req.CampaignID, req.WalletAddress)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"artifact": artifact})
}

// Generate runs policy over a raw caption and moves the campaign to
// generated.
func (h *ArtifactHandlers) Generate(c *gin.Context) {
	var req struct {
		CampaignID    string       `json:"campaignId" binding:"required"`
		RawCaption    string       `json:"rawCaption" binding:"required"`
		TargetDApps   []string     `json:"targetDApps"`
		WalletAddress string       `json:"walletAddress" binding:"required"`
		Siwe          *siwePayload `json:"siwe"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	sess, err := optionalSession(req.Siwe)
	if err != nil {
		respondError(c, err)
		return
	}

	artifact, err := h.artifacts.Generate(c.Request.Context(), req.CampaignID, req.RawCaption, req.TargetDApps, req.WalletAddress, sess)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"artifact": gin.H{
		"campaignId":  artifact.ID,
		"caption":     artifact.Caption,
		"captionHash": artifact.CaptionHash,
	}})
}

// Finalize freezes the campaign content. Requires inline SIWE.
func (h *ArtifactHandlers) Finalize(c *gin.Context) {
	var req struct {
		CampaignID    string       `json:"campaignId" binding:"required"`
		ImageURL      string       `json:"imageUrl"`
		WalletAddress string       `json:"walletAddress" binding:"required"`
		Siwe          *siwePayload `json:"siwe" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	sess, err := req.Siwe.session()
	if err != nil {
		respondError(c, err)
		return
	}

	artifact, err := h.artifacts.Finalize(c.Request.Context(), req.CampaignID, req.ImageURL, req.WalletAddress, sess)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"artifact": gin.H{
		"campaignId":   artifact.ID,
		"caption":      artifact.Caption,
		"captionHash":  artifact.CaptionHash,
		"imageUrl":     artifact.ImageRef,
		"artifactHash": artifact.ArtifactHash,
		"finalizedAt":  artifact.FinalizedAt,
		"immutable":    true,
	}})
}

// Verify recomputes the artifact hash and compares it to a provided one.
func (h *ArtifactHandlers) Verify(c *gin.Context) {
	var req struct {
		CampaignID   string `json:"campaignId" binding:"required"`
		ProvidedHash string `json:"providedHash" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	result, err := h.artifacts.Verify(c.Request.Context(), req.CampaignID, req.ProvidedHash)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// SharePayload returns the frozen public view of a finalized campaign.
func (h *ArtifactHandlers) SharePayload(c *gin.Context) {
	id := c.Query("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing id"})
		return
	}

	payload, err := h.artifacts.SharePayload(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sharePayload": payload})
}

func optionalSession(p *siwePayload) (*core.SiweSession, error) {
	if p == nil {
		return nil, nil
	}
	return p.session()
}
