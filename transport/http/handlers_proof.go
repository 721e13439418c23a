package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/veristamp/veristamp/service"
)

// ProofHandlers contains HTTP handlers for intent proof recording.
type ProofHandlers struct {
	proofs *service.ProofService
}

// NewProofHandlers creates new proof handlers.
func NewProofHandlers(proofs *service.ProofService) *ProofHandlers {
	return &ProofHandlers{proofs: proofs}
}

// Record stores a wallet's intent proof for a finalized campaign.
// Requires inline SIWE proving control of the recorded wallet.
func (h *ProofHandlers) Record(c *gin.Context) {
	var req struct {
		CampaignID     string       `json:"campaignId" binding:"required"`
		UserAddress    string       `json:"userAddress" binding:"required"`
		IntentCategory string       `json:"intentCategory" binding:"required"`
		TargetDApps    []string     `json:"targetDApps"`
		ActionOrder    []string     `json:"actionOrder"`
		TxHash         string       `json:"txHash"`
		Siwe           *siwePayload `json:"siwe" binding:"required"`
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

	proof, err := h.proofs.Record(c.Request.Context(), service.RecordRequest{
		CampaignID:     req.CampaignID,
		UserAddress:    req.UserAddress,
		IntentCategory: req.IntentCategory,
		TargetDApps:    req.TargetDApps,
		ActionOrder:    req.ActionOrder,
		TxHash:         req.TxHash,
		Session:        sess,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"proof": proof})
}

// Get lists stored proofs by campaign and/or wallet.
func (h *ProofHandlers) Get(c *gin.Context) {
	campaignID := c.Query("campaignId")
	userAddress := c.Query("userAddress")
	if campaignID == "" && userAddress == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing campaignId or userAddress"})
		return
	}

	proofs, err := h.proofs.Get(c.Request.Context(), campaignID, userAddress)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"proofs": proofs})
}

// Verify recomputes the campaign hash and reports proof existence.
func (h *ProofHandlers) Verify(c *gin.Context) {
	var req struct {
		CampaignID   string `json:"campaignId" binding:"required"`
		UserAddress  string `json:"userAddress" binding:"required"`
		ProvidedHash string `json:"providedHash" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	result, err := h.proofs.Verify(c.Request.Context(), req.CampaignID, req.UserAddress, req.ProvidedHash)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Stats returns aggregate proof counts.
func (h *ProofHandlers) Stats(c *gin.Context) {
	stats, err := h.proofs.Stats(c.Request.Context(), c.Query("userAddress"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stats": stats})
}
