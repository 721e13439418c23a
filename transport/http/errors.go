package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/veristamp/veristamp/core"
)

// respondError maps the domain error taxonomy onto HTTP statuses.
// Authentication failures deliberately share one opaque message so the
// response is no oracle for guessing addresses or nonces.
func respondError(c *gin.Context, err error) {
	var (
		validationErr *core.ValidationError
		stateErr      *core.StateError
		conflictErr   *core.ConflictError
	)

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":      "Content policy violation",
			"violations": validationErr.Violations,
		})

	case errors.As(err, &stateErr):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":         stateErr.Error(),
			"currentState":  stateErr.Current,
			"requiredState": stateErr.Required,
		})

	case errors.As(err, &conflictErr):
		c.JSON(http.StatusConflict, gin.H{
			"error":   "Proof already recorded",
			"proofId": conflictErr.ExistingProofID,
		})

	case errors.Is(err, core.ErrUnknownCampaign):
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown campaign"})

	case errors.Is(err, core.ErrNotOwner):
		c.JSON(http.StatusForbidden, gin.H{"error": "Not authorized"})

	case core.IsAuthentication(err):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication failed"})

	case errors.Is(err, core.ErrStoreFailure):
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":     "Temporarily unavailable",
			"retryable": true,
		})

	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
	}
}
