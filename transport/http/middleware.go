package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/veristamp/veristamp/core"
	"github.com/veristamp/veristamp/service"
)

// AuthMiddleware creates middleware that validates bearer access tokens.
func AuthMiddleware(sessions *service.SessionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")

		if len(auth) < 8 || auth[:7] != "Bearer " {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header"})
			return
		}
		token := auth[7:]

		session, err := sessions.ValidateAccess(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, core.ErrTokenExpired) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Token expired"})
			} else {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			}
			return
		}

		c.Set("userAddress", session.Address)
		c.Next()
	}
}
