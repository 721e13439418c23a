package http

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/veristamp/veristamp/service"
)

// RouterConfig carries the services the router exposes plus the allowed
// CORS origins.
type RouterConfig struct {
	Sessions     *service.SessionService
	Artifacts    *service.ArtifactService
	Proofs       *service.ProofService
	AllowOrigins []string
}

// SetupRouter sets up the Gin router.
func SetupRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authH := NewAuthHandlers(cfg.Sessions)
	artifactH := NewArtifactHandlers(cfg.Artifacts)
	proofH := NewProofHandlers(cfg.Proofs)

	v1 := router.Group("/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/challenge", authH.Challenge)
			auth.POST("/login", authH.Login)
			auth.POST("/refresh", authH.Refresh)
			auth.POST("/logout", authH.Logout)
		}

		artifacts := v1.Group("/artifacts")
		{
			artifacts.POST("/create", artifactH.Create)
			artifacts.POST("/generate", artifactH.Generate)
			artifacts.POST("/finalize", artifactH.Finalize)
			artifacts.POST("/verify", artifactH.Verify)
			artifacts.GET("/share-payload", artifactH.SharePayload)
		}

		proofs := v1.Group("/proofs")
		{
			proofs.POST("/record", proofH.Record)
			proofs.GET("/get", proofH.Get)
			proofs.POST("/verify", proofH.Verify)
			proofs.GET("/stats", proofH.Stats)
		}

		api := v1.Group("/me")
		api.Use(AuthMiddleware(cfg.Sessions))
		{
			api.GET("", authH.Me)
		}
	}

	return router
}
