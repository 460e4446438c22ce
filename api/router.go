package api

import (
	"fmt"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/livepoll/livepoll/internal/handler"
	"github.com/livepoll/livepoll/internal/platform/config"
)

// NewEngine builds the gin engine with middleware and every route.
// Forwarding headers are only honoured from cfg.TrustedProxies, so by
// default ClientIP is the socket peer.
func NewEngine(h *handler.Handler, cfg config.ServerConfig) (*gin.Engine, error) {
	r := gin.New()
	if err := r.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return nil, fmt.Errorf("invalid server.trustedProxies: %w", err)
	}
	r.Use(gin.Recovery(), handler.RequestLogger())
	r.Use(cors.New(corsConfig(cfg.Cors.AllowedOrigins)))

	SetupRoutes(r, h, cfg.BasePath)
	return r, nil
}

func corsConfig(origins []string) cors.Config {
	c := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"Content-Length", "Content-Disposition"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		c.AllowAllOrigins = true
		return c
	}
	c.AllowOrigins = origins
	c.AllowWildcard = true
	c.AllowCredentials = true
	return c
}

// SetupRoutes registers the API under basePath, plus the push channel and
// probes at the root.
func SetupRoutes(router *gin.Engine, h *handler.Handler, basePath string) {
	router.GET("/", h.Root)
	router.GET("/health", handler.Health)
	router.GET("/ws", h.Live)

	api := router.Group(basePath)
	{
		candidates := api.Group("/candidates")
		{
			candidates.GET("", h.ListCandidates)
			candidates.POST("", h.CreateCandidate)
			candidates.PUT("/:id", h.UpdateCandidate)
			candidates.DELETE("/:id", h.DeleteCandidate)
		}

		api.POST("/vote", h.CastVote)
		api.POST("/vote/check", h.CheckVote)
		api.GET("/results", h.GetResults)

		admin := api.Group("/admin")
		{
			admin.POST("/reset", h.ResetVotes)
			admin.POST("/unlock", h.UnlockClients)
			admin.POST("/clear", h.ClearPoll)
			admin.GET("/status", h.Status)
		}

		api.GET("/settings/vote-title", h.GetVoteTitle)
		api.POST("/settings/vote-title", h.SetVoteTitle)
		api.GET("/export", h.Export)
	}
}
