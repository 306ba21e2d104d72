package rest

import (
	"github.com/gin-gonic/gin"

	"github.com/omribarmats/pricegit/internal/api/middleware"
)

// SetupRoutes configures all REST API routes
func SetupRoutes(router *gin.Engine, handler Handler, authCfg middleware.AuthConfig) {
	// Health check endpoint (no auth, no version prefix)
	router.GET("/health", handler.HealthCheck)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Price submission and moderation (requires authentication)
		v1.POST("/observations", middleware.Auth(authCfg), handler.SubmitObservation)
		v1.POST("/observations/:id/review", middleware.Auth(authCfg), handler.ReviewObservation)
		v1.GET("/observations/:id", middleware.Auth(authCfg), handler.GetObservation)
		v1.GET("/observations/:id/events", middleware.Auth(authCfg), handler.GetModerationTrail)

		// Ranked price endpoints (public read access). The bulk route lives
		// outside /products because a static segment cannot share a tree
		// level with the :id wildcard.
		v1.GET("/products/:id/prices", handler.GetRankedPrices)
		v1.GET("/prices", handler.GetRankedPricesBulk)

		// Per-user product view, including the caller's pending submissions
		// (requires authentication)
		v1.GET("/products/:id/observations", middleware.Auth(authCfg), handler.GetProductObservations)

		// Account lifecycle hook (requires API key authentication only)
		v1.POST("/users/:id/detach", middleware.APIKeyAuth(authCfg), handler.DetachUser)
	}
}
