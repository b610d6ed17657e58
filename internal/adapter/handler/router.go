package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/johnquangdev/meeting-scribe/internal/infrastructure/http/middleware"
	"github.com/johnquangdev/meeting-scribe/pkg/config"
)

// Router holds all handlers
type Router struct {
	cfg            *config.Config
	meetingHandler *Meeting
	reviewHandler  *Review
	authHandler    *Auth
	authMiddleware *middleware.AuthMiddleware
}

// NewRouter creates a new router with all handlers
func NewRouter(cfg *config.Config, meetingHandler *Meeting, reviewHandler *Review, authHandler *Auth, authMiddleware *middleware.AuthMiddleware) *Router {
	return &Router{
		cfg:            cfg,
		meetingHandler: meetingHandler,
		reviewHandler:  reviewHandler,
		authHandler:    authHandler,
		authMiddleware: authMiddleware,
	}
}

// Setup configures all application routes
func (rt *Router) Setup(e *echo.Echo) {
	e.GET("/health", rt.healthCheck)

	// Token refresh authenticates with the refresh token itself, so it
	// stays outside the bearer-token group.
	e.POST("/v1/auth/refresh", rt.authHandler.Refresh)

	v1 := e.Group("/v1", rt.authMiddleware.Authenticate)

	rt.setupMeetingRoutes(v1)
	rt.setupReviewRoutes(v1)
}

// setupMeetingRoutes configures meeting ingestion and pipeline routes
func (rt *Router) setupMeetingRoutes(g *echo.Group) {
	meetings := g.Group("/meetings")

	meetings.POST("", rt.meetingHandler.Create)
	meetings.GET("", rt.meetingHandler.List)
	meetings.GET("/:id", rt.meetingHandler.Get)
	meetings.POST("/:id/process", rt.meetingHandler.Process)
	meetings.GET("/:id/changeset", rt.meetingHandler.GetChangeSet)
}

// setupReviewRoutes configures change set review routes
func (rt *Router) setupReviewRoutes(g *echo.Group) {
	changesets := g.Group("/changesets")

	changesets.GET("/:id", rt.reviewHandler.Get)
	changesets.POST("/:id/lock", rt.reviewHandler.AcquireLock)
	changesets.DELETE("/:id/lock", rt.reviewHandler.ReleaseLock)
	changesets.POST("/:id/force-unlock", rt.reviewHandler.ForceUnlock, rt.authMiddleware.RequireAdmin)
	changesets.PUT("/:id/items", rt.reviewHandler.SaveItems)
	changesets.POST("/:id/reassign-owner", rt.reviewHandler.ReassignOwner)
	changesets.POST("/:id/publish", rt.reviewHandler.Publish)
}

// healthCheck returns health status
func (rt *Router) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":      "ok",
		"time":        time.Now().Format(time.RFC3339),
		"environment": rt.cfg.Server.Environment,
	})
}
