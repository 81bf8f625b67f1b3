package handler

import (
	"errors"
	"net/http"

	"fable-server/internal/cache"
	"fable-server/internal/middleware"
	"fable-server/internal/models"
	"fable-server/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler wires the HTTP surface to the service layer.
type Handler struct {
	graph           service.GraphService
	personalization service.PersonalizationService
	tracking        service.TrackingService
	analytics       service.AnalyticsService
	analyticsCache  cache.AnalyticsCache
	dashboardToken  string
	logger          *zap.Logger
}

func NewHandler(
	graph service.GraphService,
	personalization service.PersonalizationService,
	tracking service.TrackingService,
	analytics service.AnalyticsService,
	analyticsCache cache.AnalyticsCache,
	dashboardToken string,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		graph:           graph,
		personalization: personalization,
		tracking:        tracking,
		analytics:       analytics,
		analyticsCache:  analyticsCache,
		dashboardToken:  dashboardToken,
		logger:          logger.Named("Handler"),
	}
}

// RegisterRoutes mounts all routes on the given engine.
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	{
		api.GET("/stories/:story_id/start", h.GetStartScene)
		api.GET("/scenes/:scene_id", h.GetScene)
		api.POST("/scenes/:scene_id/personalize", h.Personalize)
		api.POST("/profiles", h.UpsertProfile)

		track := api.Group("/track")
		{
			track.POST("/visit", h.TrackVisit)
			track.POST("/scene", h.TrackScene)
			track.POST("/interaction", h.TrackInteraction)
		}

		analytics := api.Group("/analytics")
		analytics.Use(middleware.DashboardAuthMiddleware(h.dashboardToken, h.logger))
		{
			analytics.GET("/stories/:story_id", h.StoryAnalytics)
			analytics.GET("/stories/:story_id/detailed", h.DetailedAnalytics)
			analytics.GET("/personalization", h.PersonalizationAnalytics)
		}
	}
}

// respondError maps service errors to HTTP statuses.
func (h *Handler) respondError(c *gin.Context, err error, msg string) {
	switch {
	case errors.Is(err, models.ErrNotFound),
		errors.Is(err, models.ErrStoryNotFound),
		errors.Is(err, models.ErrSceneNotFound),
		errors.Is(err, models.ErrSessionNotFound),
		errors.Is(err, models.ErrProfileNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": msg})
	case errors.Is(err, models.ErrInvalidInput),
		errors.Is(err, models.ErrNotBranchPoint),
		errors.Is(err, models.ErrNoStandardChoices):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrGenerationFailed):
		c.JSON(http.StatusBadGateway, gin.H{"error": "choice generation failed"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
