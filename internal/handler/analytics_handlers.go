package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// serveCached writes a previously cached JSON payload if one exists.
// Returns true when the response has been served.
func (h *Handler) serveCached(c *gin.Context, key string) bool {
	if h.analyticsCache == nil {
		return false
	}
	payload, err := h.analyticsCache.Get(c.Request.Context(), key)
	if err != nil || payload == nil {
		return false
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", payload)
	return true
}

// cacheAndRespond stores the computed result and serves it.
func (h *Handler) cacheAndRespond(c *gin.Context, key string, result any) {
	if h.analyticsCache != nil {
		if payload, err := json.Marshal(result); err == nil {
			// Best effort; a failed write only costs a recomputation later.
			_ = h.analyticsCache.Set(c.Request.Context(), key, payload)
		}
	}
	c.JSON(http.StatusOK, result)
}

// StoryAnalytics returns the basic aggregate dashboard for one story.
// GET /api/analytics/stories/:story_id
func (h *Handler) StoryAnalytics(c *gin.Context) {
	storyID, err := uuid.Parse(c.Param("story_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid story id"})
		return
	}

	key := "analytics:story:" + storyID.String()
	if h.serveCached(c, key) {
		return
	}

	result, err := h.analytics.StoryAnalytics(c.Request.Context(), storyID)
	if err != nil {
		h.logger.Error("Failed to compute story analytics", zap.Error(err), zap.String("story_id", storyID.String()))
		h.respondError(c, err, "story not found")
		return
	}

	h.cacheAndRespond(c, key, result)
}

// DetailedAnalytics returns per-scene timing, engagement, hesitation, path
// heatmap and reading pattern buckets for one story.
// GET /api/analytics/stories/:story_id/detailed
func (h *Handler) DetailedAnalytics(c *gin.Context) {
	storyID, err := uuid.Parse(c.Param("story_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid story id"})
		return
	}

	key := "analytics:story:" + storyID.String() + ":detailed"
	if h.serveCached(c, key) {
		return
	}

	result, err := h.analytics.DetailedAnalytics(c.Request.Context(), storyID)
	if err != nil {
		h.logger.Error("Failed to compute detailed analytics", zap.Error(err), zap.String("story_id", storyID.String()))
		h.respondError(c, err, "story not found")
		return
	}

	h.cacheAndRespond(c, key, result)
}

// PersonalizationAnalytics returns platform-wide generated-choice metrics.
// GET /api/analytics/personalization
func (h *Handler) PersonalizationAnalytics(c *gin.Context) {
	const key = "analytics:personalization"
	if h.serveCached(c, key) {
		return
	}

	result, err := h.analytics.PersonalizationAnalytics(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to compute personalization analytics", zap.Error(err))
		h.respondError(c, err, "analytics unavailable")
		return
	}

	h.cacheAndRespond(c, key, result)
}
