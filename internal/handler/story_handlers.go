package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// GetStartScene returns the entry scene of a story with its visible choices.
// GET /api/stories/:story_id/start?archetype=...
func (h *Handler) GetStartScene(c *gin.Context) {
	storyID, err := uuid.Parse(c.Param("story_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid story id"})
		return
	}
	archetype := c.Query("archetype")

	scene, err := h.graph.GetStartScene(c.Request.Context(), storyID, archetype)
	if err != nil {
		h.logger.Error("Failed to get start scene", zap.Error(err), zap.String("story_id", storyID.String()))
		h.respondError(c, err, "story or start scene not found")
		return
	}

	c.JSON(http.StatusOK, scene)
}

// GetScene returns a scene with the choices visible to the given archetype.
// GET /api/scenes/:scene_id?archetype=...
func (h *Handler) GetScene(c *gin.Context) {
	sceneID, err := uuid.Parse(c.Param("scene_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid scene id"})
		return
	}
	archetype := c.Query("archetype")

	scene, err := h.graph.GetScene(c.Request.Context(), sceneID, archetype)
	if err != nil {
		h.logger.Error("Failed to get scene", zap.Error(err), zap.String("scene_id", sceneID.String()))
		h.respondError(c, err, "scene not found")
		return
	}

	c.JSON(http.StatusOK, scene)
}

// Personalize returns (creating if needed) the generated choice for a reader
// archetype on a branch-point scene.
// POST /api/scenes/:scene_id/personalize
func (h *Handler) Personalize(c *gin.Context) {
	sceneID, err := uuid.Parse(c.Param("scene_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid scene id"})
		return
	}

	var req PersonalizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	if req.VisitorID == "" && req.Archetype == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "either visitor_id or archetype is required"})
		return
	}

	choice, err := h.personalization.Personalize(c.Request.Context(), sceneID, req.VisitorID, req.Archetype)
	if err != nil {
		h.logger.Warn("Personalization failed",
			zap.Error(err),
			zap.String("scene_id", sceneID.String()),
			zap.String("visitor_id", req.VisitorID))
		h.respondError(c, err, "scene not found")
		return
	}

	c.JSON(http.StatusOK, choice)
}

// UpsertProfile stores a reader's archetype scores, creating or replacing the
// profile for the visitor.
// POST /api/profiles
func (h *Handler) UpsertProfile(c *gin.Context) {
	var req UpsertProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	profile, err := h.tracking.UpsertProfile(c.Request.Context(), req.VisitorID, req.Scores)
	if err != nil {
		h.logger.Error("Failed to upsert profile", zap.Error(err), zap.String("visitor_id", req.VisitorID))
		h.respondError(c, err, "profile not found")
		return
	}

	c.JSON(http.StatusOK, profile)
}
