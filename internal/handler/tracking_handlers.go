package handler

import (
	"net/http"

	"fable-server/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TrackVisit records a scene visit, reusing or opening the visitor's session.
// POST /api/track/visit
func (h *Handler) TrackVisit(c *gin.Context) {
	var req TrackVisitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	sessionID, err := h.tracking.RecordVisit(c.Request.Context(), req.StoryID, req.VisitorID, req.SceneID, req.ChoiceID, req.IsEnding)
	if err != nil {
		h.logger.Error("Failed to record visit",
			zap.Error(err),
			zap.String("story_id", req.StoryID.String()),
			zap.String("visitor_id", req.VisitorID))
		h.respondError(c, err, "story or scene not found")
		return
	}

	c.JSON(http.StatusOK, TrackVisitResponse{SessionID: sessionID})
}

// TrackScene records scene view enter/exit timestamps.
// POST /api/track/scene
func (h *Handler) TrackScene(c *gin.Context) {
	var req TrackSceneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	switch req.Action {
	case "enter":
		if req.SessionID == uuid.Nil || req.SceneID == uuid.Nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "session_id and scene_id are required for enter"})
			return
		}
		viewID, err := h.tracking.EnterScene(c.Request.Context(), req.SessionID, req.SceneID)
		if err != nil {
			h.logger.Error("Failed to enter scene",
				zap.Error(err),
				zap.String("session_id", req.SessionID.String()),
				zap.String("scene_id", req.SceneID.String()))
			h.respondError(c, err, "session not found")
			return
		}
		c.JSON(http.StatusOK, TrackSceneResponse{ViewID: &viewID, Status: "entered"})

	case "exit":
		if req.ViewID == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "view_id is required for exit"})
			return
		}
		if err := h.tracking.ExitScene(c.Request.Context(), *req.ViewID); err != nil {
			h.logger.Error("Failed to exit scene", zap.Error(err), zap.String("view_id", req.ViewID.String()))
			h.respondError(c, err, "scene view not found")
			return
		}
		c.JSON(http.StatusOK, TrackSceneResponse{Status: "exited"})

	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "action must be 'enter' or 'exit'"})
	}
}

// TrackInteraction records a reading behavior event.
// POST /api/track/interaction
func (h *Handler) TrackInteraction(c *gin.Context) {
	var req TrackInteractionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	eventID, err := h.tracking.RecordInteraction(
		c.Request.Context(),
		req.SessionID,
		req.SceneID,
		models.InteractionType(req.EventType),
		req.Metadata,
	)
	if err != nil {
		h.logger.Warn("Failed to record interaction",
			zap.Error(err),
			zap.String("session_id", req.SessionID.String()),
			zap.String("event_type", req.EventType))
		h.respondError(c, err, "session not found")
		return
	}

	c.JSON(http.StatusOK, TrackInteractionResponse{EventID: eventID, Status: "recorded"})
}
