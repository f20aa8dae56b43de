package handlers

import (
	"net/http"

	"event-registration/internal/api/middleware"
	"event-registration/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AnalyticsHandler handles statistics requests
type AnalyticsHandler struct {
	analyticsService *service.AnalyticsService
}

// NewAnalyticsHandler creates a new analytics handler
func NewAnalyticsHandler(analyticsService *service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{
		analyticsService: analyticsService,
	}
}

// EventStats handles GET /api/v1/analytics/event/:event_id
func (h *AnalyticsHandler) EventStats(c *gin.Context) {
	principal := middleware.PrincipalFromContext(c)

	eventID, err := uuid.Parse(c.Param("event_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, APIResponse{
			Success: false,
			Message: "Invalid event id",
		})
		return
	}

	stats, err := h.analyticsService.EventStats(c.Request.Context(), principal, eventID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Message: "Event statistics",
		Data:    stats,
	})
}

// Overview handles GET /api/v1/analytics/overview
func (h *AnalyticsHandler) Overview(c *gin.Context) {
	principal := middleware.PrincipalFromContext(c)

	stats, err := h.analyticsService.Overview(c.Request.Context(), principal)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Message: "System overview",
		Data:    stats,
	})
}
