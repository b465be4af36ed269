package handler

import (
	"net/http"

	"github.com/arjin21/omerpubgbagimliligi/internal/hub"
	"github.com/gin-gonic/gin"
)

// MonitorHandler handles monitoring API endpoints
type MonitorHandler interface {
	GetHubStats(c *gin.Context)
	GetPresence(c *gin.Context)
}

type monitorHandler struct {
	monitorService *hub.MonitorService
	presence       *hub.PresenceStore // nil when redis is unconfigured
}

// NewMonitorHandler creates a new monitor handler
func NewMonitorHandler(monitorService *hub.MonitorService, presence *hub.PresenceStore) MonitorHandler {
	return &monitorHandler{
		monitorService: monitorService,
		presence:       presence,
	}
}

// GetHubStats returns current hub statistics
func (h *monitorHandler) GetHubStats(c *gin.Context) {
	stats := h.monitorService.GetStats()
	c.JSON(http.StatusOK, stats)
}

// GetPresence returns a user's presence document from Redis.
func (h *monitorHandler) GetPresence(c *gin.Context) {
	if h.presence == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "presence store not configured"})
		return
	}

	userID := c.Param("userId")
	pres, err := h.presence.GetPresence(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "presence not found"})
		return
	}
	c.JSON(http.StatusOK, pres)
}
