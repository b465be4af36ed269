package approuters

import (
	"github.com/arjin21/omerpubgbagimliligi/internal/configuration"
	"github.com/arjin21/omerpubgbagimliligi/internal/metrics"
	"github.com/arjin21/omerpubgbagimliligi/internal/middleware"
	"github.com/gin-gonic/gin"
)

// MonitorRouters sets up monitoring API routes
func MonitorRouters(router *gin.Engine, container *configuration.Container) {
	monitorGroup := router.Group("/dm/api/monitor")
	{
		monitorGroup.GET("/stats", container.MonitorHandler.GetHubStats)
	}

	presenceGroup := router.Group("/dm/api/presence", middleware.JWTAuth(container.Verifier))
	{
		presenceGroup.GET("/:userId", container.MonitorHandler.GetPresence)
	}

	router.GET("/metrics", gin.WrapH(metrics.Handler()))
}
