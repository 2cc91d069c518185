package approuters

import (
	"github.com/MBSciTech/EcoChat/internal/configuration"
	"github.com/MBSciTech/EcoChat/internal/handler"
	"github.com/MBSciTech/EcoChat/internal/hub"
	"github.com/gin-gonic/gin"
)

// MonitorRouters sets up monitoring API routes
func MonitorRouters(router *gin.Engine, container *configuration.Container) {
	monitorService := hub.NewMonitorService(container.Hub)
	monitorHandler := handler.NewMonitorHandler(monitorService)

	monitorGroup := router.Group("/ec/api/monitor")
	{
		monitorGroup.GET("/stats", monitorHandler.GetHubStats)
	}
}
