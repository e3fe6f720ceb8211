package sync

import (
	"go-presensi/internal/device"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.RouterGroup, h *Handler, deviceService device.Service) {
	syncGroup := r.Group("/sync")
	syncGroup.Use(device.DeviceAuth(deviceService))
	{
		syncGroup.POST("/push", h.Push)
		syncGroup.GET("/pull", h.Pull)
	}
}
