package device

import (
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.RouterGroup, h *Handler, svc Service) {
	devices := r.Group("/devices")
	{
		// Registrasi adalah kontak pertama: belum punya api key
		devices.POST("/register", h.Register)
		devices.POST("/heartbeat", DeviceAuth(svc), h.Heartbeat)
	}
}
