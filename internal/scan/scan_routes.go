package scan

import (
	"go-presensi/internal/device"
	"go-presensi/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

func RegisterRoutes(r *gin.RouterGroup, h *Handler, deviceService device.Service, rdb *redis.Client) {
	kiosk := r.Group("/attendance/kiosk")
	kiosk.Use(device.DeviceAuth(deviceService))
	// Satu gerbang fisik tidak mungkin melewatkan >2 orang per detik
	kiosk.Use(middleware.RateLimitByDevice(rate.Limit(2), 5))
	kiosk.Use(middleware.Idempotency(rdb))
	{
		kiosk.POST("/scan", h.Scan)
	}
}
