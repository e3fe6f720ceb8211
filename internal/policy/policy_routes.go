package policy

import (
	"go-presensi/internal/middleware"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.RouterGroup, h *Handler) {
	policies := r.Group("/attendance/policies")
	policies.Use(middleware.AuthMiddleware())
	{
		policies.GET("", h.ListByBranch)
		policies.PUT("", h.Upsert)
	}
}
