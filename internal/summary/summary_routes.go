package summary

import (
	"go-presensi/internal/middleware"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.RouterGroup, h *Handler) {
	attendance := r.Group("/attendance")
	attendance.Use(middleware.AuthMiddleware())
	{
		attendance.GET("/exceptions", h.ListExceptions)
		attendance.PATCH("/exceptions/:id/resolve", h.ResolveException)
		attendance.GET("/learner/branch", h.LearnerBranchSummaries)
		attendance.GET("/staff/today", h.StaffTodaySummaries)
	}
}
