package app

import (
	"database/sql"

	"go-presensi/internal/device"
	"go-presensi/internal/event"
	"go-presensi/internal/messaging/kafka"
	"go-presensi/internal/middleware"
	"go-presensi/internal/policy"
	"go-presensi/internal/register"
	"go-presensi/internal/scan"
	"go-presensi/internal/subject"
	"go-presensi/internal/summary"
	syncmod "go-presensi/internal/sync"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

func registerModules(
	router *gin.Engine,
	db *sql.DB,
	gormDB *gorm.DB,
	rdb *redis.Client,
) error {
	router.Use(middleware.RequestID())

	// --- Repositories ---
	deviceRepo := device.NewRepository(gormDB)
	eventRepo := event.NewRepository(gormDB)
	outboxRepo := kafka.NewOutboxRepository(db)
	policyRepo := policy.NewRepository(gormDB)
	subjectRepo := subject.NewRepository(gormDB)
	summaryRepo := summary.NewRepository(gormDB)

	// --- Services ---
	deviceService := device.NewService(deviceRepo, rdb)
	registerService := register.NewService(db, eventRepo, outboxRepo)
	scanService := scan.NewService(db, eventRepo, subjectRepo, policyRepo, outboxRepo)
	summaryService := summary.NewService(summaryRepo, eventRepo, policyRepo)
	syncService := syncmod.NewService(db, eventRepo, deviceRepo, policyRepo, subjectRepo, outboxRepo)

	// --- Handlers ---
	deviceHandler := device.NewHandler(deviceService)
	policyHandler := policy.NewHandler(policyRepo)
	registerHandler := register.NewHandler(registerService)
	scanHandler := scan.NewHandler(scanService)
	summaryHandler := summary.NewHandler(summaryService)
	syncHandler := syncmod.NewHandler(syncService)

	// --- Routes Registration ---
	api := router.Group("/api/v1")
	{
		device.RegisterRoutes(api, deviceHandler, deviceService)
		policy.RegisterRoutes(api, policyHandler)
		register.RegisterRoutes(api, registerHandler)
		scan.RegisterRoutes(api, scanHandler, deviceService, rdb)
		summary.RegisterRoutes(api, summaryHandler)
		syncmod.RegisterRoutes(api, syncHandler, deviceService)
	}

	return nil
}
