package main

import (
	"go-presensi/internal/app"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()
	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	if err := app.RunKiosk(); err != nil {
		logger.Fatal("run kiosk failed", zap.Error(err))
	}
}
