package app

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-presensi/internal/kiosk/capture"
	"go-presensi/internal/kiosk/idempotency"
	"go-presensi/internal/kiosk/queue"
	"go-presensi/internal/kiosk/roster"
	kiosksync "go-presensi/internal/kiosk/sync"
	"go-presensi/internal/shared/connection"

	"go.uber.org/zap"
)

// RunKiosk menjalankan agen device: loop capture dari scanner wedge di stdin,
// antrian lokal durable, dan task sync di latar belakang.
func RunKiosk() error {
	logger := zap.L().Named("app.kiosk")

	deviceCode := os.Getenv("KIOSK_DEVICE_CODE")
	apiKey := os.Getenv("KIOSK_DEVICE_KEY")
	serverURL := os.Getenv("KIOSK_SERVER_URL")
	if deviceCode == "" || apiKey == "" || serverURL == "" {
		return fmt.Errorf("KIOSK_DEVICE_CODE, KIOSK_DEVICE_KEY, KIOSK_SERVER_URL are required")
	}

	dbPath := os.Getenv("KIOSK_DB_PATH")
	if dbPath == "" {
		dbPath = "kiosk.db"
	}

	localDB, err := connection.OpenLocalSQLite(dbPath)
	if err != nil {
		return err
	}

	queueStore, err := queue.NewStore(localDB)
	if err != nil {
		return err
	}
	rosterStore, err := roster.NewStore(localDB)
	if err != nil {
		return err
	}

	client := kiosksync.NewClient(serverURL, deviceCode, apiKey, 10*time.Second)

	machine := capture.NewMachine(
		capture.Config{
			DeviceCode: deviceCode,
			DeviceID:   os.Getenv("KIOSK_DEVICE_ID"),
			TenantID:   os.Getenv("KIOSK_TENANT_ID"),
			BranchID:   os.Getenv("KIOSK_BRANCH_ID"),
		},
		client,
		rosterStore,
		queueStore,
		idempotency.NewGenerator(deviceCode),
	)

	interval := 30 * time.Second
	if raw := os.Getenv("KIOSK_SYNC_INTERVAL"); raw != "" {
		if parsed, err := time.ParseDuration(raw); err == nil {
			interval = parsed
		}
	}
	task := kiosksync.NewTask(client, queueStore, rosterStore, os.Getenv("KIOSK_BRANCH_ID"), interval)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go task.Run(ctx)
	go readWedgeInput(ctx, machine, logger)

	logger.Info("kiosk agent running",
		zap.String("device_code", deviceCode),
		zap.String("queue_db", dbPath),
	)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("kiosk shutting down",
		zap.Int64("queued_items", queueStore.Count()),
	)
	cancel()

	return nil
}

// readWedgeInput membaca stdin sebagai scanner keyboard-wedge: burst karakter
// diakhiri newline menjadi satu token.
func readWedgeInput(ctx context.Context, machine *capture.Machine, logger *zap.Logger) {
	reader := bufio.NewReader(os.Stdin)
	for {
		if ctx.Err() != nil {
			return
		}
		r, _, err := reader.ReadRune()
		if err != nil {
			logger.Warn("stdin closed, capture input stopped", zap.Error(err))
			return
		}
		in := capture.Input{At: time.Now()}
		if r == '\n' || r == '\r' {
			in.Enter = true
		} else {
			in.Rune = r
		}
		machine.HandleInput(ctx, in)
	}
}
