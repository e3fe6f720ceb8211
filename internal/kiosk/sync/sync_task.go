// Package sync menjalankan sisi device dari protokol sinkronisasi: push
// antrian lokal, pull konfigurasi, dan heartbeat. Trigger yang datang
// bersamaan (reconnect, timer, tombol operator) digabung menjadi satu run.
package sync

import (
	"context"
	stdsync "sync"
	"time"

	"go-presensi/internal/event"
	"go-presensi/internal/kiosk/roster"
	serversync "go-presensi/internal/sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// API adalah bagian dari Client yang dipakai task.
type API interface {
	Push(ctx context.Context, req serversync.PushRequest) (*serversync.PushResponse, error)
	Pull(ctx context.Context, branchID string) (*serversync.PullResponse, error)
	Heartbeat(ctx context.Context) error
}

// LocalQueue adalah antrian durable yang dikeringkan task ini.
type LocalQueue interface {
	GetAll(ctx context.Context) ([]event.EventPayload, error)
	Dequeue(ctx context.Context, idempotencyKey string) error
	MarkRejected(ctx context.Context, idempotencyKey, reason string) error
	Count() int64
}

// RosterWriter menerima snapshot roster hasil pull.
type RosterWriter interface {
	Replace(ctx context.Context, entries []roster.Entry) error
}

type Task struct {
	api      API
	queue    LocalQueue
	roster   RosterWriter
	branchID string
	interval time.Duration
	logger   *zap.Logger

	group singleflight.Group

	mu       stdsync.Mutex
	online   bool
	snapshot *serversync.PullResponse
	lastSync time.Time
}

func NewTask(api API, q LocalQueue, rw RosterWriter, branchID string, interval time.Duration, logger ...*zap.Logger) *Task {
	l := zap.L().Named("kiosk.sync")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("kiosk.sync")
	}
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Task{
		api:      api,
		queue:    q,
		roster:   rw,
		branchID: branchID,
		interval: interval,
		logger:   l,
	}
}

// Sync menjalankan satu siklus push+pull. Pemanggilan bersamaan bergabung ke
// run yang sedang jalan; dua sync tidak pernah overlap.
func (t *Task) Sync(ctx context.Context) error {
	_, err, shared := t.group.Do("sync", func() (interface{}, error) {
		if err := t.push(ctx); err != nil {
			return nil, err
		}
		return nil, t.pull(ctx)
	})
	if shared {
		t.logger.Debug("sync trigger collapsed into in-flight run")
	}
	return err
}

func (t *Task) push(ctx context.Context) error {
	items, err := t.queue.GetAll(ctx)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}

	resp, err := t.api.Push(ctx, serversync.PushRequest{Events: items})
	if err != nil {
		// Transient: item tetap di antrian untuk percobaan berikutnya
		t.logger.Warn("push failed, items stay queued",
			zap.Int("items", len(items)),
			zap.Error(err),
		)
		t.setOnline(false)
		return err
	}
	t.setOnline(true)

	for _, res := range resp.Results {
		switch res.Status {
		case serversync.ItemStatusCreated, serversync.ItemStatusDuplicate:
			// Duplicate = sudah pernah tersimpan; dua-duanya acknowledge
			if err := t.queue.Dequeue(ctx, res.IdempotencyKey); err != nil {
				t.logger.Error("dequeue after ack failed",
					zap.String("idempotency_key", res.IdempotencyKey),
					zap.Error(err),
				)
			}
		case serversync.ItemStatusRejected:
			// Ditahan dan ditampilkan ke operator, bukan dibuang
			t.logger.Warn("item rejected by server",
				zap.String("idempotency_key", res.IdempotencyKey),
				zap.String("reason", res.Reason),
			)
			if err := t.queue.MarkRejected(ctx, res.IdempotencyKey, res.Reason); err != nil {
				t.logger.Error("mark rejected failed",
					zap.String("idempotency_key", res.IdempotencyKey),
					zap.Error(err),
				)
			}
		}
	}

	t.logger.Info("push cycle done",
		zap.Int("sent", len(items)),
		zap.Int64("remaining", t.queue.Count()),
	)
	return nil
}

func (t *Task) pull(ctx context.Context) error {
	resp, err := t.api.Pull(ctx, t.branchID)
	if err != nil {
		t.setOnline(false)
		return err
	}
	t.setOnline(true)

	entries := make([]roster.Entry, len(resp.Roster))
	for i, r := range resp.Roster {
		entries[i] = roster.Entry{
			SubjectUserID: r.SubjectUserID,
			SubjectType:   r.SubjectType,
			FullName:      r.FullName,
			Grade:         r.Grade,
			ClassName:     r.ClassName,
			QRToken:       r.QRToken,
			PINCode:       r.PINCode,
		}
	}
	if err := t.roster.Replace(ctx, entries); err != nil {
		t.logger.Error("roster refresh failed", zap.Error(err))
		return err
	}

	t.mu.Lock()
	t.snapshot = resp
	t.lastSync = time.Now().UTC()
	t.mu.Unlock()

	t.logger.Info("pull cycle done",
		zap.Int("policies", len(resp.Policies)),
		zap.Int("roster", len(entries)),
	)
	return nil
}

// Snapshot mengembalikan hasil pull terakhir (bisa nil sebelum sync pertama).
func (t *Task) Snapshot() *serversync.PullResponse {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshot
}

func (t *Task) setOnline(v bool) {
	t.mu.Lock()
	t.online = v
	t.mu.Unlock()
}

func (t *Task) isOnline() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.online
}

// Run menjalankan timer sync periodik dan loop heartbeat sampai ctx selesai.
// Transisi offline ke online langsung memicu sync tanpa menunggu timer.
func (t *Task) Run(ctx context.Context) {
	syncTicker := time.NewTicker(t.interval)
	heartbeatTicker := time.NewTicker(time.Minute)
	defer syncTicker.Stop()
	defer heartbeatTicker.Stop()

	// Sync pembuka supaya kiosk langsung punya roster dan policy
	if err := t.Sync(ctx); err != nil {
		t.logger.Warn("initial sync failed", zap.Error(err))
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-syncTicker.C:
			if err := t.Sync(ctx); err != nil {
				t.logger.Warn("periodic sync failed", zap.Error(err))
			}
		case <-heartbeatTicker.C:
			wasOnline := t.isOnline()
			if err := t.api.Heartbeat(ctx); err != nil {
				t.logger.Warn("heartbeat failed", zap.Error(err))
				t.setOnline(false)
				continue
			}
			t.setOnline(true)
			if !wasOnline {
				// Reconnect: keringkan antrian sekarang juga
				if err := t.Sync(ctx); err != nil {
					t.logger.Warn("reconnect sync failed", zap.Error(err))
				}
			}
		}
	}
}
