package queue

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"go-presensi/internal/event"
	"go-presensi/internal/shared/apperror"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store adalah antrian durable milik kiosk. Enqueue harus sudah tersimpan di
// disk sebelum return; kalau storage gagal, capture surface wajib memberi tahu
// operator bahwa event TIDAK tercatat.
type Store struct {
	db     *gorm.DB
	logger *zap.Logger

	mu      sync.Mutex
	pending int64
}

func NewStore(db *gorm.DB, logger ...*zap.Logger) (*Store, error) {
	l := zap.L().Named("kiosk.queue")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("kiosk.queue")
	}

	if err := db.AutoMigrate(&QueuedSyncItem{}); err != nil {
		return nil, apperror.Wrap(err, apperror.CodeStorageFailure, "Gagal menyiapkan antrian lokal", http.StatusServiceUnavailable)
	}

	s := &Store{db: db, logger: l}

	var n int64
	if err := db.Model(&QueuedSyncItem{}).Where("rejected = ?", false).Count(&n).Error; err != nil {
		return nil, apperror.Wrap(err, apperror.CodeStorageFailure, "Gagal membaca antrian lokal", http.StatusServiceUnavailable)
	}
	s.pending = n

	l.Info("local queue ready", zap.Int64("pending", n))
	return s, nil
}

// Enqueue menyimpan satu event secara sinkron. Key yang sudah ada dianggap
// retry logis dari item yang sama dan tidak disisipkan dua kali.
func (s *Store) Enqueue(ctx context.Context, p event.EventPayload) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return apperror.Wrap(err, apperror.CodeInvalidInput, "Payload event tidak bisa diserialisasi", http.StatusBadRequest)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	item := QueuedSyncItem{
		IdempotencyKey: p.IdempotencyKey,
		Payload:        string(raw),
		EnqueuedAt:     time.Now().UTC(),
	}

	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "idempotency_key"}},
			DoNothing: true,
		}).
		Create(&item)
	if res.Error != nil {
		s.logger.Error("enqueue failed", zap.String("idempotency_key", p.IdempotencyKey), zap.Error(res.Error))
		return apperror.Wrap(res.Error, apperror.CodeStorageFailure, "Event tidak tersimpan ke antrian lokal", http.StatusServiceUnavailable)
	}
	if res.RowsAffected > 0 {
		s.pending++
	}
	return nil
}

// GetAll mengembalikan item yang belum rejected, urut FIFO.
func (s *Store) GetAll(ctx context.Context) ([]event.EventPayload, error) {
	var rows []QueuedSyncItem
	err := s.db.WithContext(ctx).
		Where("rejected = ?", false).
		Order("seq ASC").
		Find(&rows).Error
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeStorageFailure, "Gagal membaca antrian lokal", http.StatusServiceUnavailable)
	}

	out := make([]event.EventPayload, 0, len(rows))
	for _, row := range rows {
		var p event.EventPayload
		if err := json.Unmarshal([]byte(row.Payload), &p); err != nil {
			// Payload korup tidak boleh menyandera sisa antrian
			s.logger.Warn("corrupt queue payload, marking rejected",
				zap.Int64("seq", row.Seq),
				zap.Error(err),
			)
			_ = s.MarkRejected(ctx, row.IdempotencyKey, "corrupt local payload")
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

// LastQueuedEventType mencari tipe event terakhir yang masih mengantre untuk
// subjek tersebut pada tanggal onDate. "" kalau tidak ada.
func (s *Store) LastQueuedEventType(ctx context.Context, subjectUserID string, onDate time.Time) (string, error) {
	items, err := s.GetAll(ctx)
	if err != nil {
		return "", err
	}
	day := onDate.Format("2006-01-02")
	last := ""
	for _, p := range items {
		if p.SubjectUserID == subjectUserID && p.CapturedAtDevice.UTC().Format("2006-01-02") == day {
			last = p.EventType
		}
	}
	return last, nil
}

// Dequeue menghapus tepat satu item dengan key tersebut; no-op kalau tidak ada.
func (s *Store) Dequeue(ctx context.Context, idempotencyKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Hanya item pending: baris rejected sudah keluar dari hitungan pending
	// saat MarkRejected, dan pembuangannya lewat Discard
	res := s.db.WithContext(ctx).
		Where("idempotency_key = ? AND rejected = ?", idempotencyKey, false).
		Delete(&QueuedSyncItem{})
	if res.Error != nil {
		return apperror.Wrap(res.Error, apperror.CodeStorageFailure, "Gagal menghapus item antrian", http.StatusServiceUnavailable)
	}
	if res.RowsAffected > 0 {
		s.pending--
	}
	return nil
}

// MarkRejected menahan item di antrian tapi mengeluarkannya dari batch push
// berikutnya. Item rejected harus terlihat operator, bukan dibuang diam-diam.
func (s *Store) MarkRejected(ctx context.Context, idempotencyKey, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res := s.db.WithContext(ctx).
		Model(&QueuedSyncItem{}).
		Where("idempotency_key = ? AND rejected = ?", idempotencyKey, false).
		Updates(map[string]interface{}{"rejected": true, "reject_reason": reason})
	if res.Error != nil {
		return apperror.Wrap(res.Error, apperror.CodeStorageFailure, "Gagal menandai item rejected", http.StatusServiceUnavailable)
	}
	if res.RowsAffected > 0 {
		s.pending--
	}
	return nil
}

// ListRejected untuk layar operator: item gagal validasi yang butuh keputusan.
func (s *Store) ListRejected(ctx context.Context) ([]QueuedSyncItem, error) {
	var rows []QueuedSyncItem
	err := s.db.WithContext(ctx).
		Where("rejected = ?", true).
		Order("seq ASC").
		Find(&rows).Error
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeStorageFailure, "Gagal membaca item rejected", http.StatusServiceUnavailable)
	}
	return rows, nil
}

// Discard membuang item rejected setelah operator memutuskan. Menolak item
// yang belum rejected supaya data live tidak bisa dibuang lewat jalur ini.
func (s *Store) Discard(ctx context.Context, idempotencyKey string) error {
	res := s.db.WithContext(ctx).
		Where("idempotency_key = ? AND rejected = ?", idempotencyKey, true).
		Delete(&QueuedSyncItem{})
	if res.Error != nil {
		return apperror.Wrap(res.Error, apperror.CodeStorageFailure, "Gagal membuang item rejected", http.StatusServiceUnavailable)
	}
	if res.RowsAffected == 0 {
		return errors.New("rejected item not found")
	}
	return nil
}

// Count mengembalikan jumlah item pending dari cache, tanpa query.
func (s *Store) Count() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}
