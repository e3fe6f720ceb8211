package queue

import "time"

// QueuedSyncItem adalah satu event presensi yang belum terkirim ke server.
// Disimpan di SQLite lokal kiosk supaya selamat dari restart maupun mati listrik.
type QueuedSyncItem struct {
	Seq            int64     `gorm:"primaryKey;autoIncrement"`
	IdempotencyKey string    `gorm:"size:128;uniqueIndex:uq_kiosk_queue_idem_key;not null"`
	Payload        string    `gorm:"type:text;not null"` // event.EventPayload as JSON
	Rejected       bool      `gorm:"not null;default:false"`
	RejectReason   string    `gorm:"size:255"`
	EnqueuedAt     time.Time `gorm:"not null"`
}

func (QueuedSyncItem) TableName() string {
	return "kiosk_sync_queue"
}
