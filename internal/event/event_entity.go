package event

import (
	"time"

	"github.com/google/uuid"
)

const (
	SubjectLearner = "LEARNER"
	SubjectStaff   = "STAFF"

	TypeCheckIn  = "CHECK_IN"
	TypeCheckOut = "CHECK_OUT"

	SourceKioskScan      = "KIOSK_SCAN"
	SourcePWAGeo         = "PWA_GEO"
	SourceManualRegister = "MANUAL_REGISTER"
	SourceSystemOverride = "SYSTEM_OVERRIDE"
)

// AttendanceEvent adalah fakta immutable: sekali tersimpan tidak pernah
// diubah. Idempotency key unik seumur hidup sistem; replay dengan key yang
// sama harus mendarat di baris yang sama.
type AttendanceEvent struct {
	ID               uuid.UUID  `gorm:"column:id;type:uuid;primaryKey;default:gen_random_uuid()"`
	IdempotencyKey   string     `gorm:"column:idempotency_key;type:varchar(120);not null;uniqueIndex:uq_attendance_events_idem_key"`
	TenantID         uuid.UUID  `gorm:"column:tenant_id;type:uuid;not null;index"`
	BranchID         uuid.UUID  `gorm:"column:branch_id;type:uuid;not null;index"`
	SubjectType      string     `gorm:"column:subject_type;type:varchar(10);not null"`
	SubjectUserID    uuid.UUID  `gorm:"column:subject_user_id;type:uuid;not null;index:idx_attendance_events_subject_day"`
	EventType        string     `gorm:"column:event_type;type:varchar(10);not null"`
	Source           string     `gorm:"column:source;type:varchar(20);not null"`
	CapturedAtDevice time.Time  `gorm:"column:captured_at_device;type:timestamptz;not null;index:idx_attendance_events_subject_day"`
	CapturedLat      *float64   `gorm:"column:captured_lat"`
	CapturedLng      *float64   `gorm:"column:captured_lng"`
	CapturedAccuracy *float64   `gorm:"column:captured_accuracy_m"`
	QRToken          *string    `gorm:"column:qr_token;type:varchar(100)"`
	DeviceCode       *string    `gorm:"column:device_code;type:varchar(60)"`
	ReceivedAt       time.Time  `gorm:"column:received_at;type:timestamptz;not null;default:now()"`
	CreatedAt        time.Time  `gorm:"column:created_at"`
}

func (AttendanceEvent) TableName() string {
	return "attendance_events"
}
