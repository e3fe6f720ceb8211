package subject

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Subject adalah learner atau staff yang bisa discan di gerbang.
type Subject struct {
	ID          uuid.UUID      `gorm:"column:id;type:uuid;primaryKey;default:gen_random_uuid()"`
	TenantID    uuid.UUID      `gorm:"column:tenant_id;type:uuid;not null;index"`
	BranchID    uuid.UUID      `gorm:"column:branch_id;type:uuid;not null;index"`
	UserID      uuid.UUID      `gorm:"column:user_id;type:uuid;not null;index"`
	SubjectType string         `gorm:"column:subject_type;type:varchar(10);not null"`
	FullName    string         `gorm:"column:full_name;type:varchar(120);not null"`
	Grade       *string        `gorm:"column:grade;type:varchar(20)"`
	ClassName   *string        `gorm:"column:class_name;type:varchar(60)"`
	QRToken     string         `gorm:"column:qr_token;type:varchar(100);not null;uniqueIndex"`
	PINCode     *string        `gorm:"column:pin_code;type:varchar(12);index"`
	IsActive    bool           `gorm:"column:is_active;not null;default:true"`
	CreatedAt   time.Time      `gorm:"column:created_at"`
	UpdatedAt   time.Time      `gorm:"column:updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"column:deleted_at;index"`
}

func (Subject) TableName() string {
	return "attendance_subjects"
}

// SubjectBlock menahan subjek dari check-in (misal sanksi administratif).
// Scan subjek yang diblokir tetap ditolak dengan alasan, tanpa mencatat event.
type SubjectBlock struct {
	ID            uuid.UUID  `gorm:"column:id;type:uuid;primaryKey;default:gen_random_uuid()"`
	TenantID      uuid.UUID  `gorm:"column:tenant_id;type:uuid;not null;index"`
	SubjectUserID uuid.UUID  `gorm:"column:subject_user_id;type:uuid;not null;index"`
	Reason        string     `gorm:"column:reason;type:text;not null"`
	StartsAt      time.Time  `gorm:"column:starts_at;type:timestamptz;not null"`
	EndsAt        *time.Time `gorm:"column:ends_at;type:timestamptz"`
	CreatedAt     time.Time  `gorm:"column:created_at"`
}

func (SubjectBlock) TableName() string {
	return "subject_blocks"
}

// EarlyLeavePermit adalah izin pulang lebih awal untuk satu tanggal, dengan
// data penjemput yang sudah diverifikasi staf. Kiosk wajib menampilkan nama
// dan relasi penjemput sebelum acknowledge.
type EarlyLeavePermit struct {
	ID                   uuid.UUID `gorm:"column:id;type:uuid;primaryKey;default:gen_random_uuid()"`
	TenantID             uuid.UUID `gorm:"column:tenant_id;type:uuid;not null;index"`
	SubjectUserID        uuid.UUID `gorm:"column:subject_user_id;type:uuid;not null;index:idx_early_leave_permits_subject_date"`
	PermitDate           time.Time `gorm:"column:permit_date;type:date;not null;index:idx_early_leave_permits_subject_date"`
	PickupPersonName     string    `gorm:"column:pickup_person_name;type:varchar(120);not null"`
	PickupPersonRelation string    `gorm:"column:pickup_person_relation;type:varchar(60);not null"`
	Verified             bool      `gorm:"column:verified;not null;default:false"`
	CreatedAt            time.Time `gorm:"column:created_at"`
}

func (EarlyLeavePermit) TableName() string {
	return "early_leave_permits"
}
