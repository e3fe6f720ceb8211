package summary

import (
	"time"

	"go-presensi/internal/policy"

	"github.com/google/uuid"
)

// AttendanceSummary adalah state turunan per (subject, tanggal): selalu bisa
// dihitung ulang dari event mentah, kecuali sudah di-override manusia.
type AttendanceSummary struct {
	ID              uuid.UUID   `gorm:"column:id;type:uuid;primaryKey;default:gen_random_uuid()"`
	TenantID        uuid.UUID   `gorm:"column:tenant_id;type:uuid;not null;index"`
	BranchID        uuid.UUID   `gorm:"column:branch_id;type:uuid;not null;index"`
	SubjectType     string      `gorm:"column:subject_type;type:varchar(10);not null"`
	SubjectUserID   uuid.UUID   `gorm:"column:subject_user_id;type:uuid;not null;uniqueIndex:uq_attendance_summaries_subject_date"`
	SummaryDate     time.Time   `gorm:"column:summary_date;type:date;not null;uniqueIndex:uq_attendance_summaries_subject_date"`
	Status          string      `gorm:"column:status;type:varchar(15);not null;default:ABSENT"`
	EarliestCheckIn *time.Time  `gorm:"column:earliest_check_in;type:timestamptz"`
	LatestCheckOut  *time.Time  `gorm:"column:latest_check_out;type:timestamptz"`
	LateMinutes     int         `gorm:"column:late_minutes;not null;default:0"`
	Flags           policy.Flag `gorm:"column:flags;type:smallint;not null;default:0"`
	OverrideReason  *string     `gorm:"column:override_reason;type:text"`
	OverriddenBy    *uuid.UUID  `gorm:"column:overridden_by;type:uuid"`
	OverriddenAt    *time.Time  `gorm:"column:overridden_at;type:timestamptz"`
	CreatedAt       time.Time   `gorm:"column:created_at"`
	UpdatedAt       time.Time   `gorm:"column:updated_at"`
}

func (AttendanceSummary) TableName() string {
	return "attendance_summaries"
}
