package policy

import (
	"time"

	"github.com/google/uuid"
)

// AttendancePolicy adalah konfigurasi hari kerja per (branch, subject_type).
// Dimiliki admin cabang; policy engine hanya membaca. Perubahan hanya
// berlaku untuk hari yang dievaluasi setelah perubahan.
type AttendancePolicy struct {
	ID                           uuid.UUID `gorm:"column:id;type:uuid;primaryKey;default:gen_random_uuid()"`
	TenantID                     uuid.UUID `gorm:"column:tenant_id;type:uuid;not null;index"`
	BranchID                     uuid.UUID `gorm:"column:branch_id;type:uuid;not null;uniqueIndex:uq_attendance_policies_branch_subject"`
	SubjectType                  string    `gorm:"column:subject_type;type:varchar(10);not null;uniqueIndex:uq_attendance_policies_branch_subject"`
	WorkingDays                  string    `gorm:"column:working_days;type:varchar(7);not null;default:'12345'"`
	StartTime                    string    `gorm:"column:start_time;type:varchar(5);not null"`
	EndTime                      string    `gorm:"column:end_time;type:varchar(5);not null"`
	GraceMinutes                 int       `gorm:"column:grace_minutes;not null;default:10"`
	OvertimeGraceMinutes         int       `gorm:"column:overtime_grace_minutes;not null;default:30"`
	LateThresholdMinutes         int       `gorm:"column:late_threshold_minutes;not null;default:120"`
	MissingCheckoutCutoffMinutes int       `gorm:"column:missing_checkout_cutoff_minutes;not null;default:240"`
	AntiPassbackMinutes          int       `gorm:"column:anti_passback_minutes;not null;default:5"`
	CreatedAt                    time.Time `gorm:"column:created_at"`
	UpdatedAt                    time.Time `gorm:"column:updated_at"`
}

func (AttendancePolicy) TableName() string {
	return "attendance_policies"
}

// IsWorkingDay memeriksa apakah weekday termasuk hari kerja.
// WorkingDays memakai angka ISO: "12345" = Senin s/d Jumat.
func (p AttendancePolicy) IsWorkingDay(t time.Time) bool {
	iso := int(t.Weekday())
	if iso == 0 {
		iso = 7 // Sunday
	}
	for _, d := range p.WorkingDays {
		if int(d-'0') == iso {
			return true
		}
	}
	return false
}
