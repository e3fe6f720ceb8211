package events

import "time"

const AttendanceRecordedTopic = "school.attendance.recorded.v1"

// AttendanceRecordedEvent dipublikasikan setiap event presensi baru tersimpan
// (status created, bukan duplicate). Consumer memakai field subjek + tanggal
// untuk recompute ringkasan harian.
type AttendanceRecordedEvent struct {
	EventType     string    `json:"event_type"`
	RequestID     string    `json:"request_id,omitempty"`
	TenantID      string    `json:"tenant_id"`
	BranchID      string    `json:"branch_id"`
	SubjectType   string    `json:"subject_type"`
	SubjectUserID string    `json:"subject_user_id"`
	Date          string    `json:"date"` // YYYY-MM-DD, hari yang harus direcompute
	OccurredAt    time.Time `json:"occurred_at"`
}
