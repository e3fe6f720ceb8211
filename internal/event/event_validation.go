package event

import (
	"net/http"
	"time"

	"go-presensi/internal/shared/apperror"

	"github.com/google/uuid"
)

// maxClockSkew membatasi seberapa jauh timestamp device boleh berada di masa
// depan. Device offline boleh mengirim event lama, tapi bukan event besok.
const maxClockSkew = 15 * time.Minute

func validSubjectType(s string) bool {
	return s == SubjectLearner || s == SubjectStaff
}

func validEventType(s string) bool {
	return s == TypeCheckIn || s == TypeCheckOut
}

func validSource(s string) bool {
	switch s {
	case SourceKioskScan, SourcePWAGeo, SourceManualRegister, SourceSystemOverride:
		return true
	default:
		return false
	}
}

// ValidatePayload memeriksa satu item push sebelum upsert. Error yang
// dikembalikan dipakai sebagai alasan "rejected" per item, bukan kegagalan
// seluruh batch.
func ValidatePayload(p EventPayload, now time.Time) (*AttendanceEvent, error) {
	if p.IdempotencyKey == "" {
		return nil, apperror.RequiredField("Idempotency Key")
	}

	tenantID, err := uuid.Parse(p.TenantID)
	if err != nil {
		return nil, apperror.InvalidField("Tenant Id")
	}
	branchID, err := uuid.Parse(p.BranchID)
	if err != nil {
		return nil, apperror.InvalidField("Branch Id")
	}
	subjectID, err := uuid.Parse(p.SubjectUserID)
	if err != nil {
		return nil, apperror.InvalidField("Subject User Id")
	}

	if !validSubjectType(p.SubjectType) {
		return nil, apperror.InvalidField("Subject Type")
	}
	if !validEventType(p.EventType) {
		return nil, apperror.InvalidField("Event Type")
	}
	if !validSource(p.Source) {
		return nil, apperror.InvalidField("Source")
	}

	if p.CapturedAtDevice.IsZero() {
		return nil, apperror.RequiredField("Captured At Device")
	}
	if p.CapturedAtDevice.After(now.Add(maxClockSkew)) {
		return nil, apperror.New(apperror.CodeInvalidInput, "Captured At Device is in the future", http.StatusBadRequest)
	}

	return &AttendanceEvent{
		IdempotencyKey:   p.IdempotencyKey,
		TenantID:         tenantID,
		BranchID:         branchID,
		SubjectType:      p.SubjectType,
		SubjectUserID:    subjectID,
		EventType:        p.EventType,
		Source:           p.Source,
		CapturedAtDevice: p.CapturedAtDevice.UTC(),
		CapturedLat:      p.CapturedLat,
		CapturedLng:      p.CapturedLng,
		CapturedAccuracy: p.CapturedAccuracy,
		QRToken:          p.QRToken,
	}, nil
}
