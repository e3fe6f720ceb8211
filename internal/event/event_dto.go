package event

import "time"

// EventPayload adalah bentuk wire per item di /sync/push, sama dengan skema
// antrian lokal di sisi device.
type EventPayload struct {
	IdempotencyKey   string    `json:"idempotency_key" binding:"required"`
	TenantID         string    `json:"tenant_id" binding:"required"`
	BranchID         string    `json:"branch_id" binding:"required"`
	SubjectType      string    `json:"subject_type" binding:"required"`
	SubjectUserID    string    `json:"subject_user_id" binding:"required"`
	EventType        string    `json:"event_type" binding:"required"`
	Source           string    `json:"source" binding:"required"`
	CapturedAtDevice time.Time `json:"captured_at_device" binding:"required"`
	CapturedLat      *float64  `json:"captured_lat,omitempty"`
	CapturedLng      *float64  `json:"captured_lng,omitempty"`
	CapturedAccuracy *float64  `json:"captured_accuracy_m,omitempty"`
	QRToken          *string   `json:"qr_token,omitempty"`
}

type EventResponse struct {
	ID               string    `json:"id"`
	IdempotencyKey   string    `json:"idempotency_key"`
	TenantID         string    `json:"tenant_id"`
	BranchID         string    `json:"branch_id"`
	SubjectType      string    `json:"subject_type"`
	SubjectUserID    string    `json:"subject_user_id"`
	EventType        string    `json:"event_type"`
	Source           string    `json:"source"`
	CapturedAtDevice time.Time `json:"captured_at_device"`
	ReceivedAt       time.Time `json:"received_at"`
}

func MapToResponse(e AttendanceEvent) EventResponse {
	return EventResponse{
		ID:               e.ID.String(),
		IdempotencyKey:   e.IdempotencyKey,
		TenantID:         e.TenantID.String(),
		BranchID:         e.BranchID.String(),
		SubjectType:      e.SubjectType,
		SubjectUserID:    e.SubjectUserID.String(),
		EventType:        e.EventType,
		Source:           e.Source,
		CapturedAtDevice: e.CapturedAtDevice,
		ReceivedAt:       e.ReceivedAt,
	}
}
