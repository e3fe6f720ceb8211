package sync

import (
	"go-presensi/internal/device"
	"go-presensi/internal/event"
	"go-presensi/internal/policy"
)

const (
	ItemStatusCreated   = "created"
	ItemStatusDuplicate = "duplicate"
	ItemStatusRejected  = "rejected"
)

type PushRequest struct {
	Events []event.EventPayload `json:"events" binding:"required"`
}

type PushItemResult struct {
	IdempotencyKey string `json:"idempotency_key"`
	Status         string `json:"status"`
	Reason         string `json:"reason,omitempty"`
}

type PushResponse struct {
	Status  string           `json:"status"`
	Results []PushItemResult `json:"results"`
}

// RosterEntry adalah satu baris direktori subjek yang dibawa kiosk untuk
// resolusi token saat offline.
type RosterEntry struct {
	SubjectUserID string  `json:"subject_user_id"`
	SubjectType   string  `json:"subject_type"`
	FullName      string  `json:"full_name"`
	Grade         *string `json:"grade,omitempty"`
	ClassName     *string `json:"class_name,omitempty"`
	QRToken       string  `json:"qr_token"`
	PINCode       *string `json:"pin_code,omitempty"`
}

type PullResponse struct {
	Policies []policy.PolicyResponse `json:"policies"`
	Devices  []device.DeviceResponse `json:"devices"`
	Roster   []RosterEntry           `json:"roster"`
}
