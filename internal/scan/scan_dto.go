package scan

const (
	ResultSuccess    = "success"
	ResultEarlyLeave = "early_leave"
	ResultBlocked    = "blocked"
)

type ScanRequest struct {
	QRToken  string `json:"qr_token"`
	PINCode  string `json:"pin_code"`
	DeviceID string `json:"device_id"`
}

type ScanResponse struct {
	Status               string `json:"status"`
	EventType            string `json:"event_type,omitempty"`
	LearnerName          string `json:"learner_name,omitempty"`
	Grade                string `json:"grade,omitempty"`
	ClassName            string `json:"class_name,omitempty"`
	Blocked              bool   `json:"blocked,omitempty"`
	BlockReason          string `json:"block_reason,omitempty"`
	EarlyLeave           bool   `json:"early_leave,omitempty"`
	PickupPersonName     string `json:"pickup_person_name,omitempty"`
	PickupPersonRelation string `json:"pickup_person_relation,omitempty"`
	IdempotencyKey       string `json:"idempotency_key,omitempty"`
}
