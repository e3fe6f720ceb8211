package device

import (
	"time"

	"github.com/google/uuid"
)

const (
	ScanPointGate      = "GATE"
	ScanPointClassroom = "CLASSROOM"
	ScanPointStaffRoom = "STAFF_ROOM"
)

// Device adalah kiosk terdaftar. Terdaftar pada kontak pertama, tidak pernah
// dihapus diam-diam; hanya dinonaktifkan.
type Device struct {
	ID              uuid.UUID  `gorm:"column:id;type:uuid;primaryKey;default:gen_random_uuid()"`
	TenantID        uuid.UUID  `gorm:"column:tenant_id;type:uuid;not null;index"`
	BranchID        uuid.UUID  `gorm:"column:branch_id;type:uuid;not null;index"`
	DeviceCode      string     `gorm:"column:device_code;type:varchar(60);not null;uniqueIndex"`
	LocationLabel   string     `gorm:"column:location_label;type:varchar(120);not null"`
	ScanPointType   string     `gorm:"column:scan_point_type;type:varchar(20);not null;default:GATE"`
	APIKeyHash      string     `gorm:"column:api_key_hash;type:varchar(100);not null"`
	IsActive        bool       `gorm:"column:is_active;not null;default:true"`
	LastHeartbeatAt *time.Time `gorm:"column:last_heartbeat_at;type:timestamptz"`
	CreatedAt       time.Time  `gorm:"column:created_at"`
	UpdatedAt       time.Time  `gorm:"column:updated_at"`
}

func (Device) TableName() string {
	return "devices"
}
