package device

import "time"

type RegisterDeviceRequest struct {
	TenantID      string `json:"tenant_id" binding:"required"`
	BranchID      string `json:"branch_id" binding:"required"`
	DeviceCode    string `json:"device_code" binding:"required"`
	LocationLabel string `json:"location_label" binding:"required"`
	ScanPointType string `json:"scan_point_type"`
}

type RegisterDeviceResponse struct {
	DeviceResponse
	// APIKey hanya dikirim sekali saat registrasi; server cuma menyimpan hash
	APIKey string `json:"api_key,omitempty"`
}

type HeartbeatRequest struct {
	DeviceCode string `json:"device_code" binding:"required"`
	QueueDepth int    `json:"queue_depth"`
}

type DeviceResponse struct {
	ID              string     `json:"id"`
	BranchID        string     `json:"branch_id"`
	DeviceCode      string     `json:"device_code"`
	LocationLabel   string     `json:"location_label"`
	ScanPointType   string     `json:"scan_point_type"`
	IsActive        bool       `json:"is_active"`
	LastHeartbeatAt *time.Time `json:"last_heartbeat_at,omitempty"`
}

func mapToResponse(d Device) DeviceResponse {
	return DeviceResponse{
		ID:              d.ID.String(),
		BranchID:        d.BranchID.String(),
		DeviceCode:      d.DeviceCode,
		LocationLabel:   d.LocationLabel,
		ScanPointType:   d.ScanPointType,
		IsActive:        d.IsActive,
		LastHeartbeatAt: d.LastHeartbeatAt,
	}
}

func MapToListResponse(rows []Device) []DeviceResponse {
	res := make([]DeviceResponse, len(rows))
	for i, d := range rows {
		res[i] = mapToResponse(d)
	}
	return res
}
