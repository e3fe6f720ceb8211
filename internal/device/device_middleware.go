package device

import (
	"go-presensi/internal/shared/apperror"
	"go-presensi/internal/shared/contextutil"
	"go-presensi/internal/shared/response"

	"github.com/gin-gonic/gin"
)

// DeviceAuth mengautentikasi kiosk lewat header X-Device-Code + X-Device-Key.
// Device yang lolos ditaruh di context supaya handler tidak perlu lookup lagi.
func DeviceAuth(svc Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		deviceCode := c.GetHeader("X-Device-Code")
		apiKey := c.GetHeader("X-Device-Key")

		if deviceCode == "" || apiKey == "" {
			httpErr := apperror.ToHTTP(apperror.ErrUnauthorized)
			response.Error(c, httpErr.Status, httpErr.Code, "Device credentials are required", nil)
			c.Abort()
			return
		}

		d, err := svc.Authenticate(c.Request.Context(), deviceCode, apiKey)
		if err != nil {
			httpErr := apperror.ToHTTP(err)
			response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, nil)
			c.Abort()
			return
		}

		c.Set("device_code", d.DeviceCode)
		c.Set("tenant_id", d.TenantID.String())
		c.Set("branch_id", d.BranchID.String())
		c.Set("scan_point_type", d.ScanPointType)

		ctx := contextutil.WithDeviceCode(c.Request.Context(), d.DeviceCode)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}
