package sync

import (
	"net/http"

	"go-presensi/internal/shared/apperror"
	"go-presensi/internal/shared/response"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func writeServiceError(c *gin.Context, err error) {
	httpErr := apperror.ToHTTP(err)
	response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
}

// POST /sync/push
func (h *Handler) Push(c *gin.Context) {
	deviceCode := c.GetString("device_code")

	var req PushRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Input tidak valid", err.Error())
		return
	}

	resp, err := h.service.Push(c.Request.Context(), deviceCode, req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, resp, nil)
}

// GET /sync/pull?branch_id=
func (h *Handler) Pull(c *gin.Context) {
	branchID := c.Query("branch_id")
	if branchID == "" {
		// Device sudah terautentikasi: pakai cabang device itu sendiri
		branchID = c.GetString("branch_id")
	}
	if branchID == "" {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "branch_id wajib diisi", nil)
		return
	}

	resp, err := h.service.Pull(c.Request.Context(), branchID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, resp, nil)
}
