package policy

import (
	"context"
	"net/http"
	"time"

	"go-presensi/internal/shared/apperror"
	"go-presensi/internal/shared/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type UpsertPolicyRequest struct {
	BranchID                     string `json:"branch_id" binding:"required"`
	SubjectType                  string `json:"subject_type" binding:"required,oneof=LEARNER STAFF"`
	WorkingDays                  string `json:"working_days" binding:"required"`
	StartTime                    string `json:"start_time" binding:"required"`
	EndTime                      string `json:"end_time" binding:"required"`
	GraceMinutes                 int    `json:"grace_minutes"`
	OvertimeGraceMinutes         int    `json:"overtime_grace_minutes"`
	LateThresholdMinutes         int    `json:"late_threshold_minutes"`
	MissingCheckoutCutoffMinutes int    `json:"missing_checkout_cutoff_minutes"`
	AntiPassbackMinutes          int    `json:"anti_passback_minutes"`
}

type Handler struct {
	repo Repository
}

func NewHandler(repo Repository) *Handler {
	return &Handler{repo: repo}
}

// GET /attendance/policies?branch_id=
func (h *Handler) ListByBranch(c *gin.Context) {
	branchID := c.Query("branch_id")
	if branchID == "" {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "branch_id wajib diisi", nil)
		return
	}

	policies, err := h.repo.ListByBranch(c.Request.Context(), branchID)
	if err != nil {
		httpErr := apperror.ToHTTP(err)
		response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, nil)
		return
	}

	out := make([]PolicyResponse, len(policies))
	for i, p := range policies {
		out[i] = MapToResponse(p)
	}
	response.Success(c, http.StatusOK, out, nil)
}

// PUT /attendance/policies
func (h *Handler) Upsert(c *gin.Context) {
	var req UpsertPolicyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		mapped := apperror.ToHTTP(apperror.MapValidationError(err))
		response.Error(c, mapped.Status, mapped.Code, mapped.Message, nil)
		return
	}

	p, err := buildPolicy(c.Request.Context(), c.GetString("tenant_id"), req)
	if err != nil {
		httpErr := apperror.ToHTTP(err)
		response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, nil)
		return
	}

	if err := h.repo.Upsert(c.Request.Context(), p); err != nil {
		httpErr := apperror.ToHTTP(err)
		response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, nil)
		return
	}
	response.Success(c, http.StatusOK, MapToResponse(*p), nil)
}

func buildPolicy(_ context.Context, tenantID string, req UpsertPolicyRequest) (*AttendancePolicy, error) {
	tenantUUID, err := uuid.Parse(tenantID)
	if err != nil {
		return nil, apperror.InvalidField("Tenant Id")
	}
	branchUUID, err := uuid.Parse(req.BranchID)
	if err != nil {
		return nil, apperror.InvalidField("Branch Id")
	}
	if _, err := time.Parse("15:04", req.StartTime); err != nil {
		return nil, apperror.InvalidField("Start Time")
	}
	if _, err := time.Parse("15:04", req.EndTime); err != nil {
		return nil, apperror.InvalidField("End Time")
	}
	for _, d := range req.WorkingDays {
		if d < '1' || d > '7' {
			return nil, apperror.InvalidField("Working Days")
		}
	}

	p := &AttendancePolicy{
		TenantID:                     tenantUUID,
		BranchID:                     branchUUID,
		SubjectType:                  req.SubjectType,
		WorkingDays:                  req.WorkingDays,
		StartTime:                    req.StartTime,
		EndTime:                      req.EndTime,
		GraceMinutes:                 req.GraceMinutes,
		OvertimeGraceMinutes:         req.OvertimeGraceMinutes,
		LateThresholdMinutes:         req.LateThresholdMinutes,
		MissingCheckoutCutoffMinutes: req.MissingCheckoutCutoffMinutes,
		AntiPassbackMinutes:          req.AntiPassbackMinutes,
	}
	return p, nil
}
