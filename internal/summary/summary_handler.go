package summary

import (
	"net/http"
	"strconv"
	"time"

	"go-presensi/internal/event"
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

// GET /attendance/exceptions?branch_id=&flag=
func (h *Handler) ListExceptions(c *gin.Context) {
	branchID := c.Query("branch_id")
	if branchID == "" {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "branch_id wajib diisi", nil)
		return
	}
	flagName := c.Query("flag")

	resp, err := h.service.ListExceptions(c.Request.Context(), branchID, flagName)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if pageSize < 1 {
		pageSize = 20
	}

	total := int64(len(resp))
	start := (page - 1) * pageSize
	end := start + pageSize
	if start > len(resp) {
		start = len(resp)
	}
	if end > len(resp) {
		end = len(resp)
	}

	meta := response.NewPaginationMeta(total, page, pageSize)
	response.Success(c, http.StatusOK, resp[start:end], &meta)
}

// PATCH /attendance/exceptions/:id/resolve
func (h *Handler) ResolveException(c *gin.Context) {
	actorID := c.GetString("user_id_validated")
	if actorID == "" {
		actorID = c.GetString("user_id")
	}

	var req ResolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		mapped := apperror.ToHTTP(apperror.MapValidationError(err))
		response.Error(c, mapped.Status, mapped.Code, mapped.Message, nil)
		return
	}

	resp, err := h.service.Resolve(c.Request.Context(), c.Param("id"), actorID, req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, resp, nil)
}

// GET /attendance/learner/branch?branch_id=&date=
func (h *Handler) LearnerBranchSummaries(c *gin.Context) {
	branchID := c.Query("branch_id")
	if branchID == "" {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "branch_id wajib diisi", nil)
		return
	}

	date := time.Now().UTC()
	if raw := c.Query("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Format date harus YYYY-MM-DD", nil)
			return
		}
		date = parsed
	}

	resp, err := h.service.ListByBranchAndDate(c.Request.Context(), branchID, event.SubjectLearner, date)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, resp, nil)
}

// GET /attendance/staff/today?branch_id=
func (h *Handler) StaffTodaySummaries(c *gin.Context) {
	branchID := c.Query("branch_id")
	if branchID == "" {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "branch_id wajib diisi", nil)
		return
	}

	resp, err := h.service.ListByBranchAndDate(c.Request.Context(), branchID, event.SubjectStaff, time.Now().UTC())
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, resp, nil)
}
