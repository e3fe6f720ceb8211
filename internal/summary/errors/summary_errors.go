package summaryerrors

import (
	"net/http"

	"go-presensi/internal/shared/apperror"
)

var (
	ErrSummaryNotFound = apperror.New(
		apperror.CodeNotFound,
		"Attendance summary not found",
		http.StatusNotFound,
	)

	ErrNotAnException = apperror.New(
		apperror.CodeInvalidState,
		"Summary has no outstanding exception to resolve",
		http.StatusConflict,
	)

	ErrAlreadyOverridden = apperror.New(
		apperror.CodeConflict,
		"Summary has already been overridden",
		http.StatusConflict,
	)

	ErrInvalidStatus = apperror.New(
		apperror.CodeInvalidInput,
		"New status is not a valid attendance status",
		http.StatusBadRequest,
	)

	ErrPolicyNotFound = apperror.New(
		apperror.CodeNotFound,
		"No attendance policy configured for this branch and subject type",
		http.StatusNotFound,
	)
)
