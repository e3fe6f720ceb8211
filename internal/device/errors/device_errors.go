package deviceerrors

import (
	"net/http"

	"go-presensi/internal/shared/apperror"
)

var (
	ErrDeviceNotFound = apperror.New(
		apperror.CodeNotFound,
		"Device is not registered",
		http.StatusNotFound,
	)

	ErrDeviceInactive = apperror.New(
		apperror.CodeForbidden,
		"Device has been deactivated",
		http.StatusForbidden,
	)

	ErrDeviceCodeTaken = apperror.New(
		apperror.CodeConflict,
		"Device code is already registered",
		http.StatusConflict,
	)

	ErrInvalidAPIKey = apperror.New(
		apperror.CodeUnauthorized,
		"Device API key is invalid",
		http.StatusUnauthorized,
	)
)
