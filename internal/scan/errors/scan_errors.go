package scanerrors

import (
	"net/http"

	"go-presensi/internal/shared/apperror"
)

var (
	ErrUnknownToken = apperror.New(
		apperror.CodeNotFound,
		"QR token is not recognized",
		http.StatusNotFound,
	)

	ErrUnknownPIN = apperror.New(
		apperror.CodeNotFound,
		"PIN is not recognized",
		http.StatusNotFound,
	)

	ErrMissingCredential = apperror.New(
		apperror.CodeInvalidInput,
		"Either qr_token or pin_code is required",
		http.StatusBadRequest,
	)
)
