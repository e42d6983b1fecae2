package compensationerrors

import (
	"net/http"

	"go-hris-engine/internal/shared/apperror"
)

var (
	ErrCompensationProfileNotFound = apperror.New(
		apperror.CodeNotFound,
		"compensation profile not found",
		http.StatusNotFound,
	)
	ErrInvalidEmployeeID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid employee id",
		http.StatusBadRequest,
	)
	ErrInvalidAmount = apperror.New(
		apperror.CodeInvalidInput,
		"amounts must be non-negative decimal numbers",
		http.StatusBadRequest,
	)
	ErrEmployeeNotFound = apperror.New(
		apperror.CodeNotFound,
		"employee not found",
		http.StatusNotFound,
	)
)
