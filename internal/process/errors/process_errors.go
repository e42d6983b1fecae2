package processerrors

import (
	"net/http"

	"go-hris-engine/internal/shared/apperror"
)

var (
	ErrProcessNotFound = apperror.New(
		apperror.CodeNotFound,
		"process instance not found",
		http.StatusNotFound,
	)
	ErrInvalidTransition = apperror.New(
		apperror.CodeInvalidTransition,
		"status transition is not allowed for this process type",
		http.StatusConflict,
	)
	ErrUnknownProcessType = apperror.New(
		apperror.CodeInvalidInput,
		"unknown process type",
		http.StatusBadRequest,
	)
	ErrInvalidReference = apperror.New(
		apperror.CodeInvalidInput,
		"reference id and employee id are required",
		http.StatusBadRequest,
	)
	ErrProcessAlreadyStarted = apperror.New(
		apperror.CodeConflict,
		"a process of this type already exists for the reference",
		http.StatusConflict,
	)
	ErrConcurrentUpdate = apperror.New(
		apperror.CodeConflict,
		"process instance was modified concurrently",
		http.StatusConflict,
	)
)
