package onboardingerrors

import (
	"net/http"

	"go-hris-engine/internal/shared/apperror"
)

var (
	ErrOnboardingNotFound = apperror.New(
		apperror.CodeNotFound,
		"onboarding process not found for employee",
		http.StatusNotFound,
	)
	ErrInvalidEmployeeID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid employee id",
		http.StatusBadRequest,
	)
)
