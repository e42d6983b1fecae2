package payrollerrors

import (
	"net/http"

	"go-hris-engine/internal/shared/apperror"
)

var (
	ErrInvalidPeriod = apperror.New(
		apperror.CodeInvalidInput,
		"month must be between 1 and 12 and year between 2000 and 9999",
		http.StatusBadRequest,
	)
	ErrInvalidLineItemID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid payroll line item id",
		http.StatusBadRequest,
	)
	ErrInvalidMoneyValue = apperror.New(
		apperror.CodeInvalidInput,
		"salary component values must be non-negative decimal numbers",
		http.StatusBadRequest,
	)
	ErrCompensationProfileMissing = apperror.New(
		apperror.CodePreconditionViolation,
		"employee has no compensation profile",
		http.StatusUnprocessableEntity,
	)
	ErrNegativeBaseSalary = apperror.New(
		apperror.CodePreconditionViolation,
		"base salary cannot be negative",
		http.StatusUnprocessableEntity,
	)
	ErrProfileEmployeeMismatch = apperror.New(
		apperror.CodePreconditionViolation,
		"compensation profile belongs to another employee",
		http.StatusUnprocessableEntity,
	)
	ErrLineItemNotFound = apperror.New(
		apperror.CodeNotFound,
		"payroll line item not found",
		http.StatusNotFound,
	)
	ErrLineItemAlreadyIssued = apperror.New(
		apperror.CodeInvalidState,
		"payroll line item can only be adjusted before its payslip is generated",
		http.StatusConflict,
	)
)
