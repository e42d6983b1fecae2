package apperror

const (
	// Client errors (4xx)
	CodeInvalidInput          = "INVALID_INPUT"
	CodeNotFound              = "NOT_FOUND"
	CodeConflict              = "CONFLICT"
	CodeInvalidState          = "INVALID_STATE"
	CodeInvalidTransition     = "INVALID_TRANSITION"
	CodePreconditionViolation = "PRECONDITION_VIOLATION"

	// Server errors (5xx)
	CodeInternalError    = "INTERNAL_ERROR"
	CodeStoreUnavailable = "STORE_UNAVAILABLE"
)
