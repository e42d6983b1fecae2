// Package lock provides mutual exclusion keyed by string, either inside one
// process or across nodes through Redis.
package lock

import (
	"context"
	"fmt"
	"net/http"

	"go-hris-engine/internal/shared/apperror"

	"github.com/google/uuid"
)

var ErrLockNotAcquired = apperror.New(
	apperror.CodeConflict,
	"lock is held by another operation",
	http.StatusConflict,
)

// Release gives the lock back. Calling it more than once is a no-op.
type Release func()

//go:generate mockgen -destination=mock/locker_mock.go -package=mock . Locker
type Locker interface {
	// Acquire blocks until the key is free or ctx is done.
	Acquire(ctx context.Context, key string) (Release, error)
}

// PayrollKey is the lock key guarding one employee's line item for one period.
func PayrollKey(employeeID uuid.UUID, month, year int) string {
	return fmt.Sprintf("payroll:%s:%04d-%02d", employeeID, year, month)
}
