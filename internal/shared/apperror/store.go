package apperror

import (
	"context"
	"database/sql/driver"
	"errors"
	"net"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// PostgreSQL SQLSTATE classes that mean the server cannot serve the request
// right now: connection exception, insufficient resources, operator intervention.
var unavailableClasses = []string{"08", "53", "57"}

// FromStore maps a driver/ORM error to ErrStoreUnavailable when it signals that the
// database cannot be reached. Everything else is returned unchanged.
func FromStore(err error) error {
	if err == nil {
		return nil
	}
	if IsStoreUnavailable(err) {
		return err
	}
	if isUnavailable(err) {
		return WithCause(ErrStoreUnavailable, err)
	}
	return err
}

func isUnavailable(err error) bool {
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		for _, class := range unavailableClasses {
			if strings.HasPrefix(pgErr.Code, class) {
				return true
			}
		}
		return false
	}

	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return true
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}

// IsUniqueViolation reports whether err is a unique constraint violation,
// optionally on the named constraint.
func IsUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" && (constraint == "" || pgErr.ConstraintName == constraint)
	}

	errMsg := strings.ToLower(err.Error())
	if !strings.Contains(errMsg, "duplicate key value") && !strings.Contains(errMsg, "unique constraint failed") {
		return false
	}
	return constraint == "" || strings.Contains(errMsg, constraint)
}
