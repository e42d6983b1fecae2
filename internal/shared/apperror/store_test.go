package apperror_test

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"testing"

	"go-hris-engine/internal/shared/apperror"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestFromStore(t *testing.T) {
	t.Run("nil stays nil", func(t *testing.T) {
		assert.NoError(t, apperror.FromStore(nil))
	})

	t.Run("bad connection is unavailable", func(t *testing.T) {
		err := apperror.FromStore(fmt.Errorf("query: %w", driver.ErrBadConn))
		assert.True(t, apperror.IsStoreUnavailable(err))
		assert.ErrorIs(t, err, apperror.ErrStoreUnavailable)
		assert.ErrorIs(t, err, driver.ErrBadConn)
	})

	t.Run("deadline is unavailable", func(t *testing.T) {
		err := apperror.FromStore(context.DeadlineExceeded)
		assert.True(t, apperror.IsStoreUnavailable(err))
	})

	t.Run("connection exception class", func(t *testing.T) {
		err := apperror.FromStore(&pgconn.PgError{Code: "08006"})
		assert.True(t, apperror.IsStoreUnavailable(err))
	})

	t.Run("constraint violation passes through", func(t *testing.T) {
		pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "uq_x"}
		err := apperror.FromStore(pgErr)
		assert.False(t, apperror.IsStoreUnavailable(err))
		assert.Same(t, pgErr, err)
	})

	t.Run("plain error passes through", func(t *testing.T) {
		plain := errors.New("boom")
		assert.Same(t, plain, apperror.FromStore(plain))
	})
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, apperror.IsUniqueViolation(&pgconn.PgError{Code: "23505", ConstraintName: "uq_a"}, "uq_a"))
	assert.False(t, apperror.IsUniqueViolation(&pgconn.PgError{Code: "23505", ConstraintName: "uq_b"}, "uq_a"))
	assert.True(t, apperror.IsUniqueViolation(errors.New("UNIQUE constraint failed: leave_balances.employee_id"), ""))
	assert.False(t, apperror.IsUniqueViolation(errors.New("syntax error"), ""))
}

func TestAppError_IsMatchesWrappedSentinel(t *testing.T) {
	sentinel := apperror.New(apperror.CodeNotFound, "thing not found", 404)
	wrapped := fmt.Errorf("lookup: %w", apperror.WithCause(sentinel, errors.New("no rows")))

	assert.ErrorIs(t, wrapped, sentinel)
	assert.True(t, apperror.IsNotFound(wrapped))
	assert.NotErrorIs(t, wrapped, apperror.New(apperror.CodeNotFound, "other not found", 404))
}

func TestValidateStruct(t *testing.T) {
	type payload struct {
		EmployeeID string `json:"employee_id" validate:"required,uuid"`
	}

	err := apperror.ValidateStruct(payload{})
	assert.EqualError(t, err, "Employee Id is required")

	err = apperror.ValidateStruct(payload{EmployeeID: "nope"})
	assert.EqualError(t, err, "Employee Id is invalid")

	assert.NoError(t, apperror.ValidateStruct(payload{EmployeeID: "6f1f9b5e-8d0a-4c59-9a4e-2b7d8a1c3e55"}))
}
