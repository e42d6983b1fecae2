// Package onboarding drives the ONBOARDING process of new employees.
package onboarding

import (
	"context"
	"errors"
	"time"

	"go-hris-engine/internal/leave"
	onboardingerrors "go-hris-engine/internal/onboarding/errors"
	"go-hris-engine/internal/process"
	processerrors "go-hris-engine/internal/process/errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BalanceSeeder creates the employee's first leave balance if it is missing.
type BalanceSeeder interface {
	InitializeBalance(ctx context.Context, employeeID uuid.UUID, asOf time.Time) (leave.BalanceResponse, error)
}

type Service interface {
	Begin(ctx context.Context, employeeID uuid.UUID, hireDate time.Time, initiatorID *uuid.UUID) (*process.Instance, error)
	Verify(ctx context.Context, actorID, employeeID uuid.UUID, remarks string) (*process.Instance, error)
	Complete(ctx context.Context, actorID, employeeID uuid.UUID, remarks string) (*process.Instance, error)
	Reject(ctx context.Context, actorID, employeeID uuid.UUID, remarks string) (*process.Instance, error)
	Status(ctx context.Context, employeeID uuid.UUID) (*process.Instance, error)
}

type service struct {
	engine   process.Engine
	balances BalanceSeeder
	logger   *zap.Logger
}

func NewService(engine process.Engine, balances BalanceSeeder, logger ...*zap.Logger) Service {
	l := zap.L().Named("onboarding.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("onboarding.service")
	}
	return &service{engine: engine, balances: balances, logger: l}
}

// Begin seeds the leave balance and starts onboarding. Calling it again for the
// same employee returns the existing process, so replayed events are harmless.
// The store allows one ONBOARDING instance per employee, which settles
// concurrent deliveries.
func (s *service) Begin(ctx context.Context, employeeID uuid.UUID, hireDate time.Time, initiatorID *uuid.UUID) (*process.Instance, error) {
	if employeeID == uuid.Nil {
		return nil, onboardingerrors.ErrInvalidEmployeeID
	}
	s.logger.Debug("begin onboarding requested", zap.String("employee_id", employeeID.String()))

	existing, err := s.engine.FindLatestByReference(ctx, process.TypeOnboarding, employeeID)
	if err == nil {
		s.logger.Info("onboarding already started",
			zap.String("employee_id", employeeID.String()),
			zap.String("process_instance_id", existing.ID.String()),
		)
		return existing, nil
	}
	if !errors.Is(err, processerrors.ErrProcessNotFound) {
		return nil, err
	}

	if hireDate.IsZero() {
		hireDate = time.Now().UTC()
	}
	if _, err := s.balances.InitializeBalance(ctx, employeeID, hireDate); err != nil {
		s.logger.Error("begin onboarding seed leave balance failed",
			zap.String("employee_id", employeeID.String()),
			zap.Error(err),
		)
		return nil, err
	}

	instance, err := s.engine.Start(ctx, process.TypeOnboarding, employeeID, employeeID, initiatorID,
		"employee onboarding started",
		map[string]any{"hire_date": hireDate.Format("2006-01-02")},
	)
	if errors.Is(err, processerrors.ErrProcessAlreadyStarted) {
		// a concurrent delivery of the same event got there first
		return s.engine.FindLatestByReference(ctx, process.TypeOnboarding, employeeID)
	}
	if err != nil {
		s.logger.Error("begin onboarding start process failed",
			zap.String("employee_id", employeeID.String()),
			zap.Error(err),
		)
		return nil, err
	}

	s.logger.Info("onboarding started",
		zap.String("employee_id", employeeID.String()),
		zap.String("process_instance_id", instance.ID.String()),
	)
	return instance, nil
}

func (s *service) Verify(ctx context.Context, actorID, employeeID uuid.UUID, remarks string) (*process.Instance, error) {
	return s.transition(ctx, actorID, employeeID, process.StatusVerified, remarks, "documents verified")
}

func (s *service) Complete(ctx context.Context, actorID, employeeID uuid.UUID, remarks string) (*process.Instance, error) {
	return s.transition(ctx, actorID, employeeID, process.StatusCompleted, remarks, "onboarding completed")
}

func (s *service) Reject(ctx context.Context, actorID, employeeID uuid.UUID, remarks string) (*process.Instance, error) {
	return s.transition(ctx, actorID, employeeID, process.StatusRejected, remarks, "onboarding rejected")
}

func (s *service) Status(ctx context.Context, employeeID uuid.UUID) (*process.Instance, error) {
	instance, err := s.engine.FindLatestByReference(ctx, process.TypeOnboarding, employeeID)
	if errors.Is(err, processerrors.ErrProcessNotFound) {
		return nil, onboardingerrors.ErrOnboardingNotFound
	}
	return instance, err
}

func (s *service) transition(
	ctx context.Context,
	actorID, employeeID uuid.UUID,
	status process.Status,
	remarks, defaultRemarks string,
) (*process.Instance, error) {
	current, err := s.Status(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	if remarks == "" {
		remarks = defaultRemarks
	}

	instance, err := s.engine.UpdateStatus(ctx, current.ID, status, &actorID, remarks, nil)
	if err != nil {
		s.logger.Warn("onboarding transition failed",
			zap.String("employee_id", employeeID.String()),
			zap.String("from", string(current.Status)),
			zap.String("to", string(status)),
			zap.Error(err),
		)
		return nil, err
	}

	s.logger.Info("onboarding transitioned",
		zap.String("employee_id", employeeID.String()),
		zap.String("status", string(status)),
	)
	return instance, nil
}
