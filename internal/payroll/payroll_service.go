package payroll

import (
	"context"
	"errors"

	"go-hris-engine/internal/compensation"
	"go-hris-engine/internal/employee"
	employeeerrors "go-hris-engine/internal/employee/errors"
	payrollerrors "go-hris-engine/internal/payroll/errors"
	"go-hris-engine/internal/shared/apperror"
	"go-hris-engine/internal/shared/lock"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service interface {
	GetByID(ctx context.Context, id uuid.UUID) (LineItemResponse, error)
	ListByPeriod(ctx context.Context, month, year int) ([]LineItemResponse, error)
	Adjust(ctx context.Context, actorID, id uuid.UUID, req AdjustLineItemRequest) (LineItemResponse, error)
}

type service struct {
	db           *gorm.DB
	repo         Repository
	directory    employee.Directory
	compensation compensation.Repository
	locker       lock.Locker
	logger       *zap.Logger
}

func NewService(
	db *gorm.DB,
	repo Repository,
	directory employee.Directory,
	compensationRepo compensation.Repository,
	locker lock.Locker,
	logger ...*zap.Logger,
) Service {
	l := zap.L().Named("payroll.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("payroll.service")
	}
	return &service{
		db:           db,
		repo:         repo,
		directory:    directory,
		compensation: compensationRepo,
		locker:       locker,
		logger:       l,
	}
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (LineItemResponse, error) {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return LineItemResponse{}, mapRepositoryError(err)
	}
	return mapToResponse(*item), nil
}

func (s *service) ListByPeriod(ctx context.Context, month, year int) ([]LineItemResponse, error) {
	if err := ValidatePeriod(month, year); err != nil {
		return nil, err
	}
	items, err := s.repo.ListByPeriod(ctx, month, year)
	if err != nil {
		s.logger.Error("list payroll line items failed", zap.Error(err))
		return nil, apperror.FromStore(err)
	}
	return mapToListResponse(items), nil
}

// Adjust recomputes a line item from the employee's current profile with the
// request's overrides applied. It takes the same per-employee period lock as
// payroll runs, and only items whose payslip is not generated can change.
func (s *service) Adjust(ctx context.Context, actorID, id uuid.UUID, req AdjustLineItemRequest) (LineItemResponse, error) {
	s.logger.Debug("adjust payroll line item requested",
		zap.String("line_item_id", id.String()),
		zap.String("actor_id", actorID.String()),
	)

	if err := apperror.ValidateStruct(req); err != nil {
		s.logger.Warn("adjust payroll line item validation failed", zap.Error(err))
		return LineItemResponse{}, err
	}

	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return LineItemResponse{}, mapRepositoryError(err)
	}
	e, err := s.directory.FindByID(ctx, current.EmployeeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return LineItemResponse{}, employeeerrors.ErrEmployeeNotFound
		}
		return LineItemResponse{}, apperror.FromStore(err)
	}

	release, err := s.locker.Acquire(ctx, lock.PayrollKey(current.EmployeeID, current.Month, current.Year))
	if err != nil {
		s.logger.Warn("adjust payroll line item lock failed", zap.String("line_item_id", id.String()), zap.Error(err))
		return LineItemResponse{}, err
	}
	defer release()

	var adjusted *LineItem
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		qtx := s.repo.WithTx(tx)

		item, err := qtx.FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if item.Status != StatusCreated && item.Status != StatusNotCreated {
			return payrollerrors.ErrLineItemAlreadyIssued
		}

		profile, err := s.compensation.WithTx(tx).FindByEmployeeID(ctx, item.EmployeeID)
		if err != nil {
			return err
		}
		if profile == nil {
			return payrollerrors.ErrCompensationProfileMissing
		}
		overridden, err := overlay(*profile, req)
		if err != nil {
			return err
		}

		c, err := Compute(*e, &overridden)
		if err != nil {
			return err
		}
		item.apply(c)
		if err := qtx.Update(ctx, item); err != nil {
			return err
		}
		adjusted = item
		return nil
	})
	if err != nil {
		if apperror.CodeOf(err) == "" && !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Error("adjust payroll line item persist failed", zap.Error(err))
		}
		return LineItemResponse{}, mapRepositoryError(err)
	}

	s.logger.Info("adjust payroll line item success",
		zap.String("line_item_id", id.String()),
		zap.String("actor_id", actorID.String()),
		zap.String("net_salary", adjusted.NetSalary.StringFixed(2)),
		zap.String("remarks", req.Remarks),
	)
	return mapToResponse(*adjusted), nil
}

func overlay(p compensation.Profile, req AdjustLineItemRequest) (compensation.Profile, error) {
	overrides := []struct {
		raw *string
		dst *decimal.NullDecimal
	}{
		{req.HRA, &p.HRA},
		{req.DA, &p.DA},
		{req.Conveyance, &p.Conveyance},
		{req.Bonus, &p.Bonus},
		{req.PF, &p.PF},
		{req.ESI, &p.ESI},
		{req.Tax, &p.Tax},
		{req.OtherDeductions, &p.OtherDeductions},
	}
	for _, o := range overrides {
		if o.raw == nil {
			continue
		}
		amount, err := decimal.NewFromString(*o.raw)
		if err != nil || amount.IsNegative() {
			return compensation.Profile{}, payrollerrors.ErrInvalidMoneyValue
		}
		*o.dst = decimal.NewNullDecimal(amount)
	}
	return p, nil
}

func mapRepositoryError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return payrollerrors.ErrLineItemNotFound
	}
	return apperror.FromStore(err)
}
