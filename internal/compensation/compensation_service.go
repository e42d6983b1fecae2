package compensation

import (
	"context"
	"time"

	compensationerrors "go-hris-engine/internal/compensation/errors"
	"go-hris-engine/internal/shared/apperror"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type Service interface {
	GetByEmployeeID(ctx context.Context, employeeID uuid.UUID) (ProfileResponse, error)
	Upsert(ctx context.Context, req UpsertProfileRequest) (ProfileResponse, error)
}

type service struct {
	repo   Repository
	logger *zap.Logger
}

func NewService(repo Repository, logger ...*zap.Logger) Service {
	l := zap.L().Named("compensation.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("compensation.service")
	}
	return &service{repo: repo, logger: l}
}

func (s *service) GetByEmployeeID(ctx context.Context, employeeID uuid.UUID) (ProfileResponse, error) {
	p, err := s.repo.FindByEmployeeID(ctx, employeeID)
	if err != nil {
		return ProfileResponse{}, apperror.FromStore(err)
	}
	if p == nil {
		return ProfileResponse{}, compensationerrors.ErrCompensationProfileNotFound
	}
	return mapToResponse(*p), nil
}

func (s *service) Upsert(ctx context.Context, req UpsertProfileRequest) (ProfileResponse, error) {
	s.logger.Debug("upsert compensation profile requested", zap.String("employee_id", req.EmployeeID))

	if err := apperror.ValidateStruct(req); err != nil {
		s.logger.Warn("upsert compensation profile validation failed", zap.Error(err))
		return ProfileResponse{}, err
	}
	employeeID, err := uuid.Parse(req.EmployeeID)
	if err != nil {
		return ProfileResponse{}, compensationerrors.ErrInvalidEmployeeID
	}

	p, err := buildProfile(employeeID, req)
	if err != nil {
		return ProfileResponse{}, err
	}

	exists, err := s.repo.EmployeeExists(ctx, employeeID)
	if err != nil {
		return ProfileResponse{}, apperror.FromStore(err)
	}
	if !exists {
		return ProfileResponse{}, compensationerrors.ErrEmployeeNotFound
	}

	if err := s.repo.Upsert(ctx, p); err != nil {
		s.logger.Error("upsert compensation profile persist failed",
			zap.String("employee_id", req.EmployeeID),
			zap.Error(err),
		)
		return ProfileResponse{}, apperror.FromStore(err)
	}

	s.logger.Info("upsert compensation profile success",
		zap.String("employee_id", req.EmployeeID),
		zap.String("base_salary", p.BaseSalary.String()),
	)
	return mapToResponse(*p), nil
}

func buildProfile(employeeID uuid.UUID, req UpsertProfileRequest) (*Profile, error) {
	base, err := parseAmount(req.BaseSalary)
	if err != nil {
		return nil, err
	}

	p := &Profile{
		EmployeeID: employeeID,
		BaseSalary: base,
		UpdatedAt:  time.Now().UTC(),
	}

	optional := []struct {
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
	for _, field := range optional {
		if field.raw == nil {
			continue
		}
		amount, err := parseAmount(*field.raw)
		if err != nil {
			return nil, err
		}
		*field.dst = decimal.NewNullDecimal(amount)
	}

	return p, nil
}

func parseAmount(raw string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(raw)
	if err != nil || amount.IsNegative() {
		return decimal.Decimal{}, compensationerrors.ErrInvalidAmount
	}
	return amount, nil
}

func mapToResponse(p Profile) ProfileResponse {
	fixed := func(d decimal.NullDecimal) *string {
		if !d.Valid {
			return nil
		}
		return lo.ToPtr(d.Decimal.StringFixed(2))
	}

	return ProfileResponse{
		ID:              p.ID.String(),
		EmployeeID:      p.EmployeeID.String(),
		BaseSalary:      p.BaseSalary.StringFixed(2),
		HRA:             fixed(p.HRA),
		DA:              fixed(p.DA),
		Conveyance:      fixed(p.Conveyance),
		Bonus:           fixed(p.Bonus),
		PF:              fixed(p.PF),
		ESI:             fixed(p.ESI),
		Tax:             fixed(p.Tax),
		OtherDeductions: fixed(p.OtherDeductions),
		UpdatedAt:       p.UpdatedAt.Format(time.RFC3339),
	}
}
