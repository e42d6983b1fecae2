package employee

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	employeeerrors "go-hris-engine/internal/employee/errors"
	"go-hris-engine/internal/events"
	"go-hris-engine/internal/messaging/kafka"
	"go-hris-engine/internal/shared/apperror"
	"go-hris-engine/internal/shared/contextutil"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

const (
	EmployeeKeyPrefix = "employees:id:"
	cacheTTL          = time.Hour
)

func GetEmployeeKey(id uuid.UUID) string {
	return EmployeeKeyPrefix + id.String()
}

type Service interface {
	Register(ctx context.Context, req RegisterEmployeeRequest) (EmployeeResponse, error)
	GetByID(ctx context.Context, id uuid.UUID) (EmployeeResponse, error)
	SetStatus(ctx context.Context, id uuid.UUID, status string) error
}

type service struct {
	db     *gorm.DB
	repo   Repository
	outbox kafka.OutboxRepository
	rdb    *redis.Client
	sf     *singleflight.Group
	logger *zap.Logger
}

func NewService(
	db *gorm.DB,
	repo Repository,
	outboxRepo kafka.OutboxRepository,
	rdb *redis.Client,
	logger ...*zap.Logger,
) Service {
	l := zap.L().Named("employee.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("employee.service")
	}
	return &service{
		db:     db,
		repo:   repo,
		outbox: outboxRepo,
		rdb:    rdb,
		sf:     &singleflight.Group{},
		logger: l,
	}
}

// Register stores the employee and queues employee_created on the lifecycle
// topic in the same transaction.
func (s *service) Register(ctx context.Context, req RegisterEmployeeRequest) (EmployeeResponse, error) {
	rid := contextutil.GetRequestID(ctx)
	s.logger.Debug("register employee requested",
		zap.String("request_id", rid),
		zap.String("email", req.Email),
	)

	if err := apperror.ValidateStruct(req); err != nil {
		s.logger.Warn("register employee validation failed", zap.Error(err))
		return EmployeeResponse{}, err
	}
	hireDate, err := time.Parse("2006-01-02", req.HireDate)
	if err != nil {
		s.logger.Warn("register employee invalid hire_date",
			zap.String("hire_date", req.HireDate),
			zap.Error(err),
		)
		return EmployeeResponse{}, employeeerrors.ErrInvalidHireDate
	}

	empl := &Employee{
		ID:               uuid.New(),
		FullName:         req.FullName,
		Email:            req.Email,
		EmploymentStatus: StatusActive,
		HireDate:         hireDate,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, empl); err != nil {
			if apperror.IsUniqueViolation(err, "") {
				return employeeerrors.ErrEmployeeAlreadyExists
			}
			return err
		}

		event, err := kafka.NewOutboxEvent(ctx,
			events.EmployeeLifecycleTopic,
			events.EmployeeCreatedEventType,
			"employee",
			empl.ID.String(),
			events.EmployeeCreatedEvent{
				EventType:  events.EmployeeCreatedEventType,
				RequestID:  rid,
				EmployeeID: empl.ID.String(),
				FullName:   empl.FullName,
				Email:      empl.Email,
				HireDate:   req.HireDate,
				OccurredAt: time.Now().UTC(),
			},
		)
		if err != nil {
			return err
		}
		return s.outbox.WithTx(tx).Create(ctx, event)
	})
	if err != nil {
		if apperror.CodeOf(err) == "" {
			s.logger.Error("register employee persist failed", zap.String("request_id", rid), zap.Error(err))
		}
		return EmployeeResponse{}, apperror.FromStore(err)
	}

	s.logger.Info("register employee success",
		zap.String("request_id", rid),
		zap.String("employee_id", empl.ID.String()),
	)
	return mapToResponse(*empl), nil
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (EmployeeResponse, error) {
	cacheKey := GetEmployeeKey(id)

	if s.rdb != nil {
		if cached, err := s.rdb.Get(ctx, cacheKey).Result(); err == nil {
			var resp EmployeeResponse
			if json.Unmarshal([]byte(cached), &resp) == nil {
				return resp, nil
			}
		}
	}

	v, err, _ := s.sf.Do(cacheKey, func() (any, error) {
		empl, err := s.repo.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, employeeerrors.ErrEmployeeNotFound
			}
			s.logger.Error("get employee by id failed", zap.String("employee_id", id.String()), zap.Error(err))
			return nil, apperror.FromStore(err)
		}

		resp := mapToResponse(*empl)
		if s.rdb != nil {
			if data, err := json.Marshal(resp); err == nil {
				s.rdb.Set(ctx, cacheKey, data, cacheTTL)
			}
		}
		return resp, nil
	})
	if err != nil {
		return EmployeeResponse{}, err
	}

	return v.(EmployeeResponse), nil
}

// SetStatus activates or deactivates an employee. Inactive employees are left
// out of payroll runs.
func (s *service) SetStatus(ctx context.Context, id uuid.UUID, status string) error {
	if status != StatusActive && status != StatusInactive {
		return employeeerrors.ErrInvalidEmploymentStatus
	}

	updated, err := s.repo.UpdateStatus(ctx, id, status)
	if err != nil {
		s.logger.Error("set employee status failed", zap.String("employee_id", id.String()), zap.Error(err))
		return apperror.FromStore(err)
	}
	if !updated {
		return employeeerrors.ErrEmployeeNotFound
	}

	if s.rdb != nil {
		cacheKey := GetEmployeeKey(id)
		if err := s.rdb.Del(ctx, cacheKey).Err(); err != nil {
			s.logger.Error("failed to invalidate employee cache",
				zap.Error(err),
				zap.String("key", cacheKey),
			)
		}
	}

	s.logger.Info("set employee status success",
		zap.String("employee_id", id.String()),
		zap.String("status", status),
	)
	return nil
}
