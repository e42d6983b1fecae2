package leave

import (
	"context"
	"errors"
	"time"

	leaveerrors "go-hris-engine/internal/leave/errors"
	"go-hris-engine/internal/process"
	"go-hris-engine/internal/shared/apperror"
	"go-hris-engine/internal/shared/metrics"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	MessageApproved         = "leave approved"
	MessageApprovedDegraded = "leave approved; casual leave balance insufficient, excess treated as attendance deduction"
	MessageRejected         = "leave rejected"
)

// errBalanceVersionConflict signals a lost compare-and-swap; the approval is retried.
var errBalanceVersionConflict = errors.New("leave balance version conflict")

type Service interface {
	Apply(ctx context.Context, actorID uuid.UUID, req ApplyLeaveRequest) (LeaveResponse, error)
	Approve(ctx context.Context, actorID, leaveID uuid.UUID) (ApproveResult, error)
	Reject(ctx context.Context, actorID, leaveID uuid.UUID, remarks string) (LeaveResponse, error)
	GetByID(ctx context.Context, leaveID uuid.UUID) (LeaveResponse, error)
	ListByEmployee(ctx context.Context, employeeID uuid.UUID) ([]LeaveResponse, error)
	GetBalance(ctx context.Context, employeeID uuid.UUID) (BalanceResponse, error)
	InitializeBalance(ctx context.Context, employeeID uuid.UUID, asOf time.Time) (BalanceResponse, error)
}

type service struct {
	db         *gorm.DB
	repo       Repository
	engine     process.Engine
	policy     Policy
	maxRetries uint64
	newBackOff func() backoff.BackOff
	recorder   metrics.Recorder
	logger     *zap.Logger
	now        func() time.Time
}

type Option func(*service)

func WithLogger(l *zap.Logger) Option {
	return func(s *service) {
		if l != nil {
			s.logger = l.Named("leave.service")
		}
	}
}

func WithRecorder(r metrics.Recorder) Option {
	return func(s *service) { s.recorder = r }
}

// WithRetry sets how many times an approval is retried after a balance conflict
// and the wait between attempts.
func WithRetry(maxRetries int, newBackOff func() backoff.BackOff) Option {
	return func(s *service) {
		s.maxRetries = uint64(maxRetries)
		if newBackOff != nil {
			s.newBackOff = newBackOff
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *service) { s.now = now }
}

func NewService(db *gorm.DB, repo Repository, engine process.Engine, policy Policy, opts ...Option) Service {
	s := &service{
		db:         db,
		repo:       repo,
		engine:     engine,
		policy:     policy,
		maxRetries: 5,
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 20 * time.Millisecond
			b.MaxInterval = 500 * time.Millisecond
			return b
		},
		recorder: metrics.Nop(),
		logger:   zap.L().Named("leave.service"),
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) Apply(ctx context.Context, actorID uuid.UUID, req ApplyLeaveRequest) (LeaveResponse, error) {
	s.logger.Debug("apply leave requested",
		zap.String("actor_id", actorID.String()),
		zap.String("employee_id", req.EmployeeID),
		zap.String("start_date", req.StartDate),
		zap.String("end_date", req.EndDate),
	)

	if err := apperror.ValidateStruct(req); err != nil {
		s.logger.Warn("apply leave validation failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	employeeID, err := uuid.Parse(req.EmployeeID)
	if err != nil {
		return LeaveResponse{}, leaveerrors.ErrInvalidEmployeeID
	}
	startDate, err := parseDate(req.StartDate)
	if err != nil {
		return LeaveResponse{}, err
	}
	endDate, err := parseDate(req.EndDate)
	if err != nil {
		return LeaveResponse{}, err
	}
	if startDate.After(endDate) {
		return LeaveResponse{}, leaveerrors.ErrInvalidDateRange
	}

	l := &Leave{
		ID:         uuid.New(),
		EmployeeID: employeeID,
		LeaveType:  req.LeaveType,
		StartDate:  startDate,
		EndDate:    endDate,
		TotalDays:  DaysApplied(startDate, endDate),
		Reason:     req.Reason,
		Status:     StatusPending,
		AppliedBy:  actorID,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		qtx := s.repo.WithTx(tx)

		overlap, err := qtx.HasOverlappingPeriod(ctx, employeeID, startDate, endDate)
		if err != nil {
			return err
		}
		if overlap {
			s.logger.Warn("apply leave overlap detected",
				zap.String("employee_id", req.EmployeeID),
				zap.String("start_date", req.StartDate),
				zap.String("end_date", req.EndDate),
			)
			return leaveerrors.ErrLeaveOverlap
		}

		instance, err := s.engine.WithTx(tx).Start(ctx, process.TypeLeave, l.ID, employeeID, &actorID,
			"leave applied",
			map[string]any{"leave_type": l.LeaveType, "total_days": l.TotalDays},
		)
		if err != nil {
			return err
		}
		l.ProcessInstanceID = &instance.ID

		return qtx.Create(ctx, l)
	})
	if err != nil {
		if apperror.CodeOf(err) == "" {
			s.logger.Error("apply leave persist failed", zap.Error(err))
		}
		return LeaveResponse{}, apperror.FromStore(err)
	}

	s.logger.Info("apply leave success",
		zap.String("leave_id", l.ID.String()),
		zap.String("employee_id", req.EmployeeID),
		zap.Int("total_days", l.TotalDays),
	)
	return mapToResponse(*l), nil
}

// Approve deducts the leave from the casual balance and approves it. The balance
// update, the leave row and the process transition commit together; a lost
// version race restarts the whole attempt.
func (s *service) Approve(ctx context.Context, actorID, leaveID uuid.UUID) (ApproveResult, error) {
	s.logger.Debug("approve leave requested",
		zap.String("leave_id", leaveID.String()),
		zap.String("actor_id", actorID.String()),
	)

	attempt := 0
	operation := func() (ApproveResult, error) {
		attempt++
		result, err := s.approveOnce(ctx, actorID, leaveID)
		if errors.Is(err, errBalanceVersionConflict) {
			s.recorder.LeaveBalanceConflict()
			s.logger.Warn("approve leave balance conflict",
				zap.String("leave_id", leaveID.String()),
				zap.Int("attempt", attempt),
			)
			return result, err
		}
		if err != nil {
			return result, backoff.Permanent(err)
		}
		return result, nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(s.newBackOff(), s.maxRetries), ctx)
	result, err := backoff.RetryWithData(operation, policy)
	if err != nil {
		if errors.Is(err, errBalanceVersionConflict) {
			s.logger.Error("approve leave retries exhausted",
				zap.String("leave_id", leaveID.String()),
				zap.Int("attempts", attempt),
			)
			return ApproveResult{}, leaveerrors.ErrLeaveBalanceConflict
		}
		if apperror.CodeOf(err) == "" {
			s.logger.Error("approve leave failed", zap.String("leave_id", leaveID.String()), zap.Error(err))
		}
		return ApproveResult{}, apperror.FromStore(err)
	}

	s.recorder.LeaveDecision(StatusApproved)
	s.logger.Info("approve leave success",
		zap.String("leave_id", leaveID.String()),
		zap.Bool("degraded", result.Degraded),
	)
	return result, nil
}

func (s *service) approveOnce(ctx context.Context, actorID, leaveID uuid.UUID) (ApproveResult, error) {
	var result ApproveResult

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		qtx := s.repo.WithTx(tx)

		l, err := s.loadPending(ctx, qtx, leaveID)
		if err != nil {
			return err
		}

		balance, err := qtx.FindBalanceByEmployeeID(ctx, l.EmployeeID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return leaveerrors.ErrLeaveBalanceNotFound
			}
			return err
		}

		now := s.now()
		s.resetIfExpired(balance, now)

		days := DaysApplied(l.StartDate, l.EndDate)
		message := MessageApproved
		degraded := false
		remaining := balance.CasualLeave - days
		if remaining < 0 {
			remaining = 0
			message = MessageApprovedDegraded
			degraded = true
		}

		expected := balance.Version
		balance.CasualLeave = remaining
		balance.Version++
		balance.UpdatedAt = now

		ok, err := qtx.UpdateBalance(ctx, balance, expected)
		if err != nil {
			return err
		}
		if !ok {
			return errBalanceVersionConflict
		}

		l.Status = StatusApproved
		l.DecidedBy = &actorID
		l.DecidedAt = &now
		l.Remarks = &message
		if err := qtx.Update(ctx, l); err != nil {
			return err
		}

		if err := s.transition(ctx, tx, l, process.StatusApproved, actorID, message, map[string]any{
			"days_applied":     days,
			"casual_remaining": remaining,
			"degraded":         degraded,
		}); err != nil {
			return err
		}

		result = ApproveResult{Leave: mapToResponse(*l), Message: message, Degraded: degraded}
		return nil
	})
	return result, err
}

func (s *service) Reject(ctx context.Context, actorID, leaveID uuid.UUID, remarks string) (LeaveResponse, error) {
	s.logger.Debug("reject leave requested",
		zap.String("leave_id", leaveID.String()),
		zap.String("actor_id", actorID.String()),
	)
	if remarks == "" {
		remarks = MessageRejected
	}

	var l *Leave
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		qtx := s.repo.WithTx(tx)

		var err error
		l, err = s.loadPending(ctx, qtx, leaveID)
		if err != nil {
			return err
		}

		now := s.now()
		l.Status = StatusRejected
		l.DecidedBy = &actorID
		l.DecidedAt = &now
		l.Remarks = &remarks
		if err := qtx.Update(ctx, l); err != nil {
			return err
		}

		return s.transition(ctx, tx, l, process.StatusRejected, actorID, remarks, nil)
	})
	if err != nil {
		if apperror.CodeOf(err) == "" {
			s.logger.Error("reject leave failed", zap.String("leave_id", leaveID.String()), zap.Error(err))
		}
		return LeaveResponse{}, apperror.FromStore(err)
	}

	s.recorder.LeaveDecision(StatusRejected)
	s.logger.Info("reject leave success", zap.String("leave_id", leaveID.String()))
	return mapToResponse(*l), nil
}

func (s *service) loadPending(ctx context.Context, repo Repository, leaveID uuid.UUID) (*Leave, error) {
	l, err := repo.FindByID(ctx, leaveID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, leaveerrors.ErrLeaveNotFound
		}
		return nil, err
	}
	if l.Status != StatusPending {
		s.logger.Warn("leave decision on non-pending leave",
			zap.String("leave_id", leaveID.String()),
			zap.String("status", l.Status),
		)
		return nil, leaveerrors.ErrInvalidStatusTransition
	}
	return l, nil
}

// transition moves the leave's LEAVE process inside tx. Leaves created before
// process tracking get their process started first.
func (s *service) transition(ctx context.Context, tx *gorm.DB, l *Leave, to process.Status, actorID uuid.UUID, remarks string, metadata map[string]any) error {
	engine := s.engine.WithTx(tx)

	if l.ProcessInstanceID == nil {
		instance, err := engine.Start(ctx, process.TypeLeave, l.ID, l.EmployeeID, &l.AppliedBy, "leave process backfilled", nil)
		if err != nil {
			return err
		}
		l.ProcessInstanceID = &instance.ID
		if err := s.repo.WithTx(tx).Update(ctx, l); err != nil {
			return err
		}
	}

	_, err := engine.UpdateStatus(ctx, *l.ProcessInstanceID, to, &actorID, remarks, metadata)
	return err
}

// resetIfExpired restores the annual entitlement once the balance period has ended.
func (s *service) resetIfExpired(b *Balance, now time.Time) {
	// period_end_date is inclusive
	if now.Before(b.PeriodEndDate.AddDate(0, 0, 1)) {
		return
	}
	previous := b.PeriodEndDate
	for !now.Before(b.PeriodEndDate.AddDate(0, 0, 1)) {
		b.PeriodEndDate = b.PeriodEndDate.AddDate(1, 0, 0)
	}
	b.EarnedLeave = s.policy.EarnedLeave
	b.CasualLeave = s.policy.CasualLeave
	b.SickLeave = s.policy.SickLeave

	s.logger.Info("leave balance period reset",
		zap.String("employee_id", b.EmployeeID.String()),
		zap.Time("previous_period_end", previous),
		zap.Time("period_end", b.PeriodEndDate),
	)
}

func (s *service) GetByID(ctx context.Context, leaveID uuid.UUID) (LeaveResponse, error) {
	l, err := s.repo.FindByID(ctx, leaveID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return LeaveResponse{}, leaveerrors.ErrLeaveNotFound
		}
		return LeaveResponse{}, apperror.FromStore(err)
	}
	return mapToResponse(*l), nil
}

func (s *service) ListByEmployee(ctx context.Context, employeeID uuid.UUID) ([]LeaveResponse, error) {
	leaves, err := s.repo.FindAllByEmployee(ctx, employeeID)
	if err != nil {
		return nil, apperror.FromStore(err)
	}
	return mapToListResponse(leaves), nil
}

func (s *service) GetBalance(ctx context.Context, employeeID uuid.UUID) (BalanceResponse, error) {
	b, err := s.repo.FindBalanceByEmployeeID(ctx, employeeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return BalanceResponse{}, leaveerrors.ErrLeaveBalanceNotFound
		}
		return BalanceResponse{}, apperror.FromStore(err)
	}
	return mapToBalanceResponse(*b), nil
}

// InitializeBalance seeds the employee's balance from the policy. An existing
// balance is returned untouched.
func (s *service) InitializeBalance(ctx context.Context, employeeID uuid.UUID, asOf time.Time) (BalanceResponse, error) {
	now := s.now()
	b := &Balance{
		EmployeeID:    employeeID,
		EarnedLeave:   s.policy.EarnedLeave,
		CasualLeave:   s.policy.CasualLeave,
		SickLeave:     s.policy.SickLeave,
		PeriodEndDate: periodEnd(asOf),
		Version:       1,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	created, err := s.repo.CreateBalanceIfAbsent(ctx, b)
	if err != nil {
		s.logger.Error("initialize leave balance failed",
			zap.String("employee_id", employeeID.String()),
			zap.Error(err),
		)
		return BalanceResponse{}, apperror.FromStore(err)
	}
	if !created {
		s.logger.Debug("leave balance already initialized", zap.String("employee_id", employeeID.String()))
		return s.GetBalance(ctx, employeeID)
	}

	s.logger.Info("leave balance initialized",
		zap.String("employee_id", employeeID.String()),
		zap.Int("casual_leave", b.CasualLeave),
	)
	return mapToBalanceResponse(*b), nil
}

func parseDate(value string) (time.Time, error) {
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, leaveerrors.ErrInvalidDateFormat
	}
	return t, nil
}
