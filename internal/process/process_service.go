package process

import (
	"context"
	"errors"
	"fmt"
	"time"

	processerrors "go-hris-engine/internal/process/errors"
	"go-hris-engine/internal/shared/apperror"
	"go-hris-engine/internal/shared/metrics"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Engine is the only writer of process status. Every successful Start or
// UpdateStatus appends exactly one history entry.
type Engine interface {
	// WithTx returns an engine whose writes join tx instead of opening their own transaction.
	WithTx(tx *gorm.DB) Engine
	Start(ctx context.Context, processType ProcessType, referenceID, employeeID uuid.UUID, initiatorID *uuid.UUID, remarks string, metadata map[string]any) (*Instance, error)
	UpdateStatus(ctx context.Context, instanceID uuid.UUID, newStatus Status, actorID *uuid.UUID, remarks string, metadata map[string]any) (*Instance, error)
	Get(ctx context.Context, instanceID uuid.UUID) (*Instance, error)
	History(ctx context.Context, instanceID uuid.UUID) ([]HistoryEntry, error)
	Replay(ctx context.Context, instanceID uuid.UUID) (ReplayResult, error)
	FindLatestByReference(ctx context.Context, processType ProcessType, referenceID uuid.UUID) (*Instance, error)
	ListByEmployee(ctx context.Context, employeeID uuid.UUID) ([]Instance, error)
}

// ReplayResult compares the stored status with the status rebuilt from history.
type ReplayResult struct {
	InstanceID     uuid.UUID
	StoredStatus   Status
	ReplayedStatus Status
	Entries        int
	Consistent     bool
	// Problem describes the first inconsistency found, empty when Consistent.
	Problem string
}

type engine struct {
	db       *gorm.DB
	repo     Repository
	inTx     bool
	recorder metrics.Recorder
	logger   *zap.Logger
	now      func() time.Time
}

type Option func(*engine)

func WithRecorder(r metrics.Recorder) Option {
	return func(e *engine) { e.recorder = r }
}

func WithLogger(l *zap.Logger) Option {
	return func(e *engine) {
		if l != nil {
			e.logger = l.Named("process.engine")
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(e *engine) { e.now = now }
}

func NewEngine(db *gorm.DB, repo Repository, opts ...Option) Engine {
	e := &engine{
		db:       db,
		repo:     repo,
		recorder: metrics.Nop(),
		logger:   zap.L().Named("process.engine"),
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *engine) WithTx(tx *gorm.DB) Engine {
	clone := *e
	clone.db = tx
	clone.repo = e.repo.WithTx(tx)
	clone.inTx = true
	return &clone
}

// transact runs fn in a transaction, or directly when the engine is already bound to one.
func (e *engine) transact(ctx context.Context, fn func(repo Repository) error) error {
	if e.inTx {
		return fn(e.repo)
	}
	return e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(e.repo.WithTx(tx))
	})
}

func (e *engine) Start(
	ctx context.Context,
	processType ProcessType,
	referenceID, employeeID uuid.UUID,
	initiatorID *uuid.UUID,
	remarks string,
	metadata map[string]any,
) (*Instance, error) {
	e.logger.Debug("start process requested",
		zap.String("process_type", string(processType)),
		zap.String("reference_id", referenceID.String()),
		zap.String("employee_id", employeeID.String()),
	)

	if !processType.Valid() {
		return nil, processerrors.ErrUnknownProcessType
	}
	if referenceID == uuid.Nil || employeeID == uuid.Nil {
		return nil, processerrors.ErrInvalidReference
	}
	if remarks == "" {
		remarks = fmt.Sprintf("%s process initiated", processType)
	}

	now := e.now()
	instance := &Instance{
		ID:          uuid.New(),
		ProcessType: processType,
		ReferenceID: referenceID,
		EmployeeID:  employeeID,
		Status:      StatusInitiated,
		InitiatedBy: initiatorID,
		Version:     1,
		Metadata:    toJSONMap(metadata),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err := e.transact(ctx, func(repo Repository) error {
		if err := repo.Create(ctx, instance); err != nil {
			return err
		}
		return repo.AppendHistory(ctx, &HistoryEntry{
			ProcessInstanceID: instance.ID,
			Sequence:          instance.Version,
			Action:            StatusInitiated,
			ActorID:           initiatorID,
			Remarks:           remarks,
			Metadata:          toJSONMap(metadata),
			CreatedAt:         now,
		})
	})
	if err != nil {
		if apperror.IsUniqueViolation(err, "") {
			e.logger.Warn("start process rejected, reference already has a process",
				zap.String("process_type", string(processType)),
				zap.String("reference_id", referenceID.String()),
			)
			return nil, processerrors.ErrProcessAlreadyStarted
		}
		e.logger.Error("start process persist failed",
			zap.String("process_type", string(processType)),
			zap.String("reference_id", referenceID.String()),
			zap.Error(err),
		)
		return nil, apperror.FromStore(err)
	}

	e.recorder.ProcessTransition(string(processType), "", string(StatusInitiated))
	e.logger.Info("process started",
		zap.String("process_id", instance.ID.String()),
		zap.String("process_type", string(processType)),
		zap.String("reference_id", referenceID.String()),
	)
	return instance, nil
}

func (e *engine) UpdateStatus(
	ctx context.Context,
	instanceID uuid.UUID,
	newStatus Status,
	actorID *uuid.UUID,
	remarks string,
	metadata map[string]any,
) (*Instance, error) {
	e.logger.Debug("update process status requested",
		zap.String("process_id", instanceID.String()),
		zap.String("to_status", string(newStatus)),
	)

	var (
		updated *Instance
		from    Status
	)
	err := e.transact(ctx, func(repo Repository) error {
		instance, err := repo.FindByIDForUpdate(ctx, instanceID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return processerrors.ErrProcessNotFound
			}
			return err
		}

		from = instance.Status
		if !CanTransition(instance.ProcessType, from, newStatus) {
			return apperror.WithCause(processerrors.ErrInvalidTransition,
				fmt.Errorf("%s: %s -> %s", instance.ProcessType, from, newStatus))
		}

		expected := instance.Version
		instance.Status = newStatus
		instance.Version++
		instance.UpdatedAt = e.now()
		if len(metadata) > 0 {
			instance.Metadata = mergeMetadata(instance.Metadata, metadata)
		}

		ok, err := repo.UpdateStatus(ctx, instance, expected)
		if err != nil {
			return err
		}
		if !ok {
			return processerrors.ErrConcurrentUpdate
		}

		if err := repo.AppendHistory(ctx, &HistoryEntry{
			ProcessInstanceID: instance.ID,
			Sequence:          instance.Version,
			FromStatus:        from,
			Action:            newStatus,
			ActorID:           actorID,
			Remarks:           remarks,
			Metadata:          toJSONMap(metadata),
			CreatedAt:         instance.UpdatedAt,
		}); err != nil {
			return err
		}

		updated = instance
		return nil
	})
	if err != nil {
		switch apperror.CodeOf(err) {
		case apperror.CodeNotFound, apperror.CodeInvalidTransition, apperror.CodeConflict:
			e.logger.Warn("update process status rejected",
				zap.String("process_id", instanceID.String()),
				zap.String("to_status", string(newStatus)),
				zap.Error(err),
			)
			return nil, err
		}
		e.logger.Error("update process status persist failed",
			zap.String("process_id", instanceID.String()),
			zap.Error(err),
		)
		return nil, apperror.FromStore(err)
	}

	e.recorder.ProcessTransition(string(updated.ProcessType), string(from), string(newStatus))
	e.logger.Info("process status updated",
		zap.String("process_id", updated.ID.String()),
		zap.String("from_status", string(from)),
		zap.String("to_status", string(newStatus)),
		zap.Int64("version", updated.Version),
	)
	return updated, nil
}

func (e *engine) Get(ctx context.Context, instanceID uuid.UUID) (*Instance, error) {
	instance, err := e.repo.FindByID(ctx, instanceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, processerrors.ErrProcessNotFound
		}
		return nil, apperror.FromStore(err)
	}
	return instance, nil
}

func (e *engine) History(ctx context.Context, instanceID uuid.UUID) ([]HistoryEntry, error) {
	if _, err := e.Get(ctx, instanceID); err != nil {
		return nil, err
	}
	entries, err := e.repo.ListHistory(ctx, instanceID)
	if err != nil {
		return nil, apperror.FromStore(err)
	}
	return entries, nil
}

// Replay folds the history of an instance through the transition table and checks
// that it ends where the instance says it is.
func (e *engine) Replay(ctx context.Context, instanceID uuid.UUID) (ReplayResult, error) {
	instance, err := e.Get(ctx, instanceID)
	if err != nil {
		return ReplayResult{}, err
	}
	entries, err := e.repo.ListHistory(ctx, instanceID)
	if err != nil {
		return ReplayResult{}, apperror.FromStore(err)
	}

	result := ReplayResult{
		InstanceID:   instanceID,
		StoredStatus: instance.Status,
		Entries:      len(entries),
	}
	result.ReplayedStatus, result.Problem = replay(instance.ProcessType, entries)
	if result.Problem == "" && result.ReplayedStatus != instance.Status {
		result.Problem = fmt.Sprintf("history ends at %s but instance is %s", result.ReplayedStatus, instance.Status)
	}
	if result.Problem == "" && int64(len(entries)) != instance.Version {
		result.Problem = fmt.Sprintf("%d history entries for version %d", len(entries), instance.Version)
	}
	result.Consistent = result.Problem == ""

	if !result.Consistent {
		e.logger.Warn("process history diverged",
			zap.String("process_id", instanceID.String()),
			zap.String("problem", result.Problem),
		)
	}
	return result, nil
}

func replay(processType ProcessType, entries []HistoryEntry) (Status, string) {
	if len(entries) == 0 {
		return "", "no history entries"
	}
	if entries[0].Action != StatusInitiated {
		return entries[0].Action, fmt.Sprintf("first entry is %s, not %s", entries[0].Action, StatusInitiated)
	}

	current := entries[0].Action
	for i, entry := range entries[1:] {
		if entry.Sequence != int64(i+2) {
			return current, fmt.Sprintf("sequence gap before %d", entry.Sequence)
		}
		if !CanTransition(processType, current, entry.Action) {
			return current, fmt.Sprintf("illegal step %s -> %s at sequence %d", current, entry.Action, entry.Sequence)
		}
		current = entry.Action
	}
	return current, ""
}

func (e *engine) FindLatestByReference(ctx context.Context, processType ProcessType, referenceID uuid.UUID) (*Instance, error) {
	instance, err := e.repo.FindLatestByReference(ctx, processType, referenceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, processerrors.ErrProcessNotFound
		}
		return nil, apperror.FromStore(err)
	}
	return instance, nil
}

func (e *engine) ListByEmployee(ctx context.Context, employeeID uuid.UUID) ([]Instance, error) {
	instances, err := e.repo.ListByEmployee(ctx, employeeID)
	if err != nil {
		return nil, apperror.FromStore(err)
	}
	return instances, nil
}

func toJSONMap(m map[string]any) datatypes.JSONMap {
	if len(m) == 0 {
		return nil
	}
	return datatypes.JSONMap(m)
}

func mergeMetadata(base datatypes.JSONMap, extra map[string]any) datatypes.JSONMap {
	return lo.Assign(map[string]any(base), extra)
}
