package process_test

import (
	"context"
	"database/sql/driver"
	"testing"

	"go-hris-engine/internal/process"
	processerrors "go-hris-engine/internal/process/errors"
	"go-hris-engine/internal/shared/apperror"
	"go-hris-engine/internal/shared/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeRepo struct {
	createFn                func(ctx context.Context, instance *process.Instance) error
	findByIDFn              func(ctx context.Context, id uuid.UUID) (*process.Instance, error)
	findByIDForUpdateFn     func(ctx context.Context, id uuid.UUID) (*process.Instance, error)
	updateStatusFn          func(ctx context.Context, instance *process.Instance, expectedVersion int64) (bool, error)
	appendHistoryFn         func(ctx context.Context, entry *process.HistoryEntry) error
	listHistoryFn           func(ctx context.Context, instanceID uuid.UUID) ([]process.HistoryEntry, error)
	findLatestByReferenceFn func(ctx context.Context, processType process.ProcessType, referenceID uuid.UUID) (*process.Instance, error)
	listByEmployeeFn        func(ctx context.Context, employeeID uuid.UUID) ([]process.Instance, error)

	withTxCalls int
}

func (f *fakeRepo) WithTx(tx *gorm.DB) process.Repository {
	f.withTxCalls++
	return f
}

func (f *fakeRepo) Create(ctx context.Context, instance *process.Instance) error {
	if f.createFn != nil {
		return f.createFn(ctx, instance)
	}
	return nil
}

func (f *fakeRepo) FindByID(ctx context.Context, id uuid.UUID) (*process.Instance, error) {
	if f.findByIDFn != nil {
		return f.findByIDFn(ctx, id)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*process.Instance, error) {
	if f.findByIDForUpdateFn != nil {
		return f.findByIDForUpdateFn(ctx, id)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepo) UpdateStatus(ctx context.Context, instance *process.Instance, expectedVersion int64) (bool, error) {
	if f.updateStatusFn != nil {
		return f.updateStatusFn(ctx, instance, expectedVersion)
	}
	return true, nil
}

func (f *fakeRepo) AppendHistory(ctx context.Context, entry *process.HistoryEntry) error {
	if f.appendHistoryFn != nil {
		return f.appendHistoryFn(ctx, entry)
	}
	return nil
}

func (f *fakeRepo) ListHistory(ctx context.Context, instanceID uuid.UUID) ([]process.HistoryEntry, error) {
	if f.listHistoryFn != nil {
		return f.listHistoryFn(ctx, instanceID)
	}
	return nil, nil
}

func (f *fakeRepo) FindLatestByReference(ctx context.Context, processType process.ProcessType, referenceID uuid.UUID) (*process.Instance, error) {
	if f.findLatestByReferenceFn != nil {
		return f.findLatestByReferenceFn(ctx, processType, referenceID)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepo) ListByEmployee(ctx context.Context, employeeID uuid.UUID) ([]process.Instance, error) {
	if f.listByEmployeeFn != nil {
		return f.listByEmployeeFn(ctx, employeeID)
	}
	return nil, nil
}

func TestEngine_Start(t *testing.T) {
	ctx := context.Background()
	referenceID := uuid.New()
	employeeID := uuid.New()
	actorID := uuid.New()

	t.Run("success", func(t *testing.T) {
		db, mock := testutil.NewMockDB(t)
		testutil.ExpectTx(mock, true)

		var created *process.Instance
		var history []*process.HistoryEntry
		repo := &fakeRepo{
			createFn: func(ctx context.Context, instance *process.Instance) error {
				created = instance
				return nil
			},
			appendHistoryFn: func(ctx context.Context, entry *process.HistoryEntry) error {
				history = append(history, entry)
				return nil
			},
		}
		engine := process.NewEngine(db, repo)

		instance, err := engine.Start(ctx, process.TypeLeave, referenceID, employeeID, &actorID, "", map[string]any{"leave_type": "CASUAL"})
		require.NoError(t, err)

		assert.Same(t, created, instance)
		assert.Equal(t, process.StatusInitiated, instance.Status)
		assert.Equal(t, int64(1), instance.Version)
		assert.Equal(t, "CASUAL", instance.Metadata["leave_type"])
		require.Len(t, history, 1)
		assert.Equal(t, instance.ID, history[0].ProcessInstanceID)
		assert.Equal(t, int64(1), history[0].Sequence)
		assert.Equal(t, process.StatusInitiated, history[0].Action)
		assert.Equal(t, "LEAVE process initiated", history[0].Remarks)
		assert.Equal(t, &actorID, history[0].ActorID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown process type", func(t *testing.T) {
		db, mock := testutil.NewMockDB(t)
		engine := process.NewEngine(db, &fakeRepo{})

		_, err := engine.Start(ctx, process.ProcessType("EXPENSE"), referenceID, employeeID, nil, "", nil)
		assert.ErrorIs(t, err, processerrors.ErrUnknownProcessType)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing reference", func(t *testing.T) {
		db, _ := testutil.NewMockDB(t)
		engine := process.NewEngine(db, &fakeRepo{})

		_, err := engine.Start(ctx, process.TypePayroll, uuid.Nil, employeeID, nil, "", nil)
		assert.ErrorIs(t, err, processerrors.ErrInvalidReference)
	})

	t.Run("store unavailable rolls back", func(t *testing.T) {
		db, mock := testutil.NewMockDB(t)
		testutil.ExpectTx(mock, false)

		repo := &fakeRepo{
			appendHistoryFn: func(ctx context.Context, entry *process.HistoryEntry) error {
				return driver.ErrBadConn
			},
		}
		engine := process.NewEngine(db, repo)

		_, err := engine.Start(ctx, process.TypeOnboarding, referenceID, employeeID, nil, "", nil)
		assert.True(t, apperror.IsStoreUnavailable(err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("bound to caller transaction", func(t *testing.T) {
		db, mock := testutil.NewMockDB(t)
		repo := &fakeRepo{}
		engine := process.NewEngine(db, repo).WithTx(db)

		_, err := engine.Start(ctx, process.TypePayroll, referenceID, employeeID, nil, "payroll run 1", nil)
		require.NoError(t, err)
		assert.Equal(t, 1, repo.withTxCalls)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestEngine_UpdateStatus(t *testing.T) {
	ctx := context.Background()
	instanceID := uuid.New()
	actorID := uuid.New()

	newInstance := func(processType process.ProcessType, status process.Status, version int64) *process.Instance {
		return &process.Instance{
			ID:          instanceID,
			ProcessType: processType,
			ReferenceID: uuid.New(),
			EmployeeID:  uuid.New(),
			Status:      status,
			Version:     version,
		}
	}

	t.Run("success appends one history entry", func(t *testing.T) {
		db, mock := testutil.NewMockDB(t)
		testutil.ExpectTx(mock, true)

		var entries []*process.HistoryEntry
		var expectedVersion int64
		repo := &fakeRepo{
			findByIDForUpdateFn: func(ctx context.Context, id uuid.UUID) (*process.Instance, error) {
				return newInstance(process.TypeOnboarding, process.StatusVerified, 2), nil
			},
			updateStatusFn: func(ctx context.Context, instance *process.Instance, v int64) (bool, error) {
				expectedVersion = v
				return true, nil
			},
			appendHistoryFn: func(ctx context.Context, entry *process.HistoryEntry) error {
				entries = append(entries, entry)
				return nil
			},
		}
		engine := process.NewEngine(db, repo)

		instance, err := engine.UpdateStatus(ctx, instanceID, process.StatusCompleted, &actorID, "documents verified", map[string]any{"step": "final"})
		require.NoError(t, err)

		assert.Equal(t, process.StatusCompleted, instance.Status)
		assert.Equal(t, int64(3), instance.Version)
		assert.Equal(t, int64(2), expectedVersion)
		require.Len(t, entries, 1)
		assert.Equal(t, process.StatusVerified, entries[0].FromStatus)
		assert.Equal(t, process.StatusCompleted, entries[0].Action)
		assert.Equal(t, int64(3), entries[0].Sequence)
		assert.Equal(t, "documents verified", entries[0].Remarks)
		assert.Equal(t, "final", instance.Metadata["step"])
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		db, mock := testutil.NewMockDB(t)
		testutil.ExpectTx(mock, false)

		engine := process.NewEngine(db, &fakeRepo{})

		_, err := engine.UpdateStatus(ctx, instanceID, process.StatusApproved, &actorID, "", nil)
		assert.ErrorIs(t, err, processerrors.ErrProcessNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	invalid := []struct {
		name        string
		processType process.ProcessType
		from        process.Status
		to          process.Status
	}{
		{"leave terminal", process.TypeLeave, process.StatusApproved, process.StatusRejected},
		{"leave to payroll status", process.TypeLeave, process.StatusInitiated, process.StatusPayslipSent},
		{"onboarding skips verification", process.TypeOnboarding, process.StatusInitiated, process.StatusCompleted},
		{"payroll backwards", process.TypePayroll, process.StatusPayslipSent, process.StatusPayslipGenerated},
		{"payroll completed is terminal", process.TypePayroll, process.StatusCompleted, process.StatusPayslipSent},
	}
	for _, tc := range invalid {
		t.Run("invalid transition "+tc.name, func(t *testing.T) {
			db, mock := testutil.NewMockDB(t)
			testutil.ExpectTx(mock, false)

			appended := 0
			repo := &fakeRepo{
				findByIDForUpdateFn: func(ctx context.Context, id uuid.UUID) (*process.Instance, error) {
					return newInstance(tc.processType, tc.from, 2), nil
				},
				appendHistoryFn: func(ctx context.Context, entry *process.HistoryEntry) error {
					appended++
					return nil
				},
			}
			engine := process.NewEngine(db, repo)

			_, err := engine.UpdateStatus(ctx, instanceID, tc.to, &actorID, "", nil)
			assert.ErrorIs(t, err, processerrors.ErrInvalidTransition)
			assert.Equal(t, 0, appended)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}

	t.Run("lost version race", func(t *testing.T) {
		db, mock := testutil.NewMockDB(t)
		testutil.ExpectTx(mock, false)

		repo := &fakeRepo{
			findByIDForUpdateFn: func(ctx context.Context, id uuid.UUID) (*process.Instance, error) {
				return newInstance(process.TypeLeave, process.StatusInitiated, 1), nil
			},
			updateStatusFn: func(ctx context.Context, instance *process.Instance, v int64) (bool, error) {
				return false, nil
			},
		}
		engine := process.NewEngine(db, repo)

		_, err := engine.UpdateStatus(ctx, instanceID, process.StatusApproved, &actorID, "", nil)
		assert.ErrorIs(t, err, processerrors.ErrConcurrentUpdate)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestEngine_Replay(t *testing.T) {
	ctx := context.Background()
	instanceID := uuid.New()

	history := []process.HistoryEntry{
		{Sequence: 1, Action: process.StatusInitiated},
		{Sequence: 2, FromStatus: process.StatusInitiated, Action: process.StatusPayslipGenerated},
		{Sequence: 3, FromStatus: process.StatusPayslipGenerated, Action: process.StatusPayslipSent},
	}

	tests := []struct {
		name       string
		stored     process.Status
		version    int64
		entries    []process.HistoryEntry
		consistent bool
		replayed   process.Status
	}{
		{"consistent", process.StatusPayslipSent, 3, history, true, process.StatusPayslipSent},
		{"stored status diverges", process.StatusCompleted, 3, history, false, process.StatusPayslipSent},
		{"missing entry", process.StatusPayslipSent, 4, history, false, process.StatusPayslipSent},
		{"sequence gap", process.StatusPayslipSent, 3, []process.HistoryEntry{history[0], history[2]}, false, process.StatusInitiated},
		{"empty", process.StatusInitiated, 1, nil, false, ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			db, _ := testutil.NewMockDB(t)
			repo := &fakeRepo{
				findByIDFn: func(ctx context.Context, id uuid.UUID) (*process.Instance, error) {
					return &process.Instance{ID: id, ProcessType: process.TypePayroll, Status: tc.stored, Version: tc.version}, nil
				},
				listHistoryFn: func(ctx context.Context, id uuid.UUID) ([]process.HistoryEntry, error) {
					return tc.entries, nil
				},
			}
			engine := process.NewEngine(db, repo)

			result, err := engine.Replay(ctx, instanceID)
			require.NoError(t, err)
			assert.Equal(t, tc.consistent, result.Consistent)
			assert.Equal(t, tc.replayed, result.ReplayedStatus)
			assert.Equal(t, tc.stored, result.StoredStatus)
			if !tc.consistent {
				assert.NotEmpty(t, result.Problem)
			}
		})
	}
}

func TestEngine_Get_NotFound(t *testing.T) {
	db, _ := testutil.NewMockDB(t)
	engine := process.NewEngine(db, &fakeRepo{})

	_, err := engine.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, processerrors.ErrProcessNotFound)
	assert.True(t, apperror.IsNotFound(err))

	_, err = engine.FindLatestByReference(context.Background(), process.TypeLeave, uuid.New())
	assert.ErrorIs(t, err, processerrors.ErrProcessNotFound)
}

func TestCanTransition(t *testing.T) {
	assert.True(t, process.CanTransition(process.TypeLeave, process.StatusInitiated, process.StatusApproved))
	assert.True(t, process.CanTransition(process.TypeOnboarding, process.StatusVerified, process.StatusRejected))
	assert.True(t, process.CanTransition(process.TypePayroll, process.StatusPayslipSent, process.StatusCompleted))
	assert.False(t, process.CanTransition(process.TypePayroll, process.StatusInitiated, process.StatusApproved))
	assert.True(t, process.IsTerminal(process.TypeLeave, process.StatusRejected))
	assert.False(t, process.IsTerminal(process.TypeOnboarding, process.StatusVerified))
}
