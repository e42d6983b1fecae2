package payroll_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"go-hris-engine/internal/compensation"
	"go-hris-engine/internal/employee"
	"go-hris-engine/internal/payroll"
	payrollerrors "go-hris-engine/internal/payroll/errors"
	"go-hris-engine/internal/process"
	"go-hris-engine/internal/shared/apperror"
	"go-hris-engine/internal/shared/counter"
	"go-hris-engine/internal/shared/lock"
	"go-hris-engine/internal/shared/testutil"

	lockMock "go-hris-engine/internal/shared/lock/mock"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"gorm.io/gorm"
)

type fakeArtifactGenerator struct {
	mu         sync.Mutex
	generateFn func(e employee.Employee, item payroll.LineItem) (string, error)
	calls      int
}

func (f *fakeArtifactGenerator) Generate(_ context.Context, e employee.Employee, item payroll.LineItem) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.generateFn != nil {
		return f.generateFn(e, item)
	}
	return fmt.Sprintf("/payslips/%s-%04d-%02d.pdf", e.ID, item.Year, item.Month), nil
}

type fakeNotifier struct {
	mu     sync.Mutex
	sendFn func(e employee.Employee, item payroll.LineItem, path string) (payroll.Ack, error)
	sent   []string
}

func (f *fakeNotifier) Send(_ context.Context, e employee.Employee, item payroll.LineItem, path string) (payroll.Ack, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendFn != nil {
		return f.sendFn(e, item, path)
	}
	f.sent = append(f.sent, path)
	return payroll.Ack{MessageID: uuid.NewString()}, nil
}

type payrollFixture struct {
	db        *gorm.DB
	engine    process.Engine
	repo      payroll.Repository
	employees employee.Repository
	artifacts *fakeArtifactGenerator
	notifier  *fakeNotifier
	locker    *lock.KeyedMutex
	system    uuid.UUID
}

func newPayrollFixture(t *testing.T) *payrollFixture {
	t.Helper()

	db := testutil.NewSQLiteDB(t,
		&employee.Employee{},
		&compensation.Profile{},
		&payroll.LineItem{},
		&process.Instance{},
		&process.HistoryEntry{},
		&counter.Counter{},
	)
	return &payrollFixture{
		db:        db,
		engine:    process.NewEngine(db, process.NewRepository(db)),
		repo:      payroll.NewRepository(db),
		employees: employee.NewRepository(db),
		artifacts: &fakeArtifactGenerator{},
		notifier:  &fakeNotifier{},
		locker:    lock.NewKeyedMutex(),
		system:    uuid.New(),
	}
}

func (f *payrollFixture) orchestrator(directory employee.Directory) payroll.Orchestrator {
	if directory == nil {
		directory = f.employees
	}
	return payroll.NewOrchestrator(f.db, directory, f.repo, f.engine,
		counter.NewRepository(f.db), f.locker, f.artifacts, f.notifier,
		payroll.WithWorkers(4),
		payroll.WithSystemActor(f.system),
	)
}

func (f *payrollFixture) addEmployee(t *testing.T, name, status string, base string) employee.Employee {
	t.Helper()

	e := &employee.Employee{
		FullName:         name,
		Email:            name + "@example.com",
		EmploymentStatus: status,
		HireDate:         time.Date(2024, time.January, 2, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, f.employees.Create(context.Background(), e))
	if base != "" {
		require.NoError(t, f.db.Create(&compensation.Profile{EmployeeID: e.ID, BaseSalary: dec(base)}).Error)
	}
	return *e
}

func TestFinalizeForPeriod_SettlesSkipsAndIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newPayrollFixture(t)

	alice := f.addEmployee(t, "alice", employee.StatusActive, "50000")
	bob := f.addEmployee(t, "bob", employee.StatusActive, "")
	f.addEmployee(t, "carol", employee.StatusInactive, "30000")

	orch := f.orchestrator(nil)

	first, err := orch.FinalizeForPeriod(ctx, 11, 2025)
	require.NoError(t, err)
	assert.NoError(t, first.Err())
	assert.Equal(t, int64(1), first.RunNumber)
	assert.Equal(t, 2, first.TotalEmployees)
	assert.Equal(t, 1, first.ProcessedCount)
	require.Len(t, first.Skipped, 1)
	assert.Equal(t, bob.ID, first.Skipped[0].EmployeeID)
	assert.Equal(t, payroll.SkipReasonCompensationProfileMissing, first.Skipped[0].Reason)
	assert.Empty(t, first.Failed)

	require.Len(t, first.LineItems, 1)
	item := first.LineItems[0]
	assert.Equal(t, alice.ID, item.EmployeeID)
	assert.Equal(t, payroll.StatusPayslipSent, item.Status)
	assert.True(t, item.NetSalary.Equal(dec("62365.5")))
	require.NotNil(t, item.ArtifactPath)
	require.NotNil(t, item.ProcessInstanceID)

	instance, err := f.engine.Get(ctx, *item.ProcessInstanceID)
	require.NoError(t, err)
	assert.Equal(t, process.TypePayroll, instance.ProcessType)
	assert.Equal(t, process.StatusCompleted, instance.Status)
	assert.Equal(t, item.ID, instance.ReferenceID)

	history, err := f.engine.History(ctx, instance.ID)
	require.NoError(t, err)
	actions := make([]process.Status, 0, len(history))
	for _, h := range history {
		actions = append(actions, h.Action)
		assert.Equal(t, &f.system, h.ActorID)
	}
	assert.Equal(t, []process.Status{
		process.StatusInitiated,
		process.StatusPayslipGenerated,
		process.StatusPayslipSent,
		process.StatusCompleted,
	}, actions)

	replay, err := f.engine.Replay(ctx, instance.ID)
	require.NoError(t, err)
	assert.True(t, replay.Consistent)

	// raise the salary and run again: same row, new values, fresh process
	require.NoError(t, f.db.Model(&compensation.Profile{}).
		Where("employee_id = ?", alice.ID).
		Update("base_salary", dec("60000")).Error)

	second, err := orch.FinalizeForPeriod(ctx, 11, 2025)
	require.NoError(t, err)
	assert.Equal(t, int64(2), second.RunNumber)
	require.Len(t, second.LineItems, 1)
	assert.Equal(t, item.ID, second.LineItems[0].ID)
	assert.Equal(t, int64(2), second.LineItems[0].RunNumber)
	assert.NotEqual(t, *item.ProcessInstanceID, *second.LineItems[0].ProcessInstanceID)

	items, err := f.repo.ListByPeriod(ctx, 11, 2025)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.True(t, items[0].BaseSalary.Equal(dec("60000")))

	instances, err := f.engine.ListByEmployee(ctx, alice.ID)
	require.NoError(t, err)
	assert.Len(t, instances, 2)
}

func TestFinalizeForPeriod_ArtifactAndNotificationFailuresAreNotFatal(t *testing.T) {
	ctx := context.Background()
	f := newPayrollFixture(t)

	noArtifact := f.addEmployee(t, "dave", employee.StatusActive, "20000")
	noNotice := f.addEmployee(t, "erin", employee.StatusActive, "30000")

	f.artifacts.generateFn = func(e employee.Employee, item payroll.LineItem) (string, error) {
		if e.ID == noArtifact.ID {
			return "", errors.New("disk full")
		}
		return "/payslips/" + e.ID.String() + ".pdf", nil
	}
	f.notifier.sendFn = func(e employee.Employee, _ payroll.LineItem, _ string) (payroll.Ack, error) {
		return payroll.Ack{}, errors.New("smtp down")
	}

	summary, err := f.orchestrator(nil).FinalizeForPeriod(ctx, 1, 2026)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.ProcessedCount)
	assert.Empty(t, summary.Failed)

	byEmployee := map[uuid.UUID]payroll.LineItem{}
	for _, it := range summary.LineItems {
		byEmployee[it.EmployeeID] = it
	}
	assert.Equal(t, payroll.StatusCreated, byEmployee[noArtifact.ID].Status)
	assert.Nil(t, byEmployee[noArtifact.ID].ArtifactPath)
	assert.Equal(t, payroll.StatusPayslipGenerated, byEmployee[noNotice.ID].Status)

	instance, err := f.engine.Get(ctx, *byEmployee[noNotice.ID].ProcessInstanceID)
	require.NoError(t, err)
	assert.Equal(t, process.StatusPayslipGenerated, instance.Status)
}

func TestFinalizeForPeriod_NegativeBaseFailsOnlyThatEmployee(t *testing.T) {
	ctx := context.Background()
	f := newPayrollFixture(t)

	bad := f.addEmployee(t, "frank", employee.StatusActive, "-100")
	f.addEmployee(t, "gina", employee.StatusActive, "10000")

	summary, err := f.orchestrator(nil).FinalizeForPeriod(ctx, 2, 2026)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.ProcessedCount)
	require.Len(t, summary.Failed, 1)
	assert.Equal(t, bad.ID, summary.Failed[0].EmployeeID)
	assert.ErrorIs(t, summary.Failed[0].Err, payrollerrors.ErrNegativeBaseSalary)

	runErr := summary.Err()
	require.Error(t, runErr)
	assert.Contains(t, runErr.Error(), bad.ID.String())
}

type failingDirectory struct{ err error }

func (d failingDirectory) FindByID(context.Context, uuid.UUID) (*employee.Employee, error) {
	return nil, d.err
}

func (d failingDirectory) ListActiveWithCompensation(context.Context) ([]employee.WithCompensation, error) {
	return nil, d.err
}

func TestFinalizeForPeriod_Aborts(t *testing.T) {
	ctx := context.Background()
	f := newPayrollFixture(t)

	_, err := f.orchestrator(nil).FinalizeForPeriod(ctx, 13, 2025)
	assert.ErrorIs(t, err, payrollerrors.ErrInvalidPeriod)

	_, err = f.orchestrator(failingDirectory{err: context.DeadlineExceeded}).FinalizeForPeriod(ctx, 3, 2026)
	assert.ErrorIs(t, err, apperror.ErrStoreUnavailable)
}

func TestFinalizeForPeriod_WithoutSystemActorLeavesActorNull(t *testing.T) {
	ctx := context.Background()
	f := newPayrollFixture(t)
	f.addEmployee(t, "hana", employee.StatusActive, "40000")

	orch := payroll.NewOrchestrator(f.db, f.employees, f.repo, f.engine,
		counter.NewRepository(f.db), f.locker, f.artifacts, f.notifier,
	)

	summary, err := orch.FinalizeForPeriod(ctx, 4, 2026)
	require.NoError(t, err)
	require.Len(t, summary.LineItems, 1)
	require.NotNil(t, summary.LineItems[0].ProcessInstanceID)

	instance, err := f.engine.Get(ctx, *summary.LineItems[0].ProcessInstanceID)
	require.NoError(t, err)
	assert.Nil(t, instance.InitiatedBy)

	history, err := f.engine.History(ctx, instance.ID)
	require.NoError(t, err)
	require.Len(t, history, 4)
	for _, h := range history {
		assert.Nil(t, h.ActorID, h.Action)
	}

	var nullActors int64
	require.NoError(t, f.db.Model(&process.HistoryEntry{}).
		Where("process_instance_id = ? AND actor_id IS NULL", instance.ID).
		Count(&nullActors).Error)
	assert.Equal(t, int64(4), nullActors)
}

func TestFinalizeForPeriod_CallerCancelDoesNotFailJoinedCallers(t *testing.T) {
	f := newPayrollFixture(t)
	ivan := f.addEmployee(t, "ivan", employee.StatusActive, "25000")

	generating := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	f.artifacts.generateFn = func(e employee.Employee, item payroll.LineItem) (string, error) {
		once.Do(func() { close(generating) })
		<-release
		return "/payslips/" + e.ID.String() + ".pdf", nil
	}

	orch := f.orchestrator(nil)

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := orch.FinalizeForPeriod(firstCtx, 5, 2026)
		firstErr <- err
	}()
	<-generating

	type result struct {
		summary payroll.RunSummary
		err     error
	}
	joined := make(chan result, 1)
	go func() {
		s, err := orch.FinalizeForPeriod(context.Background(), 5, 2026)
		joined <- result{s, err}
	}()
	time.Sleep(50 * time.Millisecond)

	cancelFirst()
	assert.ErrorIs(t, <-firstErr, context.Canceled)

	close(release)
	res := <-joined
	require.NoError(t, res.err)
	assert.Equal(t, 1, res.summary.ProcessedCount)
	assert.Empty(t, res.summary.Failed)

	items, err := f.repo.ListByPeriod(context.Background(), 5, 2026)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, ivan.ID, items[0].EmployeeID)
	assert.Equal(t, payroll.StatusPayslipSent, items[0].Status)
}

func TestFinalizeForPeriod_LockHeldElsewhereFailsThatEmployee(t *testing.T) {
	ctx := context.Background()
	f := newPayrollFixture(t)
	alice := f.addEmployee(t, "alice", employee.StatusActive, "50000")
	bob := f.addEmployee(t, "bob", employee.StatusActive, "45000")

	ctrl := gomock.NewController(t)
	locker := lockMock.NewMockLocker(ctrl)

	released := 0
	locker.EXPECT().
		Acquire(gomock.Any(), lock.PayrollKey(alice.ID, 4, 2026)).
		Return(nil, lock.ErrLockNotAcquired)
	locker.EXPECT().
		Acquire(gomock.Any(), lock.PayrollKey(bob.ID, 4, 2026)).
		Return(lock.Release(func() { released++ }), nil)

	orch := payroll.NewOrchestrator(f.db, f.employees, f.repo, f.engine,
		counter.NewRepository(f.db), locker, f.artifacts, f.notifier,
		payroll.WithWorkers(1),
		payroll.WithSystemActor(f.system),
	)

	summary, err := orch.FinalizeForPeriod(ctx, 4, 2026)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.TotalEmployees)
	assert.Equal(t, 1, summary.ProcessedCount)
	require.Len(t, summary.Failed, 1)
	assert.Equal(t, alice.ID, summary.Failed[0].EmployeeID)
	assert.ErrorIs(t, summary.Failed[0].Err, lock.ErrLockNotAcquired)
	require.Len(t, summary.LineItems, 1)
	assert.Equal(t, bob.ID, summary.LineItems[0].EmployeeID)
	assert.Equal(t, 1, released)

	items, err := f.repo.ListByPeriod(ctx, 4, 2026)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}
