package payroll

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go-hris-engine/internal/employee"
	payrollerrors "go-hris-engine/internal/payroll/errors"
	"go-hris-engine/internal/process"
	"go-hris-engine/internal/shared/apperror"
	"go-hris-engine/internal/shared/counter"
	"go-hris-engine/internal/shared/lock"
	"go-hris-engine/internal/shared/metrics"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

const SkipReasonCompensationProfileMissing = "CompensationProfileMissing"

// ArtifactGenerator renders a payslip and returns where it was stored.
type ArtifactGenerator interface {
	Generate(ctx context.Context, e employee.Employee, item LineItem) (string, error)
}

// Ack identifies a dispatched notification.
type Ack struct {
	MessageID string
}

type Notifier interface {
	Send(ctx context.Context, e employee.Employee, item LineItem, artifactPath string) (Ack, error)
}

type SkippedEmployee struct {
	EmployeeID uuid.UUID
	Reason     string
}

type FailedEmployee struct {
	EmployeeID uuid.UUID
	Err        error
}

// RunSummary is the result of one payroll run. LineItems, Skipped and Failed
// follow the directory order.
type RunSummary struct {
	Month          int
	Year           int
	RunNumber      int64
	TotalEmployees int
	ProcessedCount int
	LineItems      []LineItem
	Skipped        []SkippedEmployee
	Failed         []FailedEmployee
}

// Err aggregates per-employee failures, nil when there were none.
func (s RunSummary) Err() error {
	var result *multierror.Error
	for _, f := range s.Failed {
		result = multierror.Append(result, fmt.Errorf("employee %s: %w", f.EmployeeID, f.Err))
	}
	return result.ErrorOrNil()
}

type Orchestrator interface {
	FinalizeForPeriod(ctx context.Context, month, year int) (RunSummary, error)
}

type orchestrator struct {
	db          *gorm.DB
	directory   employee.Directory
	repo        Repository
	engine      process.Engine
	counter     counter.Repository
	locker      lock.Locker
	artifacts   ArtifactGenerator
	notifier    Notifier
	workers     int
	systemActor *uuid.UUID
	runTimeout  time.Duration
	recorder    metrics.Recorder
	logger      *zap.Logger
	now         func() time.Time
	sf          singleflight.Group
}

type OrchestratorOption func(*orchestrator)

func WithWorkers(n int) OrchestratorOption {
	return func(o *orchestrator) {
		if n > 0 {
			o.workers = n
		}
	}
}

// WithSystemActor sets the actor recorded on process transitions made by runs.
// Without it the actor columns stay NULL.
func WithSystemActor(id uuid.UUID) OrchestratorOption {
	return func(o *orchestrator) { o.systemActor = &id }
}

// WithRunTimeout bounds a whole run, which outlives the callers waiting on it.
func WithRunTimeout(d time.Duration) OrchestratorOption {
	return func(o *orchestrator) {
		if d > 0 {
			o.runTimeout = d
		}
	}
}

func WithRecorder(r metrics.Recorder) OrchestratorOption {
	return func(o *orchestrator) { o.recorder = r }
}

func WithLogger(l *zap.Logger) OrchestratorOption {
	return func(o *orchestrator) {
		if l != nil {
			o.logger = l.Named("payroll.orchestrator")
		}
	}
}

func WithClock(now func() time.Time) OrchestratorOption {
	return func(o *orchestrator) { o.now = now }
}

func NewOrchestrator(
	db *gorm.DB,
	directory employee.Directory,
	repo Repository,
	engine process.Engine,
	counterRepo counter.Repository,
	locker lock.Locker,
	artifacts ArtifactGenerator,
	notifier Notifier,
	opts ...OrchestratorOption,
) Orchestrator {
	o := &orchestrator{
		db:         db,
		directory:  directory,
		repo:       repo,
		engine:     engine,
		counter:    counterRepo,
		locker:     locker,
		artifacts:  artifacts,
		notifier:   notifier,
		workers:    8,
		runTimeout: 30 * time.Minute,
		recorder:   metrics.Nop(),
		logger:     zap.L().Named("payroll.orchestrator"),
		now:        func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func ValidatePeriod(month, year int) error {
	if month < 1 || month > 12 || year < 2000 || year > 9999 {
		return payrollerrors.ErrInvalidPeriod
	}
	return nil
}

// FinalizeForPeriod settles payroll for every active employee. Only a failure
// to number the run or to load the directory aborts it; per-employee problems
// end up in the summary. Concurrent calls for the same period share one run;
// the run is detached from any single caller, so a caller that gives up only
// stops waiting.
func (o *orchestrator) FinalizeForPeriod(ctx context.Context, month, year int) (RunSummary, error) {
	if err := ValidatePeriod(month, year); err != nil {
		return RunSummary{}, err
	}

	key := counter.PayrollRunKey(month, year)
	ch := o.sf.DoChan(key, func() (any, error) {
		runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.runTimeout)
		defer cancel()
		return o.run(runCtx, month, year)
	})

	select {
	case <-ctx.Done():
		o.logger.Warn("finalize payroll caller stopped waiting",
			zap.Int("month", month),
			zap.Int("year", year),
			zap.Error(ctx.Err()),
		)
		return RunSummary{}, ctx.Err()
	case res := <-ch:
		if res.Shared {
			o.logger.Info("finalize payroll joined an in-flight run",
				zap.Int("month", month),
				zap.Int("year", year),
			)
		}
		if res.Err != nil {
			return RunSummary{}, res.Err
		}
		return res.Val.(RunSummary), nil
	}
}

type employeeOutcome struct {
	item    *LineItem
	skipped string
	err     error
}

func (o *orchestrator) run(ctx context.Context, month, year int) (RunSummary, error) {
	started := o.now()
	log := o.logger.With(zap.Int("month", month), zap.Int("year", year))

	runNumber, err := o.counter.GetNextValue(ctx, counter.PayrollRunKey(month, year))
	if err != nil {
		log.Error("finalize payroll run number failed", zap.Error(err))
		return RunSummary{}, apperror.FromStore(err)
	}
	log = log.With(zap.Int64("run_number", runNumber))

	employees, err := o.directory.ListActiveWithCompensation(ctx)
	if err != nil {
		log.Error("finalize payroll load employees failed", zap.Error(err))
		return RunSummary{}, apperror.FromStore(err)
	}
	log.Info("finalize payroll started", zap.Int("employees", len(employees)))

	outcomes := make([]employeeOutcome, len(employees))
	p := pool.New().WithMaxGoroutines(o.workers)
	for i := range employees {
		i := i // per-iteration copy; go.mod targets go1.21 loop semantics
		p.Go(func() {
			outcomes[i] = o.processEmployee(ctx, employees[i], month, year, runNumber)
		})
	}
	p.Wait()

	summary := RunSummary{
		Month:          month,
		Year:           year,
		RunNumber:      runNumber,
		TotalEmployees: len(employees),
	}
	for i, outcome := range outcomes {
		id := employees[i].Employee.ID
		switch {
		case outcome.err != nil:
			summary.Failed = append(summary.Failed, FailedEmployee{EmployeeID: id, Err: outcome.err})
			o.recorder.PayrollEmployeeOutcome(metrics.OutcomeFailed)
		case outcome.skipped != "":
			summary.Skipped = append(summary.Skipped, SkippedEmployee{EmployeeID: id, Reason: outcome.skipped})
			o.recorder.PayrollEmployeeOutcome(metrics.OutcomeSkipped)
		default:
			summary.LineItems = append(summary.LineItems, *outcome.item)
			summary.ProcessedCount++
			o.recorder.PayrollEmployeeOutcome(metrics.OutcomeProcessed)
		}
	}

	elapsed := o.now().Sub(started)
	o.recorder.PayrollRun(elapsed, summary.ProcessedCount, len(summary.Skipped), len(summary.Failed))
	log.Info("finalize payroll finished",
		zap.Int("processed", summary.ProcessedCount),
		zap.Int("skipped", len(summary.Skipped)),
		zap.Int("failed", len(summary.Failed)),
		zap.Duration("elapsed", elapsed),
	)
	return summary, nil
}

// processEmployee holds the employee's period lock from the line item write
// until the notification step, so an interactive adjustment never interleaves.
func (o *orchestrator) processEmployee(ctx context.Context, row employee.WithCompensation, month, year int, runNumber int64) employeeOutcome {
	e := row.Employee
	log := o.logger.With(
		zap.String("employee_id", e.ID.String()),
		zap.Int("month", month),
		zap.Int("year", year),
	)

	computation, err := Compute(e, row.Profile)
	if errors.Is(err, payrollerrors.ErrCompensationProfileMissing) {
		log.Warn("finalize payroll skipped employee without compensation profile")
		return employeeOutcome{skipped: SkipReasonCompensationProfileMissing}
	}
	if err != nil {
		log.Warn("finalize payroll computation rejected", zap.Error(err))
		return employeeOutcome{err: err}
	}

	release, err := o.locker.Acquire(ctx, lock.PayrollKey(e.ID, month, year))
	if err != nil {
		log.Error("finalize payroll lock failed", zap.Error(err))
		return employeeOutcome{err: err}
	}
	defer release()

	item, err := o.createLineItem(ctx, e, computation, month, year, runNumber)
	if err != nil {
		log.Error("finalize payroll persist line item failed", zap.Error(err))
		return employeeOutcome{err: apperror.FromStore(err)}
	}
	log = log.With(zap.String("line_item_id", item.ID.String()))

	path, err := o.artifacts.Generate(ctx, e, *item)
	if err != nil {
		log.Error("finalize payroll payslip generation failed", zap.Error(err))
		return employeeOutcome{item: item}
	}
	item, err = o.advance(ctx, item, process.StatusPayslipGenerated, "payslip generated",
		map[string]any{"artifact_path": path},
		func(it *LineItem, now time.Time) {
			it.Status = StatusPayslipGenerated
			it.ArtifactPath = &path
			it.PayslipGeneratedAt = &now
		},
	)
	if err != nil {
		log.Error("finalize payroll record payslip failed", zap.Error(err))
		return employeeOutcome{item: item}
	}

	ack, err := o.notifier.Send(ctx, e, *item, path)
	if err != nil {
		log.Error("finalize payroll notification failed", zap.Error(err))
		return employeeOutcome{item: item}
	}
	item, err = o.advance(ctx, item, process.StatusPayslipSent, "payslip sent",
		map[string]any{"notification_id": ack.MessageID},
		func(it *LineItem, now time.Time) {
			it.Status = StatusPayslipSent
			it.PayslipSentAt = &now
		},
	)
	if err != nil {
		log.Error("finalize payroll record notification failed", zap.Error(err))
		return employeeOutcome{item: item}
	}

	log.Info("finalize payroll employee settled", zap.String("net_salary", item.NetSalary.StringFixed(2)))
	return employeeOutcome{item: item}
}

func (o *orchestrator) createLineItem(ctx context.Context, e employee.Employee, c Computation, month, year int, runNumber int64) (*LineItem, error) {
	item := &LineItem{
		EmployeeID: e.ID,
		Month:      month,
		Year:       year,
		Status:     StatusCreated,
		RunNumber:  runNumber,
	}
	item.apply(c)

	err := o.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		qtx := o.repo.WithTx(tx)
		if err := qtx.Upsert(ctx, item); err != nil {
			return err
		}

		instance, err := o.engine.WithTx(tx).Start(ctx, process.TypePayroll, item.ID, e.ID, o.systemActor,
			fmt.Sprintf("payroll run %d for %04d-%02d", runNumber, year, month),
			map[string]any{
				"run_number": runNumber,
				"month":      month,
				"year":       year,
				"net_salary": c.NetSalary.String(),
			},
		)
		if err != nil {
			return err
		}
		item.ProcessInstanceID = &instance.ID
		return qtx.Update(ctx, item)
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

// advance moves the line item's process to status and applies mutate to the
// line item in one transaction. On failure the original item is returned
// unchanged. PAYSLIP_SENT also completes the process.
func (o *orchestrator) advance(
	ctx context.Context,
	item *LineItem,
	status process.Status,
	remarks string,
	metadata map[string]any,
	mutate func(it *LineItem, now time.Time),
) (*LineItem, error) {
	if item.ProcessInstanceID == nil {
		return item, errors.New("line item has no process instance")
	}

	next := *item
	mutate(&next, o.now())

	err := o.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		engine := o.engine.WithTx(tx)
		if _, err := engine.UpdateStatus(ctx, *item.ProcessInstanceID, status, o.systemActor, remarks, metadata); err != nil {
			return err
		}
		if status == process.StatusPayslipSent {
			if _, err := engine.UpdateStatus(ctx, *item.ProcessInstanceID, process.StatusCompleted, o.systemActor, "payroll settled", nil); err != nil {
				return err
			}
		}
		return o.repo.WithTx(tx).Update(ctx, &next)
	})
	if err != nil {
		return item, err
	}
	return &next, nil
}
