package app

import (
	"fmt"

	"go-hris-engine/internal/compensation"
	"go-hris-engine/internal/employee"
	"go-hris-engine/internal/leave"
	"go-hris-engine/internal/messaging/kafka"
	"go-hris-engine/internal/notification"
	"go-hris-engine/internal/onboarding"
	"go-hris-engine/internal/payroll"
	"go-hris-engine/internal/payslip"
	"go-hris-engine/internal/process"
	"go-hris-engine/internal/shared/counter"
	"go-hris-engine/internal/shared/lock"
	"go-hris-engine/internal/shared/metrics"

	"github.com/google/uuid"
)

// Registry is the wired service graph of one binary.
type Registry struct {
	Employees       employee.Repository
	EmployeeService employee.Service
	Outbox          kafka.OutboxRepository
	Engine          process.Engine
	Leave           leave.Service
	Onboarding      onboarding.Service
	Compensation    compensation.Service
	Payroll         payroll.Service
	Orchestrator    payroll.Orchestrator
}

func NewRegistry(infra *Infra, recorder metrics.Recorder) (*Registry, error) {
	cfg := infra.Config
	db := infra.DB
	logger := infra.Logger

	// --- Repositories ---
	employeeRepo := employee.NewRepository(db)
	compensationRepo := compensation.NewRepository(db)
	processRepo := process.NewRepository(db)
	leaveRepo := leave.NewRepository(db)
	payrollRepo := payroll.NewRepository(db)
	counterRepo := counter.NewRepository(db)
	outboxRepo := kafka.NewOutboxRepository(db)

	// --- Core ---
	engine := process.NewEngine(db, processRepo,
		process.WithLogger(logger),
		process.WithRecorder(recorder),
	)

	var locker lock.Locker = lock.NewKeyedMutex()
	if infra.Redis != nil {
		locker = lock.NewRedisLocker(infra.Redis, cfg.Payroll.LockTTL, lock.WithLogger(logger))
	}

	// --- Services ---
	leaveService := leave.NewService(db, leaveRepo, engine,
		leave.Policy{
			EarnedLeave: cfg.Leave.EarnedLeave,
			CasualLeave: cfg.Leave.CasualLeave,
			SickLeave:   cfg.Leave.SickLeave,
		},
		leave.WithLogger(logger),
		leave.WithRecorder(recorder),
		leave.WithRetry(cfg.Leave.MaxConflictRetries, nil),
	)
	onboardingService := onboarding.NewService(engine, leaveService, logger)
	employeeService := employee.NewService(db, employeeRepo, outboxRepo, infra.Redis, logger)
	compensationService := compensation.NewService(compensationRepo, logger)
	payrollService := payroll.NewService(db, payrollRepo, employeeRepo, compensationRepo, locker, logger)

	orchestratorOpts := []payroll.OrchestratorOption{
		payroll.WithWorkers(cfg.Payroll.Workers),
		payroll.WithRunTimeout(cfg.Payroll.RunTimeout),
		payroll.WithRecorder(recorder),
		payroll.WithLogger(logger),
	}
	if cfg.Payroll.SystemActorID != "" {
		actorID, err := uuid.Parse(cfg.Payroll.SystemActorID)
		if err != nil {
			return nil, fmt.Errorf("parse payroll system actor id: %w", err)
		}
		orchestratorOpts = append(orchestratorOpts, payroll.WithSystemActor(actorID))
	}

	orchestrator := payroll.NewOrchestrator(
		db,
		employeeRepo,
		payrollRepo,
		engine,
		counterRepo,
		locker,
		payslip.NewGenerator(cfg.Payroll.PayslipDir, logger),
		notification.NewOutboxNotifier(outboxRepo, logger),
		orchestratorOpts...,
	)

	return &Registry{
		Employees:       employeeRepo,
		EmployeeService: employeeService,
		Outbox:          outboxRepo,
		Engine:          engine,
		Leave:           leaveService,
		Onboarding:      onboardingService,
		Compensation:    compensationService,
		Payroll:         payrollService,
		Orchestrator:    orchestrator,
	}, nil
}
