package app

import (
	"context"

	"go-hris-engine/internal/bootstrap"
	"go-hris-engine/internal/events"
	"go-hris-engine/internal/messaging/kafka/consumer"
	"go-hris-engine/internal/shared/metrics"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/sourcegraph/conc"
	"go.uber.org/zap"
)

// RunConsumer consumes the lifecycle and payroll-run topics until ctx is done.
func RunConsumer(ctx context.Context, infra *Infra) error {
	logger := infra.Logger.Named("app.consumer")
	cfg := infra.Config

	recorder := metrics.NewPrometheusRecorder()
	registry, err := NewRegistry(infra, recorder)
	if err != nil {
		return err
	}

	employeeReader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:        cfg.Kafka.Brokers,
		Topic:          events.EmployeeLifecycleTopic,
		GroupID:        cfg.Kafka.EmployeeGroupID,
		CommitInterval: 0,
		StartOffset:    kafkago.FirstOffset,
	})
	defer employeeReader.Close()

	payrollReader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:        cfg.Kafka.Brokers,
		Topic:          events.PayrollRunRequestedTopic,
		GroupID:        cfg.Kafka.PayrollRunGroupID,
		CommitInterval: 0,
		StartOffset:    kafkago.FirstOffset,
	})
	defer payrollReader.Close()

	lifecycle := consumer.NewEmployeeLifecycleHandler(registry.Employees, registry.EmployeeService, registry.Onboarding, infra.Logger)
	payrollRun := consumer.NewPayrollRunHandler(registry.Orchestrator, infra.Logger)
	router := bootstrap.NewOpsRouter(recorder.Handler(), infra.Checks())

	var wg conc.WaitGroup
	wg.Go(func() {
		consumer.Run(ctx, employeeReader, "employee_lifecycle", lifecycle.Handle, infra.Logger)
	})
	wg.Go(func() {
		consumer.Run(ctx, payrollReader, "payroll_run", payrollRun.Handle, infra.Logger)
	})
	wg.Go(func() {
		bootstrap.StartHTTPServer(ctx, router, cfg.Ops, bootstrap.NewStdoutAuditLogger(infra.Logger))
	})

	logger.Info("consumer running",
		zap.Strings("brokers", cfg.Kafka.Brokers),
		zap.String("employee_group", cfg.Kafka.EmployeeGroupID),
		zap.String("payroll_group", cfg.Kafka.PayrollRunGroupID),
	)
	wg.Wait()

	logger.Info("consumer shut down")
	return nil
}
