package consumer

import (
	"context"
	"encoding/json"

	"go-hris-engine/internal/events"
	"go-hris-engine/internal/payroll"
	"go-hris-engine/internal/shared/apperror"
	"go-hris-engine/internal/shared/contextutil"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type PayrollRunHandler struct {
	orchestrator payroll.Orchestrator
	logger       *zap.Logger
}

func NewPayrollRunHandler(orchestrator payroll.Orchestrator, logger *zap.Logger) *PayrollRunHandler {
	return &PayrollRunHandler{
		orchestrator: orchestrator,
		logger:       logger.Named("kafka.consumer.payroll_run"),
	}
}

// Handle runs payroll for the requested period. Per-employee failures are in
// the run summary and do not block the commit; only an aborted run is retried.
func (h *PayrollRunHandler) Handle(ctx context.Context, msg kafkago.Message) error {
	var event events.PayrollRunRequestedEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return poison("decode payroll_run_requested event: %v", err)
	}

	if event.RequestID != "" {
		ctx = contextutil.WithRequestID(ctx, event.RequestID)
	}
	if event.RequestedBy != "" {
		ctx = contextutil.WithActorID(ctx, event.RequestedBy)
	}

	summary, err := h.orchestrator.FinalizeForPeriod(ctx, event.Month, event.Year)
	if err != nil {
		if apperror.CodeOf(err) == apperror.CodeInvalidInput {
			return poison("payroll run for %04d-%02d: %v", event.Year, event.Month, err)
		}
		return err
	}

	fields := []zap.Field{
		zap.String("request_id", event.RequestID),
		zap.Int("month", summary.Month),
		zap.Int("year", summary.Year),
		zap.Int64("run_number", summary.RunNumber),
		zap.Int("total", summary.TotalEmployees),
		zap.Int("processed", summary.ProcessedCount),
		zap.Int("skipped", len(summary.Skipped)),
		zap.Int("failed", len(summary.Failed)),
	}
	if runErr := summary.Err(); runErr != nil {
		h.logger.Warn("payroll run finished with failures", append(fields, zap.Error(runErr))...)
		return nil
	}
	h.logger.Info("payroll run finished", fields...)
	return nil
}
