// Package notification dispatches payslip notices through the transactional
// outbox; the relay worker delivers them to Kafka.
package notification

import (
	"context"
	"errors"
	"time"

	"go-hris-engine/internal/employee"
	"go-hris-engine/internal/events"
	"go-hris-engine/internal/messaging/kafka"
	"go-hris-engine/internal/payroll"
	"go-hris-engine/internal/shared/apperror"

	"go.uber.org/zap"
)

var ErrNoRecipient = errors.New("employee has no email address")

type OutboxNotifier struct {
	outbox kafka.OutboxRepository
	logger *zap.Logger
	now    func() time.Time
}

func NewOutboxNotifier(outbox kafka.OutboxRepository, logger ...*zap.Logger) *OutboxNotifier {
	l := zap.L().Named("notification.outbox")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("notification.outbox")
	}
	return &OutboxNotifier{
		outbox: outbox,
		logger: l,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Send queues a payslip_ready event. The returned ack is the outbox row id.
func (n *OutboxNotifier) Send(ctx context.Context, e employee.Employee, item payroll.LineItem, artifactPath string) (payroll.Ack, error) {
	if e.Email == "" {
		return payroll.Ack{}, ErrNoRecipient
	}

	row, err := kafka.NewOutboxEvent(ctx,
		events.PayslipReadyTopic,
		events.PayslipReadyEventType,
		"payroll_line_item",
		item.ID.String(),
		events.PayslipReadyEvent{
			EventType:    events.PayslipReadyEventType,
			LineItemID:   item.ID.String(),
			EmployeeID:   e.ID.String(),
			Email:        e.Email,
			Month:        item.Month,
			Year:         item.Year,
			RunNumber:    item.RunNumber,
			NetSalary:    item.NetSalary.StringFixed(2),
			ArtifactPath: artifactPath,
			OccurredAt:   n.now(),
		},
	)
	if err != nil {
		return payroll.Ack{}, err
	}

	if err := n.outbox.Create(ctx, row); err != nil {
		n.logger.Error("queue payslip notification failed",
			zap.String("line_item_id", item.ID.String()),
			zap.Error(err),
		)
		return payroll.Ack{}, apperror.FromStore(err)
	}

	n.logger.Debug("payslip notification queued",
		zap.String("line_item_id", item.ID.String()),
		zap.String("outbox_id", row.ID.String()),
	)
	return payroll.Ack{MessageID: row.ID.String()}, nil
}
