package consumer

import (
	"context"
	"encoding/json"
	"time"

	"go-hris-engine/internal/employee"
	"go-hris-engine/internal/events"
	"go-hris-engine/internal/onboarding"
	"go-hris-engine/internal/shared/apperror"
	"go-hris-engine/internal/shared/contextutil"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// EmployeeProjection keeps the local employee read model in sync with the
// lifecycle topic.
type EmployeeProjection interface {
	Upsert(ctx context.Context, e *employee.Employee) error
}

// EmployeeStatusUpdater applies employment status changes.
type EmployeeStatusUpdater interface {
	SetStatus(ctx context.Context, id uuid.UUID, status string) error
}

type EmployeeLifecycleHandler struct {
	projection EmployeeProjection
	statuses   EmployeeStatusUpdater
	onboarding onboarding.Service
	logger     *zap.Logger
}

func NewEmployeeLifecycleHandler(
	projection EmployeeProjection,
	statuses EmployeeStatusUpdater,
	onboardingSvc onboarding.Service,
	logger *zap.Logger,
) *EmployeeLifecycleHandler {
	return &EmployeeLifecycleHandler{
		projection: projection,
		statuses:   statuses,
		onboarding: onboardingSvc,
		logger:     logger.Named("kafka.consumer.employee_lifecycle"),
	}
}

// Handle dispatches on the event type header, falling back to the payload's
// event_type. Unknown event types on the topic are ignored.
func (h *EmployeeLifecycleHandler) Handle(ctx context.Context, msg kafkago.Message) error {
	eventType := header(msg, "event_type")
	if eventType == "" {
		var envelope struct {
			EventType string `json:"event_type"`
		}
		if err := json.Unmarshal(msg.Value, &envelope); err != nil {
			return poison("decode employee lifecycle event: %v", err)
		}
		eventType = envelope.EventType
	}

	switch eventType {
	case events.EmployeeCreatedEventType:
		return h.handleCreated(ctx, msg)
	case events.EmployeeStatusChangedEventType:
		return h.handleStatusChanged(ctx, msg)
	default:
		return nil
	}
}

func (h *EmployeeLifecycleHandler) handleCreated(ctx context.Context, msg kafkago.Message) error {
	var event events.EmployeeCreatedEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return poison("decode employee_created event: %v", err)
	}

	employeeID, err := uuid.Parse(event.EmployeeID)
	if err != nil {
		return poison("employee_created with invalid employee id %q", event.EmployeeID)
	}
	hireDate, err := time.Parse("2006-01-02", event.HireDate)
	if err != nil {
		return poison("employee_created with invalid hire date %q", event.HireDate)
	}

	if event.RequestID != "" {
		ctx = contextutil.WithRequestID(ctx, event.RequestID)
	}

	if err := h.projection.Upsert(ctx, &employee.Employee{
		ID:               employeeID,
		FullName:         event.FullName,
		Email:            event.Email,
		EmploymentStatus: employee.StatusActive,
		HireDate:         hireDate,
	}); err != nil {
		return err
	}

	instance, err := h.onboarding.Begin(ctx, employeeID, hireDate, nil)
	if err != nil {
		return err
	}

	h.logger.Info("onboarding begun from employee_created event",
		zap.String("request_id", event.RequestID),
		zap.String("employee_id", event.EmployeeID),
		zap.String("process_instance_id", instance.ID.String()),
	)
	return nil
}

func (h *EmployeeLifecycleHandler) handleStatusChanged(ctx context.Context, msg kafkago.Message) error {
	var event events.EmployeeStatusChangedEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return poison("decode employee_status_changed event: %v", err)
	}

	employeeID, err := uuid.Parse(event.EmployeeID)
	if err != nil {
		return poison("employee_status_changed with invalid employee id %q", event.EmployeeID)
	}

	if event.RequestID != "" {
		ctx = contextutil.WithRequestID(ctx, event.RequestID)
	}

	if err := h.statuses.SetStatus(ctx, employeeID, event.Status); err != nil {
		switch apperror.CodeOf(err) {
		case apperror.CodeInvalidInput, apperror.CodeNotFound:
			return poison("employee_status_changed for %s: %v", event.EmployeeID, err)
		}
		return err
	}

	h.logger.Info("employee status applied",
		zap.String("request_id", event.RequestID),
		zap.String("employee_id", event.EmployeeID),
		zap.String("status", event.Status),
	)
	return nil
}
