package kafka

import (
	"context"
	"encoding/json"

	"go-hris-engine/internal/shared/contextutil"

	"gorm.io/datatypes"
)

// NewOutboxEvent marshals payload into a pending outbox row, carrying the
// request id found in ctx.
func NewOutboxEvent(ctx context.Context, topic, eventType, aggregateType, aggregateID string, payload any) (*OutboxEvent, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &OutboxEvent{
		RequestID:     contextutil.GetRequestID(ctx),
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		EventType:     eventType,
		Topic:         topic,
		Payload:       datatypes.JSON(raw),
		Status:        OutboxStatusPending,
	}, nil
}
