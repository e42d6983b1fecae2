package notification_test

import (
	"context"
	"encoding/json"
	"testing"

	"go-hris-engine/internal/employee"
	"go-hris-engine/internal/events"
	"go-hris-engine/internal/messaging/kafka"
	"go-hris-engine/internal/notification"
	"go-hris-engine/internal/payroll"
	"go-hris-engine/internal/shared/testutil"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutboxNotifier_Send(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewSQLiteDB(t, &kafka.OutboxEvent{})
	n := notification.NewOutboxNotifier(kafka.NewOutboxRepository(db))

	e := employee.Employee{ID: uuid.New(), Email: "asha@example.com"}
	item := payroll.LineItem{
		ID:         uuid.New(),
		EmployeeID: e.ID,
		Month:      11,
		Year:       2025,
		RunNumber:  2,
		NetSalary:  decimal.RequireFromString("62365.5"),
	}

	ack, err := n.Send(ctx, e, item, "/payslips/2025-11/x.pdf")
	require.NoError(t, err)

	var stored kafka.OutboxEvent
	require.NoError(t, db.First(&stored, "id = ?", ack.MessageID).Error)
	assert.Equal(t, events.PayslipReadyTopic, stored.Topic)
	assert.Equal(t, item.ID.String(), stored.AggregateID)

	var event events.PayslipReadyEvent
	require.NoError(t, json.Unmarshal(stored.Payload, &event))
	assert.Equal(t, "62365.50", event.NetSalary)
	assert.Equal(t, "asha@example.com", event.Email)
	assert.Equal(t, int64(2), event.RunNumber)
	assert.Equal(t, "/payslips/2025-11/x.pdf", event.ArtifactPath)
}

func TestOutboxNotifier_RequiresEmail(t *testing.T) {
	db := testutil.NewSQLiteDB(t, &kafka.OutboxEvent{})
	n := notification.NewOutboxNotifier(kafka.NewOutboxRepository(db))

	_, err := n.Send(context.Background(), employee.Employee{ID: uuid.New()}, payroll.LineItem{ID: uuid.New()}, "")
	assert.ErrorIs(t, err, notification.ErrNoRecipient)
}
