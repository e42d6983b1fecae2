package events

import "time"

const (
	PayrollRunRequestedTopic     = "hr.payroll.run.requested.v1"
	PayrollRunRequestedEventType = "payroll_run_requested"
)

type PayrollRunRequestedEvent struct {
	EventType   string    `json:"event_type"`
	RequestID   string    `json:"request_id,omitempty"`
	Month       int       `json:"month"`
	Year        int       `json:"year"`
	RequestedBy string    `json:"requested_by,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
}
