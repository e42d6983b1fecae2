package events

import "time"

const (
	EmployeeLifecycleTopic         = "hr.employee.lifecycle.v1"
	EmployeeCreatedEventType       = "employee_created"
	EmployeeStatusChangedEventType = "employee_status_changed"
)

type EmployeeCreatedEvent struct {
	EventType  string    `json:"event_type"`
	RequestID  string    `json:"request_id,omitempty"`
	EmployeeID string    `json:"employee_id"`
	FullName   string    `json:"full_name"`
	Email      string    `json:"email"`
	HireDate   string    `json:"hire_date"`
	OccurredAt time.Time `json:"occurred_at"`
}

// EmployeeStatusChangedEvent carries ACTIVE or INACTIVE. Inactive employees are
// left out of payroll runs.
type EmployeeStatusChangedEvent struct {
	EventType  string    `json:"event_type"`
	RequestID  string    `json:"request_id,omitempty"`
	EmployeeID string    `json:"employee_id"`
	Status     string    `json:"status"`
	OccurredAt time.Time `json:"occurred_at"`
}
