package events

import "time"

const (
	PayslipReadyTopic     = "hr.payroll.payslip.ready.v1"
	PayslipReadyEventType = "payslip_ready"
)

type PayslipReadyEvent struct {
	EventType    string    `json:"event_type"`
	LineItemID   string    `json:"line_item_id"`
	EmployeeID   string    `json:"employee_id"`
	Email        string    `json:"email"`
	Month        int       `json:"month"`
	Year         int       `json:"year"`
	RunNumber    int64     `json:"run_number"`
	NetSalary    string    `json:"net_salary"`
	ArtifactPath string    `json:"artifact_path"`
	OccurredAt   time.Time `json:"occurred_at"`
}
