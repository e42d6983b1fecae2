package leave

type ApplyLeaveRequest struct {
	EmployeeID string `json:"employee_id" validate:"required,uuid"`
	LeaveType  string `json:"leave_type" validate:"required,oneof=CASUAL EARNED SICK"`
	StartDate  string `json:"start_date" validate:"required"`
	EndDate    string `json:"end_date" validate:"required"`
	Reason     string `json:"reason"`
}

type LeaveResponse struct {
	ID                string  `json:"id"`
	EmployeeID        string  `json:"employee_id"`
	LeaveType         string  `json:"leave_type"`
	StartDate         string  `json:"start_date"`
	EndDate           string  `json:"end_date"`
	TotalDays         int     `json:"total_days"`
	Reason            string  `json:"reason"`
	Status            string  `json:"status"`
	ProcessInstanceID *string `json:"process_instance_id,omitempty"`
	AppliedBy         string  `json:"applied_by"`
	DecidedBy         *string `json:"decided_by,omitempty"`
	DecidedAt         *string `json:"decided_at,omitempty"`
	Remarks           *string `json:"remarks,omitempty"`
}

type BalanceResponse struct {
	EmployeeID    string `json:"employee_id"`
	EarnedLeave   int    `json:"earned_leave"`
	CasualLeave   int    `json:"casual_leave"`
	SickLeave     int    `json:"sick_leave"`
	PeriodEndDate string `json:"period_end_date"`
}

// ApproveResult carries the approved leave and the outcome message. Degraded is set
// when the casual balance could not cover the request and was clamped at zero.
type ApproveResult struct {
	Leave    LeaveResponse `json:"leave"`
	Message  string        `json:"message"`
	Degraded bool          `json:"degraded"`
}
