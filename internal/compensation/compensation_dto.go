package compensation

// UpsertProfileRequest carries amounts as decimal strings. An omitted optional
// component is stored as NULL and defaulted at payroll time.
type UpsertProfileRequest struct {
	EmployeeID      string  `json:"employee_id" validate:"required,uuid"`
	BaseSalary      string  `json:"base_salary" validate:"required,numeric"`
	HRA             *string `json:"hra" validate:"omitempty,numeric"`
	DA              *string `json:"da" validate:"omitempty,numeric"`
	Conveyance      *string `json:"conveyance" validate:"omitempty,numeric"`
	Bonus           *string `json:"bonus" validate:"omitempty,numeric"`
	PF              *string `json:"pf" validate:"omitempty,numeric"`
	ESI             *string `json:"esi" validate:"omitempty,numeric"`
	Tax             *string `json:"tax" validate:"omitempty,numeric"`
	OtherDeductions *string `json:"other_deductions" validate:"omitempty,numeric"`
}

type ProfileResponse struct {
	ID              string  `json:"id"`
	EmployeeID      string  `json:"employee_id"`
	BaseSalary      string  `json:"base_salary"`
	HRA             *string `json:"hra,omitempty"`
	DA              *string `json:"da,omitempty"`
	Conveyance      *string `json:"conveyance,omitempty"`
	Bonus           *string `json:"bonus,omitempty"`
	PF              *string `json:"pf,omitempty"`
	ESI             *string `json:"esi,omitempty"`
	Tax             *string `json:"tax,omitempty"`
	OtherDeductions *string `json:"other_deductions,omitempty"`
	UpdatedAt       string  `json:"updated_at"`
}
